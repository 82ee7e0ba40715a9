package authkit

import (
	"log/slog"

	"github.com/ravil-k/authkit/kv"
	"github.com/ravil-k/authkit/session"
)

// Engine is the server-side entry point: OTP issuance/verification plus
// access to the onboarding session store. Construct it with New().Build();
// an Engine is immutable after Build and safe for concurrent use.
type Engine struct {
	config   Config
	store    kv.Store
	otp      *otpStore
	limiter  *otpLimiter
	sessions *session.Store
	logger   *slog.Logger
}

// Sessions returns the onboarding session store wired at Build time.
func (e *Engine) Sessions() *session.Store {
	if e == nil {
		return nil
	}
	return e.sessions
}

// Store exposes the namespaced key-value store the engine operates on.
// Intended for callers that keep adjacent ephemeral state (test hooks,
// health checks), not for touching engine-owned keys.
func (e *Engine) Store() kv.Store {
	if e == nil {
		return nil
	}
	return e.store
}

func (e *Engine) ready() bool {
	return e != nil && e.otp != nil && e.limiter != nil && e.sessions != nil
}
