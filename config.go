package authkit

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Zero values are filled from
// DefaultConfig at Build time; explicit invalid values fail Build.
type Config struct {
	// Environment gates non-production conveniences. Defaults to
	// EnvProduction so a forgotten setting fails safe.
	Environment Environment

	// KeyPrefix optionally namespaces every key the engine touches, for
	// multi-tenant deployments sharing one store.
	KeyPrefix string

	OTP     OTPConfig
	Session SessionConfig
}

// OTPConfig tunes code issuance and verification.
type OTPConfig struct {
	// CodeLength is the number of decimal digits, 4 to 10.
	CodeLength int
	// TTL bounds the lifetime of an issued code.
	TTL time.Duration
	// MaxAttempts bounds verification attempts per issued code.
	MaxAttempts int
	// RateLimit bounds issuance frequency per identifier.
	RateLimit RateLimitConfig
	// BypassCode, when set, replaces the random code outside production.
	// It is never honored in production regardless of configuration.
	BypassCode string
}

// RateLimitConfig describes a fixed issuance window per identifier.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// SessionConfig tunes the onboarding session store.
type SessionConfig struct {
	// TTL bounds the absolute lifetime of an onboarding session. Updates
	// never extend it.
	TTL time.Duration
	// KeyPrefix namespaces session keys inside the store.
	KeyPrefix string
}

// DefaultConfig returns production-safe defaults: 6-digit codes valid for
// 5 minutes with 5 attempts, 3 requests per 60-second window, and
// 24-hour onboarding sessions.
func DefaultConfig() Config {
	return Config{
		Environment: EnvProduction,
		OTP: OTPConfig{
			CodeLength:  6,
			TTL:         5 * time.Minute,
			MaxAttempts: 5,
			RateLimit: RateLimitConfig{
				Window:      60 * time.Second,
				MaxRequests: 3,
			},
		},
		Session: SessionConfig{
			TTL:       24 * time.Hour,
			KeyPrefix: "auth_session:",
		},
	}
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Environment == "" {
		cfg.Environment = def.Environment
	}
	if cfg.OTP.CodeLength == 0 {
		cfg.OTP.CodeLength = def.OTP.CodeLength
	}
	if cfg.OTP.TTL == 0 {
		cfg.OTP.TTL = def.OTP.TTL
	}
	if cfg.OTP.MaxAttempts == 0 {
		cfg.OTP.MaxAttempts = def.OTP.MaxAttempts
	}
	if cfg.OTP.RateLimit.Window == 0 {
		cfg.OTP.RateLimit.Window = def.OTP.RateLimit.Window
	}
	if cfg.OTP.RateLimit.MaxRequests == 0 {
		cfg.OTP.RateLimit.MaxRequests = def.OTP.RateLimit.MaxRequests
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = def.Session.TTL
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = def.Session.KeyPrefix
	}
	return cfg
}

func validateConfig(cfg Config) error {
	switch cfg.Environment {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		return errors.New("invalid environment")
	}
	if cfg.OTP.CodeLength < 4 || cfg.OTP.CodeLength > 10 {
		return errors.New("otp code length must be between 4 and 10 digits")
	}
	if cfg.OTP.TTL < time.Second {
		return errors.New("otp ttl must be at least one second")
	}
	if cfg.OTP.MaxAttempts < 1 {
		return errors.New("otp max attempts must be positive")
	}
	if cfg.OTP.RateLimit.Window < time.Second {
		return errors.New("otp rate limit window must be at least one second")
	}
	if cfg.OTP.RateLimit.MaxRequests < 1 {
		return errors.New("otp rate limit max requests must be positive")
	}
	if cfg.Session.TTL < time.Second {
		return errors.New("session ttl must be at least one second")
	}
	return nil
}
