package authkit

import (
	"context"
	"fmt"

	"github.com/ravil-k/authkit/kv"
)

// otpLimiter bounds issuance per {type, identifier} with a fixed window:
// the counter's expiry is set only on the first increment of a window, so
// the window never slides on subsequent requests.
type otpLimiter struct {
	store  kv.Store
	config RateLimitConfig
}

func newOTPLimiter(store kv.Store, cfg RateLimitConfig) *otpLimiter {
	return &otpLimiter{store: store, config: cfg}
}

func otpRateKey(typ OTPType, identifier string) string {
	return otpRateKeyPrefix + string(typ) + ":" + identifier
}

func (l *otpLimiter) Check(ctx context.Context, typ OTPType, identifier string) error {
	key := otpRateKey(typ, identifier)

	count, err := l.store.Increment(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count == 1 {
		if _, err := l.store.Expire(ctx, key, l.config.Window); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	if count > int64(l.config.MaxRequests) {
		ttl, err := l.store.TTL(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		retryAfter := int(ttl)
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &OTPError{err: ErrOTPRateLimited, RetryAfterSeconds: retryAfter}
	}

	return nil
}
