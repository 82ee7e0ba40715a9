package authkit

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ravil-k/authkit/kv"
)

const (
	otpEmailKeyPrefix = "otp:email:"
	otpPhoneKeyPrefix = "otp:phone:"
	otpRateKeyPrefix  = "rate:otp:"
)

// storedOTP is the JSON record kept under {otp:<type>:}{identifier}. The
// record owns the attempt count; the store's TTL owns the lifetime.
type storedOTP struct {
	Code      string `json:"code"`
	Attempts  int    `json:"attempts"`
	CreatedAt int64  `json:"createdAt"`
}

type otpStore struct {
	store  kv.Store
	logger *slog.Logger
}

func newOTPStore(store kv.Store, logger *slog.Logger) *otpStore {
	return &otpStore{store: store, logger: logger}
}

func otpKey(typ OTPType, identifier string) string {
	if typ == OTPTypePhone {
		return otpPhoneKeyPrefix + identifier
	}
	return otpEmailKeyPrefix + identifier
}

// Save writes a fresh record for the identifier, replacing any outstanding
// code, with attempts reset to zero and the full TTL.
func (s *otpStore) Save(ctx context.Context, typ OTPType, identifier, code string, ttl time.Duration) error {
	record := storedOTP{
		Code:      code,
		Attempts:  0,
		CreatedAt: time.Now().UnixMilli(),
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.store.SetWithExpiry(ctx, otpKey(typ, identifier), ttl, string(encoded)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Verify runs the verification state machine for one submitted code.
//
// The attempt increment is persisted before the codes are compared, so a
// crash or a racing call cannot grant extra guesses, and the record is
// rewritten with its remaining TTL so attempts never extend a code's
// lifetime. Absent, expired and corrupt records are indistinguishable to
// the caller: all return ErrOTPNotFound and leave the key deleted.
func (s *otpStore) Verify(ctx context.Context, typ OTPType, identifier, submitted string, maxAttempts int) error {
	key := otpKey(typ, identifier)

	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var record storedOTP
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.Code == "" {
		s.deleteQuiet(ctx, key)
		s.logger.Warn("deleted corrupt otp record", "type", string(typ))
		return ErrOTPNotFound
	}

	if record.Attempts >= maxAttempts {
		s.deleteQuiet(ctx, key)
		return ErrOTPMaxAttempts
	}

	ttl, err := s.store.TTL(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ttl <= 0 {
		// Raced with expiry between the read and here.
		s.deleteQuiet(ctx, key)
		return ErrOTPNotFound
	}

	record.Attempts++
	updated, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.store.SetWithExpiry(ctx, key, time.Duration(ttl)*time.Second, string(updated)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(submitted)) != 1 {
		return &OTPError{
			err:               ErrOTPInvalidCode,
			AttemptsRemaining: maxAttempts - record.Attempts,
		}
	}

	// One-time use: the key must be gone before success is reported.
	if _, err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *otpStore) deleteQuiet(ctx context.Context, key string) {
	if _, err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("otp cleanup delete failed", "err", err)
	}
}
