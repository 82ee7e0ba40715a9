package authkit

import (
	"context"
	"errors"

	"github.com/ravil-k/authkit/internal"
)

// GenerateEmailOTP issues a one-time code for the (normalized) email
// address and returns it. Delivery is the caller's responsibility; the
// engine never sends mail.
func (e *Engine) GenerateEmailOTP(ctx context.Context, email string) (string, error) {
	return e.generate(ctx, OTPTypeEmail, internal.NormalizeEmail(email))
}

// VerifyEmailOTP checks a submitted code against the outstanding record for
// the (normalized) email address. nil means the code matched and has been
// consumed.
func (e *Engine) VerifyEmailOTP(ctx context.Context, email, code string) error {
	return e.verify(ctx, OTPTypeEmail, internal.NormalizeEmail(email), code)
}

// GeneratePhoneOTP issues a one-time code for the (normalized) phone
// number and returns it.
func (e *Engine) GeneratePhoneOTP(ctx context.Context, phone string) (string, error) {
	return e.generate(ctx, OTPTypePhone, internal.NormalizePhone(phone))
}

// VerifyPhoneOTP checks a submitted code against the outstanding record for
// the (normalized) phone number.
func (e *Engine) VerifyPhoneOTP(ctx context.Context, phone, code string) error {
	return e.verify(ctx, OTPTypePhone, internal.NormalizePhone(phone), code)
}

func (e *Engine) generate(ctx context.Context, typ OTPType, identifier string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if identifier == "" {
		return "", ErrIdentifierInvalid
	}

	if err := e.limiter.Check(ctx, typ, identifier); err != nil {
		var detail *OTPError
		if errors.As(err, &detail) {
			e.logger.Warn("otp issuance rate limited",
				"type", string(typ),
				"retry_after_seconds", detail.RetryAfterSeconds,
			)
		}
		return "", err
	}

	code, err := e.issueCode()
	if err != nil {
		return "", err
	}

	if err := e.otp.Save(ctx, typ, identifier, code, e.config.OTP.TTL); err != nil {
		return "", err
	}

	e.logger.Debug("otp issued", "type", string(typ))
	return code, nil
}

// issueCode picks between a random code and the configured bypass code.
// The bypass is a development convenience and is never honored in
// production, even when configured.
func (e *Engine) issueCode() (string, error) {
	if e.config.OTP.BypassCode != "" && e.config.Environment != EnvProduction {
		return e.config.OTP.BypassCode, nil
	}
	return internal.NewOTP(e.config.OTP.CodeLength)
}

func (e *Engine) verify(ctx context.Context, typ OTPType, identifier, code string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if identifier == "" {
		return ErrIdentifierInvalid
	}

	err := e.otp.Verify(ctx, typ, identifier, code, e.config.OTP.MaxAttempts)
	if err != nil {
		e.logger.Debug("otp verification failed", "type", string(typ), "code", ErrorCode(err))
		return err
	}

	e.logger.Debug("otp verified", "type", string(typ))
	return nil
}
