package authkit

import "errors"

var (
	// ErrOTPRateLimited is returned when code issuance exceeds the
	// configured request window. Wrapped by *OTPError carrying RetryAfterSeconds.
	ErrOTPRateLimited = errors.New("otp rate limited")
	// ErrOTPNotFound is returned when no verifiable code exists for the
	// identifier. Absence, natural expiry and record corruption all
	// collapse into this error.
	ErrOTPNotFound = errors.New("otp not found")
	// ErrOTPInvalidCode is returned on a code mismatch. Wrapped by
	// *OTPError carrying AttemptsRemaining.
	ErrOTPInvalidCode = errors.New("invalid otp code")
	// ErrOTPMaxAttempts is returned once the attempt budget for a code is
	// exhausted; the caller must request a new code.
	ErrOTPMaxAttempts = errors.New("otp attempts exceeded")
	// ErrIdentifierInvalid is returned when an identifier normalizes to an
	// empty string.
	ErrIdentifierInvalid = errors.New("invalid identifier")
	// ErrStoreUnavailable wraps backend failures of the key-value store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is returned when the engine is used before Build
	// wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// OTPError decorates one of the OTP sentinel errors with the machine-readable
// detail surfaced on the wire.
type OTPError struct {
	err error

	// RetryAfterSeconds is set alongside ErrOTPRateLimited: seconds until
	// the issuance window resets (minimum 1).
	RetryAfterSeconds int

	// AttemptsRemaining is set alongside ErrOTPInvalidCode: verification
	// attempts left before the code is invalidated.
	AttemptsRemaining int
}

func (e *OTPError) Error() string { return e.err.Error() }

func (e *OTPError) Unwrap() error { return e.err }

// Code returns the stable machine-readable code for the wrapped failure.
func (e *OTPError) Code() string { return ErrorCode(e.err) }

// ErrorCode maps a failure returned by the engine to its stable wire code.
// Unrecognized errors map to "INTERNAL".
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrOTPRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrOTPInvalidCode):
		return "INVALID_CODE"
	case errors.Is(err, ErrOTPMaxAttempts):
		return "MAX_ATTEMPTS"
	case errors.Is(err, ErrOTPNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrIdentifierInvalid):
		return "INVALID_IDENTIFIER"
	default:
		return "INTERNAL"
	}
}

// ErrorMessage returns the human-readable message paired with an engine
// failure. Internal detail (key names, backend errors) is never included.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrOTPRateLimited):
		return "Too many OTP requests. Please wait before trying again."
	case errors.Is(err, ErrOTPInvalidCode):
		return "Invalid code. Please try again."
	case errors.Is(err, ErrOTPMaxAttempts):
		return "Maximum verification attempts exceeded. Please request a new code."
	case errors.Is(err, ErrOTPNotFound):
		return "No OTP found. Please request a new code."
	case errors.Is(err, ErrIdentifierInvalid):
		return "Invalid identifier."
	default:
		return "Internal error."
	}
}
