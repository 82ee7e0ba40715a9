package google

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingIDToken is returned when the token response carries no
	// id_token; the exchange cannot establish an identity without one.
	ErrMissingIDToken = errors.New("exchange response missing id token")
	// ErrInvalidPayload is returned when the provider's response fails to
	// decode or lacks required identity claims.
	ErrInvalidPayload = errors.New("invalid exchange payload")
)

// ScopeError reports that the granted scopes do not cover the required
// ones. The caller decides whether to re-prompt for consent.
type ScopeError struct {
	Missing []string
	Granted []string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("missing required scopes: %s", strings.Join(e.Missing, " "))
}

// ProviderError is a normalized transport/provider failure: the HTTP status
// plus, when the provider supplied them, its error code and description.
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error %q (status %d): %s", e.Code, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("provider error (status %d)", e.StatusCode)
}
