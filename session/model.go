package session

import "encoding/json"

// Session is the onboarding record stored under a 64-hex-character id.
// Timestamps are Unix milliseconds.
type Session struct {
	Email          string        `json:"email"`
	EmailVerified  bool          `json:"emailVerified"`
	PhoneNumber    string        `json:"phoneNumber,omitempty"`
	PhoneVerified  bool          `json:"phoneVerified"`
	CreatedAt      int64         `json:"createdAt"`
	ExpiresAt      int64         `json:"expiresAt"`
	PendingOAuth   *PendingOAuth `json:"pendingOAuth,omitempty"`
	ExistingUserID string        `json:"existingUserId,omitempty"`
}

// PendingOAuth is a provider identity captured during sign-in that awaits
// an account-linking decision before any durable record is written.
type PendingOAuth struct {
	Provider      string          `json:"provider"`
	Subject       string          `json:"sub"`
	Email         string          `json:"email"`
	EmailVerified bool            `json:"emailVerified,omitempty"`
	RawData       json.RawMessage `json:"rawData,omitempty"`
	RefreshToken  string          `json:"refreshToken,omitempty"`
}
