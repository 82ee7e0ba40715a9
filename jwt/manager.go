// Package jwt mints and verifies the access/refresh token pair an
// application server hands out once onboarding completes. The pair is the
// server peer of the client-side tokens.Manager: short-lived access token,
// longer-lived refresh token, rotation on every refresh.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type claim values.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	// ErrTokenInvalid covers malformed, mis-signed, expired and
	// wrong-type tokens.
	ErrTokenInvalid = errors.New("invalid token")
)

// Config tunes a Manager. HS256 with a shared secret.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims carried by both token types.
type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager mints and verifies token pairs. Immutable after construction.
type Manager struct {
	config Config
}

// NewManager validates the config and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("jwt: secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: token ttls must be positive")
	}
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, errors.New("jwt: refresh ttl must exceed access ttl")
	}
	return &Manager{config: cfg}, nil
}

// Pair is a freshly minted token pair. ExpiresIn is the access token's
// lifetime in seconds, as served on the refresh wire contract.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// MintPair issues a new access/refresh pair for the user.
func (m *Manager) MintPair(userID string) (*Pair, error) {
	if userID == "" {
		return nil, errors.New("jwt: user id is required")
	}

	access, err := m.mint(userID, TypeAccess, m.config.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.mint(userID, TypeRefresh, m.config.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.config.AccessTTL / time.Second),
	}, nil
}

// VerifyAccess parses and validates an access token.
func (m *Manager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, TypeAccess)
}

// VerifyRefresh parses and validates a refresh token.
func (m *Manager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, TypeRefresh)
}

func (m *Manager) mint(userID, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

func (m *Manager) verify(token, wantType string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.config.Secret, nil
	}, jwt.WithIssuer(m.config.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != wantType || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
