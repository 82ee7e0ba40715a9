package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultLeeway  = 30 * time.Second
	defaultTimeout = 60 * time.Second

	maxRefreshTokenLength = 4096
)

var (
	// ErrNoTokens is returned when no token record exists; the caller must
	// authenticate.
	ErrNoTokens = errors.New("no stored tokens")
	// ErrRefreshTokenInvalid is returned when the stored refresh token
	// fails local shape validation. The local record is wiped first:
	// a malformed token cannot have come from the server.
	ErrRefreshTokenInvalid = errors.New("stored refresh token invalid")
	// ErrRefreshFailed wraps any refresh-endpoint failure. Refresh failure
	// is unrecoverable for the current session; the local record is wiped
	// before this is returned.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Config wires a Manager.
type Config struct {
	// Store persists the token record. Required.
	Store Store
	// RefreshURL is the server endpoint accepting {"refreshToken": ...}
	// and returning {"accessToken", "refreshToken", "expiresIn"}. Required.
	RefreshURL string
	// Leeway refreshes this long before the recorded expiry. Defaults to
	// 30 seconds.
	Leeway time.Duration
	// HTTPClient overrides the transport. Defaults to a 60-second-timeout
	// client.
	HTTPClient *http.Client
	// Logger defaults to silent.
	Logger *slog.Logger
}

// Manager owns the bearer-token pair for one client identity context.
// Safe for concurrent use; concurrent refreshes collapse into a single
// provider request whose outcome every caller shares.
type Manager struct {
	store      Store
	refreshURL string
	leeway     time.Duration
	http       *http.Client
	logger     *slog.Logger
	group      singleflight.Group
}

// NewManager validates the config and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("tokens: store is required")
	}
	if cfg.RefreshURL == "" {
		return nil, errors.New("tokens: refresh url is required")
	}
	if cfg.Leeway <= 0 {
		cfg.Leeway = defaultLeeway
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		store:      cfg.Store,
		refreshURL: cfg.RefreshURL,
		leeway:     cfg.Leeway,
		http:       cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// Tokens returns the stored record, or nil when none exists.
func (m *Manager) Tokens(ctx context.Context) (*Tokens, error) {
	return m.store.Load(ctx)
}

// Clear wipes the stored record.
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// AccessToken returns a currently valid access token, refreshing first
// when the recorded expiry is within the leeway. Returns "" with a nil
// error when no tokens are stored at all.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	stored, err := m.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if stored == nil {
		return "", nil
	}

	if time.Now().Before(stored.ExpiresAt.Add(-m.leeway)) {
		return stored.AccessToken, nil
	}

	refreshed, err := m.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Refresh rotates the token pair against the refresh endpoint. At most one
// refresh is in flight at a time: concurrent callers await that request
// and share its outcome instead of spending the refresh token twice. On
// any failure the stored record is wiped before the error is returned.
func (m *Manager) Refresh(ctx context.Context) (*Tokens, error) {
	result, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Tokens), nil
}

func (m *Manager) refresh(ctx context.Context) (*Tokens, error) {
	stored, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrNoTokens
	}

	if !validRefreshTokenShape(stored.RefreshToken) {
		m.wipe(ctx, "invalid refresh token shape")
		return nil, ErrRefreshTokenInvalid
	}

	next, err := m.callRefreshEndpoint(ctx, stored.RefreshToken)
	if err != nil {
		m.wipe(ctx, "refresh request failed")
		return nil, err
	}

	if err := m.store.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (m *Manager) callRefreshEndpoint(ctx context.Context, refreshToken string) (*Tokens, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.refreshURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int64  `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRefreshFailed, err)
	}
	// All three fields are mandatory; rotation is not optional.
	if payload.AccessToken == "" || payload.RefreshToken == "" || payload.ExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: incomplete response", ErrRefreshFailed)
	}

	return &Tokens{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

// Do sends the request with an Authorization bearer header, refreshing
// proactively. On a 401 it refreshes and retries exactly once; when that
// refresh itself fails, the original 401 response is returned so the
// caller can inspect it rather than a masking refresh error.
//
// Requests with a body must have GetBody set (http.NewRequest does this
// for the common body types) or the retry is skipped.
func (m *Manager) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := m.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	retry, ok := cloneForRetry(ctx, req)
	if !ok {
		return resp, nil
	}

	refreshed, refreshErr := m.Refresh(ctx)
	if refreshErr != nil {
		m.logger.Warn("retry refresh failed, returning original response", "err", refreshErr)
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	retry.Header.Set("Authorization", "Bearer "+refreshed.AccessToken)
	return m.http.Do(retry)
}

func cloneForRetry(ctx context.Context, req *http.Request) (*http.Request, bool) {
	retry := req.Clone(ctx)
	if req.Body == nil || req.GetBody == nil {
		return retry, req.Body == nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

func (m *Manager) wipe(ctx context.Context, reason string) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("failed to wipe local tokens", "reason", reason, "err", err)
		return
	}
	m.logger.Warn("wiped local tokens", "reason", reason)
}

func validRefreshTokenShape(token string) bool {
	if token == "" || len(token) > maxRefreshTokenLength {
		return false
	}
	return !strings.ContainsAny(token, " \t\r\n\v\f")
}
