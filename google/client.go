package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultRevokeURL   = "https://oauth2.googleapis.com/revoke"

	defaultTimeout = 10 * time.Second
)

// Config describes a Google OAuth application. The URL fields override the
// provider endpoints; they exist for tests and leave-blank is the norm.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	TokenURL    string
	UserInfoURL string
	RevokeURL   string

	// Timeout bounds each outbound call. Defaults to 10 seconds.
	Timeout time.Duration

	// HTTPClient overrides the transport used for every call.
	HTTPClient *http.Client
}

// UserInfo is the identity established by an exchange.
type UserInfo struct {
	Subject       string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
	// Raw carries the full userinfo payload for callers that need
	// provider-specific claims. Never persisted by this package.
	Raw map[string]any
}

// ExchangeData is the transient result of a successful code exchange.
type ExchangeData struct {
	User          UserInfo
	IDToken       string
	AccessToken   string
	RefreshToken  string
	Scope         string
	GrantedScopes []string
}

// Client exchanges authorization codes and revokes tokens. Construct once
// and share; it is stateless and safe for concurrent use.
type Client struct {
	conf        *oauth2.Config
	http        *http.Client
	userInfoURL string
	revokeURL   string
	timeout     time.Duration
}

// NewClient builds a Client from the given application config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google: client id and secret are required")
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}
	revokeURL := cfg.RevokeURL
	if revokeURL == "" {
		revokeURL = defaultRevokeURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		http:        httpClient,
		userInfoURL: userInfoURL,
		revokeURL:   revokeURL,
		timeout:     timeout,
	}, nil
}

// ExchangeAuthCode turns a one-time authorization code into identity claims
// and tokens. When requiredScopes is non-empty, the granted scopes must
// cover every entry or a *ScopeError is returned. Provider failures are
// normalized into *ProviderError; no retry is attempted.
func (c *Client) ExchangeAuthCode(ctx context.Context, authCode string, requiredScopes ...string) (*ExchangeData, error) {
	if authCode == "" {
		return nil, fmt.Errorf("%w: empty authorization code", ErrInvalidPayload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	token, err := c.conf.Exchange(ctx, authCode)
	if err != nil {
		return nil, normalizeProviderError(err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, ErrMissingIDToken
	}

	scope, _ := token.Extra("scope").(string)
	granted := strings.Fields(scope)

	if missing := missingScopes(requiredScopes, granted); len(missing) > 0 {
		return nil, &ScopeError{Missing: missing, Granted: granted}
	}

	user, err := c.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &ExchangeData{
		User:          *user,
		IDToken:       idToken,
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
		Scope:         scope,
		GrantedScopes: granted,
	}, nil
}

// Revoke invalidates an access or refresh token at the provider.
func (c *Client) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidPayload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &ProviderError{
			StatusCode:  resp.StatusCode,
			Code:        body.Error,
			Description: body.ErrorDescription,
		}
	}
	return nil
}

func (c *Client) fetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{StatusCode: resp.StatusCode}
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	sub, _ := raw["sub"].(string)
	email, _ := raw["email"].(string)
	if sub == "" || email == "" {
		return nil, fmt.Errorf("%w: userinfo missing sub or email", ErrInvalidPayload)
	}

	verified, _ := raw["email_verified"].(bool)
	given, _ := raw["given_name"].(string)
	family, _ := raw["family_name"].(string)

	return &UserInfo{
		Subject:       sub,
		Email:         email,
		EmailVerified: verified,
		GivenName:     given,
		FamilyName:    family,
		Raw:           raw,
	}, nil
}

func missingScopes(required, granted []string) []string {
	if len(required) == 0 {
		return nil
	}
	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}
	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// normalizeProviderError flattens the oauth2 package's retrieval error into
// the package's typed form, keeping the provider code and description when
// present.
func normalizeProviderError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		pe := &ProviderError{
			Code:        re.ErrorCode,
			Description: re.ErrorDescription,
		}
		if re.Response != nil {
			pe.StatusCode = re.Response.StatusCode
		}
		return pe
	}
	return err
}
