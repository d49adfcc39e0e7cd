// Package auth covers the two identity concerns of the client: talking to
// the hosted identity provider (registration, session restore) and issuing
// plus validating the app's own session tokens.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrAuth is the sentinel wrapped by provider failures. Unlike repository
// errors, auth failures surface to the user as blocking messages.
var ErrAuth = errors.New("auth: provider error")

var (
	errMissingProviderURL = errors.New("auth: provider url required")
	errMissingProviderKey = errors.New("auth: provider api key required")
	errMissingEmail       = errors.New("auth: email required")
	errMissingPassword    = errors.New("auth: password required")
)

const providerTimeout = 10 * time.Second

// Session is the identity snapshot returned by the provider.
type Session struct {
	UserID          string
	Email           string
	DisplayNameHint string
}

// ProfileFields carries the registration metadata forwarded to the provider.
type ProfileFields struct {
	FullName string
	Phone    string
	DOB      string
}

// ProviderConfig configures the hosted identity provider client.
type ProviderConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Provider is the HTTP client for the hosted identity endpoints.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewProvider validates configuration and constructs the client.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingProviderURL
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingProviderKey
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: providerTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type signupRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

type signupResponse struct {
	ID   string `json:"id"`
	User struct {
		ID       string         `json:"id"`
		Email    string         `json:"email"`
		Metadata map[string]any `json:"user_metadata"`
	} `json:"user"`
}

// Register creates an account with the provider and returns the assigned
// user identifier.
func (p *Provider) Register(ctx context.Context, email, password string, fields ProfileFields) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", fmt.Errorf("%w: %v", ErrAuth, errMissingEmail)
	}
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("%w: %v", ErrAuth, errMissingPassword)
	}

	payload := signupRequest{
		Email:    email,
		Password: password,
		Data: map[string]any{
			"full_name": fields.FullName,
			"phone":     fields.Phone,
			"dob":       fields.DOB,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", ErrAuth, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/v1/signup", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	p.setHeaders(request)
	request.Header.Set("Content-Type", "application/json")

	response, err := p.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		p.logger.Warn("registration rejected", zap.Int("status", response.StatusCode))
		return "", fmt.Errorf("%w: signup status %d", ErrAuth, response.StatusCode)
	}

	var parsed signupResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrAuth, err)
	}
	userID := parsed.User.ID
	if userID == "" {
		userID = parsed.ID
	}
	if userID == "" {
		return "", fmt.Errorf("%w: provider returned no user id", ErrAuth)
	}
	return userID, nil
}

type currentUserResponse struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// CurrentSession restores the identity bound to an existing provider access
// token. The display name hint falls back to the email local part when the
// provider holds no full name, matching the client's restore behavior.
func (p *Provider) CurrentSession(ctx context.Context, accessToken string) (Session, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return Session{}, fmt.Errorf("%w: access token required", ErrAuth)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	p.setHeaders(request)
	request.Header.Set("Authorization", "Bearer "+token)

	response, err := p.httpClient.Do(request)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return Session{}, fmt.Errorf("%w: session status %d", ErrAuth, response.StatusCode)
	}

	var parsed currentUserResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return Session{}, fmt.Errorf("%w: decode: %v", ErrAuth, err)
	}
	if parsed.ID == "" {
		return Session{}, fmt.Errorf("%w: provider returned no user id", ErrAuth)
	}

	hint := ""
	if name, ok := parsed.Metadata["full_name"].(string); ok {
		hint = strings.TrimSpace(name)
	}
	if hint == "" && parsed.Email != "" {
		hint = strings.SplitN(parsed.Email, "@", 2)[0]
	}
	if hint == "" {
		hint = "User"
	}

	return Session{
		UserID:          parsed.ID,
		Email:           parsed.Email,
		DisplayNameHint: hint,
	}, nil
}

func (p *Provider) setHeaders(request *http.Request) {
	request.Header.Set("apikey", p.apiKey)
	request.Header.Set("Accept", "application/json")
}
