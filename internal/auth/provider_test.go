package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	provider, err := NewProvider(ProviderConfig{
		BaseURL: server.URL,
		APIKey:  "anon-key",
	})
	if err != nil {
		t.Fatalf("unexpected provider error: %v", err)
	}
	return provider
}

func TestRegisterForwardsProfileFields(t *testing.T) {
	var received map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Fatalf("missing apikey header")
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"user": {"id": "provider-u1", "email": "alex@example.com"}}`))
	})

	userID, err := provider.Register(context.Background(), "alex@example.com", "secret", ProfileFields{
		FullName: "Alex Rivera",
		Phone:    "555-0100",
		DOB:      "1990-06-14",
	})
	if err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if userID != "provider-u1" {
		t.Fatalf("user id = %q", userID)
	}
	data, ok := received["data"].(map[string]any)
	if !ok {
		t.Fatalf("metadata missing from signup payload: %+v", received)
	}
	if data["full_name"] != "Alex Rivera" || data["dob"] != "1990-06-14" {
		t.Fatalf("profile fields lost: %+v", data)
	}
}

func TestRegisterSurfacesAuthError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := provider.Register(context.Background(), "alex@example.com", "secret", ProfileFields{})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestRegisterRequiresEmailAndPassword(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("provider must not be called for invalid input")
	})

	if _, err := provider.Register(context.Background(), "", "secret", ProfileFields{}); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth for empty email, got %v", err)
	}
	if _, err := provider.Register(context.Background(), "a@example.com", "", ProfileFields{}); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth for empty password, got %v", err)
	}
}

func TestCurrentSessionDerivesDisplayNameHint(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantHint string
	}{
		{
			name:     "full name from metadata",
			body:     `{"id": "u1", "email": "alex@example.com", "user_metadata": {"full_name": "Alex Rivera"}}`,
			wantHint: "Alex Rivera",
		},
		{
			name:     "email local part fallback",
			body:     `{"id": "u1", "email": "alex@example.com", "user_metadata": {}}`,
			wantHint: "alex",
		},
		{
			name:     "generic fallback",
			body:     `{"id": "u1", "user_metadata": {}}`,
			wantHint: "User",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/v1/user" {
					t.Fatalf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer access-token" {
					t.Fatalf("missing bearer token")
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})

			session, err := provider.CurrentSession(context.Background(), "access-token")
			if err != nil {
				t.Fatalf("unexpected session error: %v", err)
			}
			if session.UserID != "u1" {
				t.Fatalf("user id = %q", session.UserID)
			}
			if session.DisplayNameHint != tt.wantHint {
				t.Fatalf("hint = %q, want %q", session.DisplayNameHint, tt.wantHint)
			}
		})
	}
}

func TestCurrentSessionRejectsInvalidToken(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := provider.CurrentSession(context.Background(), "stale"); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if _, err := provider.CurrentSession(context.Background(), ""); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth for empty token, got %v", err)
	}
}
