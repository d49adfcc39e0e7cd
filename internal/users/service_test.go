package users

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "profiles.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Profile{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return time.Unix(1700000000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func TestSaveAndGetProfile(t *testing.T) {
	service := newTestService(t)

	profile := Profile{
		UserID:    "u1",
		Name:      "Alex Rivera",
		AvatarRef: "avatar-u1",
		Bio:       "Capturing the quiet moments between the noise.",
		Email:     "alex@example.com",
		DOB:       "1990-06-14",
	}
	if err := service.Save(profile); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	stored, err := service.Get("u1")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if stored.Name != "Alex Rivera" || stored.Bio != profile.Bio {
		t.Fatalf("unexpected stored profile: %+v", stored)
	}
	if stored.LastActive.IsZero() {
		t.Fatalf("save should stamp last active")
	}
}

func TestSaveReplacesWholesale(t *testing.T) {
	service := newTestService(t)

	if err := service.Save(Profile{UserID: "u1", Name: "Alex Rivera", Bio: "old bio", Phone: "555-0100"}); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if err := service.Save(Profile{UserID: "u1", Name: "Alex R.", Bio: "new bio"}); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	stored, err := service.Get("u1")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if stored.Name != "Alex R." || stored.Bio != "new bio" {
		t.Fatalf("profile-edit must replace wholesale: %+v", stored)
	}
	if stored.Phone != "" {
		t.Fatalf("stale field survived wholesale replacement: %q", stored.Phone)
	}
}

func TestSaveRejectsInvalidProfile(t *testing.T) {
	service := newTestService(t)
	if err := service.Save(Profile{Name: "No ID"}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if err := service.Save(Profile{UserID: "u1"}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile for empty name, got %v", err)
	}
}

func TestGetUnknownProfile(t *testing.T) {
	service := newTestService(t)
	if _, err := service.Get("missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestTouchActivityBumpsMomentCount(t *testing.T) {
	service := newTestService(t)
	if err := service.Save(Profile{UserID: "u1", Name: "Alex Rivera"}); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	if err := service.TouchActivity("u1", true); err != nil {
		t.Fatalf("unexpected touch error: %v", err)
	}
	if err := service.TouchActivity("u1", false); err != nil {
		t.Fatalf("unexpected touch error: %v", err)
	}

	stored, err := service.Get("u1")
	if err != nil {
		t.Fatalf("unexpected get error: %v", err)
	}
	if stored.Moments != 1 {
		t.Fatalf("expected moment count 1, got %d", stored.Moments)
	}
}

func TestProfileDateOfBirth(t *testing.T) {
	tests := []struct {
		name string
		dob  string
		zero bool
	}{
		{name: "valid", dob: "1990-06-14", zero: false},
		{name: "empty", dob: "", zero: true},
		{name: "malformed", dob: "June 14", zero: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := Profile{DOB: tt.dob}
			got := profile.DateOfBirth()
			if got.IsZero() != tt.zero {
				t.Fatalf("DateOfBirth() = %v, zero expectation %v", got, tt.zero)
			}
		})
	}
}
