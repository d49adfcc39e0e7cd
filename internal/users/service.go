package users

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrProfileNotFound indicates no cached profile exists for the user.
	ErrProfileNotFound = errors.New("users: profile not found")
	// ErrInvalidProfile indicates the profile is missing required fields.
	ErrInvalidProfile = errors.New("users: invalid profile")
)

// ServiceConfig describes the dependencies for the profile cache.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages the device-local profile cache. The feed and screens read
// the session user from here; the hosted identity provider stays the source
// of truth for identity itself.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// NewService constructs the profile service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:  cfg.Database,
		now: clock,
	}, nil
}

// Save replaces the cached profile wholesale, per the profile-edit contract.
func (s *Service) Save(profile Profile) error {
	profile.UserID = normalize(profile.UserID)
	profile.Name = normalize(profile.Name)
	if profile.UserID == "" || profile.Name == "" {
		return ErrInvalidProfile
	}
	profile.LastActive = s.now()
	if err := s.db.Save(&profile).Error; err != nil {
		return err
	}
	s.cache.Store(profile.UserID, profile)
	return nil
}

// Get returns the cached profile for the user, if present.
func (s *Service) Get(userID string) (Profile, error) {
	userID = normalize(userID)
	if userID == "" {
		return Profile{}, ErrProfileNotFound
	}
	if cached, ok := s.cache.Load(userID); ok {
		if profile, ok := cached.(Profile); ok {
			return profile, nil
		}
	}

	var profile Profile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	s.cache.Store(userID, profile)
	return profile, nil
}

// TouchActivity bumps the last-active marker and, optionally, the derived
// moment count. Best-effort: callers ignore the error.
func (s *Service) TouchActivity(userID string, postedMoment bool) error {
	userID = normalize(userID)
	if userID == "" {
		return ErrProfileNotFound
	}
	updates := map[string]interface{}{"last_active_at": s.now()}
	if postedMoment {
		updates["stat_moments"] = gorm.Expr("stat_moments + 1")
	}
	if err := s.db.Model(&Profile{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return err
	}
	s.cache.Delete(userID)
	return nil
}
