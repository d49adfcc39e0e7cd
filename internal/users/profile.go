package users

import (
	"strings"
	"time"
)

// Profile is the locally cached snapshot of the session user. It is created
// at registration, fetched at session restore, and replaced wholesale on
// profile-edit. Stats are derived counts, not authoritative.
type Profile struct {
	UserID     string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	Name       string    `gorm:"column:name;size:320;not null"`
	AvatarRef  string    `gorm:"column:avatar_ref;size:512"`
	CoverRef   string    `gorm:"column:cover_ref;size:512"`
	Bio        string    `gorm:"column:bio;type:text"`
	Email      string    `gorm:"column:email;size:320"`
	Phone      string    `gorm:"column:phone;size:64"`
	DOB        string    `gorm:"column:dob;size:10"`
	Moments    int       `gorm:"column:stat_moments;not null;default:0"`
	Friends    int       `gorm:"column:stat_friends;not null;default:0"`
	LastActive time.Time `gorm:"column:last_active_at"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing cached profiles.
func (Profile) TableName() string {
	return "profiles"
}

// DateOfBirth parses the stored ISO date, returning the zero time when the
// field is absent or malformed.
func (p Profile) DateOfBirth() time.Time {
	raw := strings.TrimSpace(p.DOB)
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// normalize value helper used across service implementation.
func normalize(value string) string {
	return strings.TrimSpace(value)
}
