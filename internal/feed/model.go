package feed

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind enumerates the fixed moment kinds a user can post.
type Kind string

const (
	KindThought    Kind = "thought"
	KindPhoto      Kind = "photo"
	KindMusic      Kind = "music"
	KindLocation   Kind = "location"
	KindSleep      Kind = "sleep"
	KindWake       Kind = "wake"
	KindVideo      Kind = "video"
	KindAttachment Kind = "attachment"
)

// SyncStatus tags whether a moment is backed by the remote repository or
// exists only in this client's memory after a failed write.
type SyncStatus string

const (
	// SyncConfirmed marks a moment fetched from or acknowledged by the
	// remote repository.
	SyncConfirmed SyncStatus = "confirmed"
	// SyncLocalOnly marks a moment appended after a failed remote write.
	// It is visible but not durable and is never reconciled.
	SyncLocalOnly SyncStatus = "local-only"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidMomentID indicates an empty or oversized moment identifier.
	ErrInvalidMomentID = errors.New("feed: invalid moment id")
	// ErrInvalidUserID indicates an empty or oversized user identifier.
	ErrInvalidUserID = errors.New("feed: invalid user id")
	// ErrUnknownKind indicates a moment kind outside the fixed set.
	ErrUnknownKind = errors.New("feed: unknown moment kind")
	// ErrEmptyBody indicates a moment with no body and no media or location.
	ErrEmptyBody = errors.New("feed: body required without media or location")
	// ErrEmptyCommentText indicates a comment with no text.
	ErrEmptyCommentText = errors.New("feed: comment text required")
)

// ParseKind validates raw input against the fixed kind set.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindThought:
		return KindThought, nil
	case KindPhoto:
		return KindPhoto, nil
	case KindMusic:
		return KindMusic, nil
	case KindLocation:
		return KindLocation, nil
	case KindSleep:
		return KindSleep, nil
	case KindWake:
		return KindWake, nil
	case KindVideo:
		return KindVideo, nil
	case KindAttachment:
		return KindAttachment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
}

// MomentID represents a validated moment identifier.
type MomentID string

// NewMomentID validates raw input and returns a MomentID.
func NewMomentID(raw string) (MomentID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidMomentID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidMomentID, maxIdentifierLength)
	}
	return MomentID(trimmed), nil
}

// String returns the underlying string identifier.
func (id MomentID) String() string {
	return string(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// AuthorRef is the denormalized author snapshot captured at post time.
// It is not live-updated when the author later edits their profile.
type AuthorRef struct {
	ID        string
	Name      string
	AvatarRef string
}

// Reaction is the per-kind aggregate tally on a moment, not a per-user event.
// Count always equals the number of distinct users in UserIDs.
type Reaction struct {
	Kind         string
	DisplayLabel string
	Count        int
	UserIDs      map[string]struct{}
}

// Users returns the contributing user identifiers in unspecified order.
func (r Reaction) Users() []string {
	users := make([]string, 0, len(r.UserIDs))
	for id := range r.UserIDs {
		users = append(users, id)
	}
	return users
}

// Comment is an immutable entry in a moment's append-only comment sequence.
type Comment struct {
	ID        string
	Author    AuthorRef
	Text      string
	CreatedAt time.Time
}

// Moment is one posted timeline entry.
type Moment struct {
	ID            string
	Author        AuthorRef
	Kind          Kind
	Body          string
	MediaRef      string
	LocationLabel string
	CreatedAt     time.Time
	Reactions     []Reaction
	Comments      []Comment
	SyncStatus    SyncStatus
}

// Validate enforces the moment content invariant: a body may be empty only
// when media or a location label is present.
func (m Moment) Validate() error {
	if _, err := ParseKind(string(m.Kind)); err != nil {
		return err
	}
	if strings.TrimSpace(m.Body) == "" && m.MediaRef == "" && m.LocationLabel == "" {
		return ErrEmptyBody
	}
	return nil
}

// clone produces a deep copy so snapshots cannot alias store-owned state.
func (m Moment) clone() Moment {
	out := m
	out.Reactions = make([]Reaction, len(m.Reactions))
	for i, reaction := range m.Reactions {
		users := make(map[string]struct{}, len(reaction.UserIDs))
		for id := range reaction.UserIDs {
			users[id] = struct{}{}
		}
		copied := reaction
		copied.UserIDs = users
		out.Reactions[i] = copied
	}
	out.Comments = append([]Comment(nil), m.Comments...)
	return out
}
