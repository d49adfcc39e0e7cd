// Package notify keeps the session's notification list: reactions and
// comments on the user's moments, circle requests, and the birthday badge.
package notify

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Kind enumerates notification categories.
type Kind string

const (
	KindReaction      Kind = "reaction"
	KindComment       Kind = "comment"
	KindFriendRequest Kind = "friend_request"
	KindBirthday      Kind = "birthday"
)

// Notification is one entry in the notifications screen.
type Notification struct {
	ID          string
	Kind        Kind
	ActorID     string
	ActorName   string
	ActorAvatar string
	Content     string
	CreatedAt   time.Time
	Read        bool
	TargetID    string
}

var errMissingIDProvider = errors.New("notify: id provider is required")

// IDProvider issues identifiers for new notifications.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig carries the notification service dependencies.
type ServiceConfig struct {
	IDProvider IDProvider
	Clock      func() time.Time
}

// Service holds notifications in memory for the session.
type Service struct {
	mu            sync.RWMutex
	notifications []Notification
	idProvider    IDProvider
	clock         func() time.Time
}

// NewService constructs the service with the seeded entries.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	service := &Service{
		idProvider: cfg.IDProvider,
		clock:      clock,
	}
	service.seed()
	return service, nil
}

// Record appends a notification for an action against the user's content.
func (s *Service) Record(kind Kind, actorID, actorName, actorAvatar, content, targetID string) (Notification, error) {
	id, err := s.idProvider.NewID()
	if err != nil {
		return Notification{}, err
	}
	notification := Notification{
		ID:          id,
		Kind:        kind,
		ActorID:     actorID,
		ActorName:   actorName,
		ActorAvatar: actorAvatar,
		Content:     content,
		CreatedAt:   s.clock().UTC(),
		TargetID:    targetID,
	}
	s.mu.Lock()
	s.notifications = append(s.notifications, notification)
	s.mu.Unlock()
	return notification, nil
}

// List returns notifications newest-first.
func (s *Service) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Notification(nil), s.notifications...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UnreadCount reports how many notifications are unread.
func (s *Service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, notification := range s.notifications {
		if !notification.Read {
			count++
		}
	}
	return count
}

// MarkAllRead flips every notification to read.
func (s *Service) MarkAllRead() {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.mu.Unlock()
}

// seed installs the starter entries shown before any real activity exists.
func (s *Service) seed() {
	now := s.clock().UTC()
	s.notifications = []Notification{
		{
			ID:          "n1",
			Kind:        KindReaction,
			ActorID:     "u2",
			ActorName:   "Sarah Jenkins",
			ActorAvatar: "https://picsum.photos/seed/sarah/200/200",
			Content:     "loved your photo.",
			CreatedAt:   now.Add(-15 * time.Minute),
			TargetID:    "seed-1",
		},
		{
			ID:          "n2",
			Kind:        KindComment,
			ActorID:     "u3",
			ActorName:   "Marcus Thorne",
			ActorAvatar: "https://picsum.photos/seed/marcus/200/200",
			Content:     `commented: "Incredible view! Wish I was there."`,
			CreatedAt:   now.Add(-2 * time.Hour),
			Read:        true,
			TargetID:    "seed-1",
		},
		{
			ID:          "n3",
			Kind:        KindFriendRequest,
			ActorID:     "u4",
			ActorName:   "Emily Chen",
			ActorAvatar: "https://picsum.photos/seed/emily/200/200",
			Content:     "wants to join your circle.",
			CreatedAt:   now.Add(-5 * time.Hour),
			Read:        true,
		},
	}
}
