package chat

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrConversationNotFound indicates an unknown conversation identifier.
	ErrConversationNotFound = errors.New("chat: conversation not found")
	// ErrEmptyMessage indicates a send with no text.
	ErrEmptyMessage = errors.New("chat: message text required")

	errMissingIDProvider = errors.New("chat: id provider is required")
)

// IDProvider issues identifiers for new messages.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig carries the chat service dependencies.
type ServiceConfig struct {
	IDProvider IDProvider
	Dispatcher *Dispatcher
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service holds the session's conversations and message sequences in
// memory, mirroring the store discipline of the feed: one mutator at a
// time, copied reads.
type Service struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messages      map[string][]Message
	idProvider    IDProvider
	dispatcher    *Dispatcher
	clock         func() time.Time
	logger        *zap.Logger
}

// NewService constructs the chat service with the seeded threads.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &Service{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]Message),
		idProvider:    cfg.IDProvider,
		dispatcher:    cfg.Dispatcher,
		clock:         clock,
		logger:        logger,
	}
	service.seed()
	return service, nil
}

// ListConversations returns the threads newest-first.
func (s *Service) ListConversations() []Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Conversation, 0, len(s.conversations))
	for _, conversation := range s.conversations {
		out = append(out, *conversation)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Messages returns the conversation's sequence in insertion order and
// clears its unread marker, matching the open-thread behavior.
func (s *Service) Messages(conversationID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conversation, ok := s.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	conversation.Unread = false
	return append([]Message(nil), s.messages[conversationID]...), nil
}

// Send appends a message to the conversation, updates its preview, and
// fans an event out to the participant.
func (s *Service) Send(conversationID, senderID, text string) (Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	conversation, ok := s.conversations[conversationID]
	if !ok {
		s.mu.Unlock()
		return Message{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	messageID, err := s.idProvider.NewID()
	if err != nil {
		s.mu.Unlock()
		return Message{}, err
	}
	message := Message{
		ID:        messageID,
		SenderID:  senderID,
		Text:      trimmed,
		CreatedAt: s.clock().UTC(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], message)
	conversation.LastMessage = trimmed
	conversation.Timestamp = message.CreatedAt
	participantID := conversation.Participant.ID
	s.mu.Unlock()

	if s.dispatcher != nil {
		s.dispatcher.Publish(Event{
			UserID:         participantID,
			EventType:      EventMessageSent,
			ConversationID: conversationID,
			Timestamp:      message.CreatedAt,
		})
	}
	return message, nil
}

// seed installs the starter threads shown before any real traffic exists.
func (s *Service) seed() {
	now := s.clock().UTC()
	s.conversations["c1"] = &Conversation{
		ID: "c1",
		Participant: Participant{
			ID:        "u2",
			Name:      "Sarah Jenkins",
			AvatarRef: "https://picsum.photos/seed/sarah/200/200",
		},
		LastMessage: "That photo you posted from the valley was incredible!",
		Timestamp:   now.Add(-5 * time.Minute),
		Unread:      true,
	}
	s.messages["c1"] = []Message{
		{ID: "c1-m1", SenderID: "u2", Text: "Hey there! How have you been?", CreatedAt: now.Add(-time.Hour)},
		{ID: "c1-m2", SenderID: "u1", Text: "Doing well! Just enjoying the weekend.", CreatedAt: now.Add(-45 * time.Minute)},
		{ID: "c1-m3", SenderID: "u2", Text: "That photo you posted from the valley was incredible!", CreatedAt: now.Add(-5 * time.Minute)},
	}

	s.conversations["c2"] = &Conversation{
		ID: "c2",
		Participant: Participant{
			ID:        "u3",
			Name:      "Marcus Thorne",
			AvatarRef: "https://picsum.photos/seed/marcus/200/200",
		},
		LastMessage: "Let's catch up soon. Maybe coffee next week?",
		Timestamp:   now.Add(-2 * time.Hour),
	}
	s.messages["c2"] = []Message{
		{ID: "c2-m1", SenderID: "u3", Text: "Let's catch up soon. Maybe coffee next week?", CreatedAt: now.Add(-2 * time.Hour)},
	}
}
