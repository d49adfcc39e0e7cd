package chat

import "time"

// Participant is the denormalized snapshot of the other party in a
// conversation.
type Participant struct {
	ID        string
	Name      string
	AvatarRef string
}

// Conversation is one direct-message thread with a single participant.
type Conversation struct {
	ID          string
	Participant Participant
	LastMessage string
	Timestamp   time.Time
	Unread      bool
}

// Message is an immutable entry in a conversation's append-only sequence.
type Message struct {
	ID        string
	SenderID  string
	Text      string
	CreatedAt time.Time
}
