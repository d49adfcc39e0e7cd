package feed

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ChangeKind describes what mutated the store.
type ChangeKind string

const (
	ChangeAppended  ChangeKind = "appended"
	ChangeReplaced  ChangeKind = "replaced"
	ChangeReacted   ChangeKind = "reacted"
	ChangeCommented ChangeKind = "commented"
)

// ChangeEvent notifies subscribers that the feed contents changed.
type ChangeEvent struct {
	Kind      ChangeKind
	MomentID  string
	Timestamp time.Time
}

// RefreshToken captures the store's write sequence at the start of a refresh.
// A ReplaceAll carrying a token older than a later local write is discarded,
// so a stale refresh response cannot overwrite a newer optimistic append.
type RefreshToken struct {
	seq int64
}

const subscriberBufferSize = 16

// Store owns the authoritative in-memory moment sequence for the session.
// All mutation happens under a single mutex; readers receive deep-copied
// snapshots and cannot alter store-owned entries.
type Store struct {
	mu          sync.RWMutex
	moments     []Moment
	writeSeq    int64
	clock       func() time.Time
	subscribers map[int64]chan ChangeEvent
	nextSubID   int64
}

// StoreConfig carries optional dependencies for the store.
type StoreConfig struct {
	Clock func() time.Time
}

// NewStore constructs an empty feed store.
func NewStore(cfg StoreConfig) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		clock:       clock,
		subscribers: make(map[int64]chan ChangeEvent),
	}
}

// Append inserts the moment at the head of the sequence without resorting.
// Both remote-confirmed and local-fallback moments arrive through here.
func (s *Store) Append(m Moment) {
	s.mu.Lock()
	s.moments = append([]Moment{m.clone()}, s.moments...)
	s.writeSeq++
	s.mu.Unlock()
	s.publish(ChangeEvent{Kind: ChangeAppended, MomentID: m.ID, Timestamp: s.clock()})
}

// BeginRefresh returns a token bound to the current write sequence. The
// caller passes it back to ReplaceAll once the remote fetch completes.
func (s *Store) BeginRefresh() RefreshToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RefreshToken{seq: s.writeSeq}
}

// ReplaceAll swaps in the full remote result, sorted by CreatedAt descending.
// No merge with pre-existing local-only entries is performed: a local
// fallback absent from the argument disappears. Returns false and leaves the
// store untouched when the token is stale, meaning a local write landed after
// the refresh started.
func (s *Store) ReplaceAll(token RefreshToken, moments []Moment) bool {
	s.mu.Lock()
	if token.seq != s.writeSeq {
		s.mu.Unlock()
		return false
	}
	replacement := make([]Moment, len(moments))
	for i, m := range moments {
		replacement[i] = m.clone()
	}
	sort.SliceStable(replacement, func(i, j int) bool {
		return replacement[i].CreatedAt.After(replacement[j].CreatedAt)
	})
	s.moments = replacement
	s.writeSeq++
	s.mu.Unlock()
	s.publish(ChangeEvent{Kind: ChangeReplaced, Timestamp: s.clock()})
	return true
}

// ApplyReaction folds one reaction event into the identified moment.
// Unknown moment identifiers are a silent no-op: the UI must tolerate stale
// references after a refresh removed the moment.
func (s *Store) ApplyReaction(momentID string, kind string, label string, actingUserID string) bool {
	s.mu.Lock()
	index := s.indexOf(momentID)
	if index < 0 {
		s.mu.Unlock()
		return false
	}
	applied := applyReaction(&s.moments[index], kind, label, actingUserID)
	if applied {
		s.writeSeq++
	}
	s.mu.Unlock()
	if applied {
		s.publish(ChangeEvent{Kind: ChangeReacted, MomentID: momentID, Timestamp: s.clock()})
	}
	return applied
}

// AppendComment appends to the moment's comment sequence. Silent no-op when
// the moment id is unknown.
func (s *Store) AppendComment(momentID string, c Comment) bool {
	s.mu.Lock()
	index := s.indexOf(momentID)
	if index < 0 {
		s.mu.Unlock()
		return false
	}
	s.moments[index].Comments = append(s.moments[index].Comments, c)
	s.writeSeq++
	s.mu.Unlock()
	s.publish(ChangeEvent{Kind: ChangeCommented, MomentID: momentID, Timestamp: s.clock()})
	return true
}

// Snapshot returns a deep copy of the current sequence, newest first.
func (s *Store) Snapshot() []Moment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Moment, len(s.moments))
	for i, m := range s.moments {
		out[i] = m.clone()
	}
	return out
}

// Get returns a copy of the identified moment, if present.
func (s *Store) Get(momentID string) (Moment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index := s.indexOf(momentID)
	if index < 0 {
		return Moment{}, false
	}
	return s.moments[index].clone(), true
}

// Len reports the number of moments currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.moments)
}

// Subscribe registers for change events until the context is cancelled.
// Slow subscribers drop events rather than block mutators.
func (s *Store) Subscribe(ctx context.Context) (<-chan ChangeEvent, func()) {
	stream := make(chan ChangeEvent, subscriberBufferSize)
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = stream
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return stream, cancel
}

func (s *Store) publish(event ChangeEvent) {
	s.mu.RLock()
	streams := make([]chan ChangeEvent, 0, len(s.subscribers))
	for _, stream := range s.subscribers {
		streams = append(streams, stream)
	}
	s.mu.RUnlock()
	for _, stream := range streams {
		select {
		case stream <- event:
		default:
		}
	}
}

// indexOf must be called with the mutex held.
func (s *Store) indexOf(momentID string) int {
	for i := range s.moments {
		if s.moments[i].ID == momentID {
			return i
		}
	}
	return -1
}
