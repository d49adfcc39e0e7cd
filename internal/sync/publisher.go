// Package sync implements the optimistic write policy for the moment feed:
// a post mutates the local store for immediate feedback and is persisted to
// the remote repository best-effort, falling back to a local-only moment
// when the write fails. There is no retry queue and no reconciliation.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/origincircle/origin/internal/feed"
	"go.uber.org/zap"
)

var (
	errMissingStore      = errors.New("feed store is required")
	errMissingRepository = errors.New("moment repository is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError carries an operation-scoped failure code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code exposes the machine-readable failure code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opPublisherNew = "sync.publisher.new"
	opPost         = "sync.post"
	opRefresh      = "sync.refresh"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// Repository is the remote moment store contract consumed by the policy.
type Repository interface {
	ListMoments(ctx context.Context) ([]feed.Moment, error)
	InsertMoment(ctx context.Context, m feed.Moment) error
}

// IDProvider issues identifiers for locally constructed records.
type IDProvider interface {
	NewID() (string, error)
}

// Draft holds the user-entered fields from the composer. A draft is not part
// of the store until Post runs.
type Draft struct {
	Kind          feed.Kind
	Body          string
	MediaRef      string
	LocationLabel string
}

// WakeBody is the canned content posted when the user taps the wake action;
// it skips the composer entirely.
const WakeBody = "Just woke up. Hello world! ☀️"

// State names the per-post outcome of the submission state machine.
type State string

const (
	// StateConfirmed means the remote write succeeded and the store was
	// refreshed from the repository.
	StateConfirmed State = "confirmed"
	// StateLocalFallback means the remote write failed and a synthetic
	// local-only moment was appended instead.
	StateLocalFallback State = "local_fallback"
)

// Outcome reports how a post settled and the moment now visible for it.
type Outcome struct {
	State  State
	Moment feed.Moment
}

// PublisherConfig carries the policy's dependencies.
type PublisherConfig struct {
	Store      *feed.Store
	Repository Repository
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Publisher runs the Drafting → Submitting → {Confirmed, LocalFallback}
// state machine and the pull-to-refresh read path.
type Publisher struct {
	store      *feed.Store
	repository Repository
	idProvider IDProvider
	clock      func() time.Time
	logger     *zap.Logger

	refreshGate chan struct{}
}

// NewPublisher validates dependencies and constructs the policy.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opPublisherNew, "missing_store", errMissingStore)
	}
	if cfg.Repository == nil {
		return nil, newServiceError(opPublisherNew, "missing_repository", errMissingRepository)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opPublisherNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	return &Publisher{
		store:       cfg.Store,
		repository:  cfg.Repository,
		idProvider:  cfg.IDProvider,
		clock:       clock,
		logger:      logger,
		refreshGate: gate,
	}, nil
}

// Post maps the draft to a repository record under the author snapshot and
// attempts the remote write. Success triggers a full refresh so the new
// moment carries the repository-assigned identifier and canonical timestamp;
// failure appends a local-only moment with a generated id and client
// timestamp. The transition is one-shot: a failed write is logged and never
// retried.
func (p *Publisher) Post(ctx context.Context, author feed.AuthorRef, draft Draft) (Outcome, error) {
	record := feed.Moment{
		Author:        author,
		Kind:          draft.Kind,
		Body:          draft.Body,
		MediaRef:      draft.MediaRef,
		LocationLabel: draft.LocationLabel,
		CreatedAt:     p.clock().UTC(),
		SyncStatus:    feed.SyncConfirmed,
	}
	if record.Kind == feed.KindWake && record.Body == "" {
		record.Body = WakeBody
	}
	if err := record.Validate(); err != nil {
		return Outcome{}, newServiceError(opPost, "invalid_draft", err)
	}

	if err := p.repository.InsertMoment(ctx, record); err != nil {
		p.logger.Warn("remote write failed, keeping moment local-only",
			zap.String("kind", string(record.Kind)),
			zap.Error(err))
		return p.fallback(record)
	}

	if err := p.Refresh(ctx); err != nil {
		// The write landed; a failed follow-up read must not block the post.
		p.logger.Warn("post-write refresh failed", zap.Error(err))
	}
	confirmed := p.findConfirmed(record)
	return Outcome{State: StateConfirmed, Moment: confirmed}, nil
}

// Refresh performs a full fetch-and-replace of the store. At most one
// refresh runs at a time; re-entrant triggers from the pull gesture return
// immediately. A refresh that loses the token race against a local append is
// discarded, not applied.
func (p *Publisher) Refresh(ctx context.Context) error {
	select {
	case <-p.refreshGate:
	default:
		return nil
	}
	defer func() { p.refreshGate <- struct{}{} }()

	token := p.store.BeginRefresh()
	moments, err := p.repository.ListMoments(ctx)
	if err != nil {
		// Read failures are invisible: substitute the placeholder feed
		// only when the store has nothing to show yet.
		p.logger.Warn("timeline fetch failed", zap.Error(err))
		if p.store.Len() == 0 {
			p.store.ReplaceAll(token, feed.PlaceholderMoments(p.clock().UTC()))
		}
		return nil
	}
	if len(moments) == 0 {
		if p.store.Len() == 0 {
			p.store.ReplaceAll(token, feed.PlaceholderMoments(p.clock().UTC()))
		}
		return nil
	}
	for i := range moments {
		moments[i].SyncStatus = feed.SyncConfirmed
	}
	if !p.store.ReplaceAll(token, moments) {
		p.logger.Debug("discarded stale refresh response")
	}
	return nil
}

// Refreshing reports whether a refresh is currently in flight.
func (p *Publisher) Refreshing() bool {
	return len(p.refreshGate) == 0
}

func (p *Publisher) fallback(record feed.Moment) (Outcome, error) {
	localID, err := p.idProvider.NewID()
	if err != nil {
		return Outcome{}, newServiceError(opPost, "id_generation_failed", err)
	}
	record.ID = localID
	record.SyncStatus = feed.SyncLocalOnly
	p.store.Append(record)
	return Outcome{State: StateLocalFallback, Moment: record}, nil
}

// findConfirmed locates the refreshed copy of the just-posted moment so the
// caller can surface the repository-assigned identifier. Falls back to the
// submitted record when the refresh raced or the repository reshaped it.
func (p *Publisher) findConfirmed(record feed.Moment) feed.Moment {
	for _, m := range p.store.Snapshot() {
		if m.Author.ID == record.Author.ID && m.Kind == record.Kind && m.Body == record.Body && m.MediaRef == record.MediaRef {
			return m
		}
	}
	return record
}
