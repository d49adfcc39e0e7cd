package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/origincircle/origin/internal/feed"
)

type fakeRepository struct {
	moments    []feed.Moment
	insertErr  error
	listErr    error
	insertions int
	listings   int
}

func (f *fakeRepository) ListMoments(ctx context.Context) ([]feed.Moment, error) {
	f.listings++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]feed.Moment(nil), f.moments...), nil
}

func (f *fakeRepository) InsertMoment(ctx context.Context, m feed.Moment) error {
	f.insertions++
	if f.insertErr != nil {
		return f.insertErr
	}
	stored := m
	stored.ID = fmt.Sprintf("remote-%d", f.insertions)
	f.moments = append(f.moments, stored)
	return nil
}

type fixedIDProvider struct {
	id string
}

func (p fixedIDProvider) NewID() (string, error) {
	return p.id, nil
}

func newTestPublisher(t *testing.T, repo Repository) (*Publisher, *feed.Store) {
	t.Helper()
	store := feed.NewStore(feed.StoreConfig{})
	publisher, err := NewPublisher(PublisherConfig{
		Store:      store,
		Repository: repo,
		IDProvider: fixedIDProvider{id: "local-1"},
		Clock:      func() time.Time { return time.Unix(1700000000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("unexpected publisher error: %v", err)
	}
	return publisher, store
}

func testAuthor() feed.AuthorRef {
	return feed.AuthorRef{ID: "u1", Name: "Alex Rivera", AvatarRef: "avatar-u1"}
}

func TestPostConfirmedRefreshesFromRepository(t *testing.T) {
	repo := &fakeRepository{}
	publisher, store := newTestPublisher(t, repo)

	outcome, err := publisher.Post(context.Background(), testAuthor(), Draft{
		Kind: feed.KindThought,
		Body: "Hello",
	})
	if err != nil {
		t.Fatalf("unexpected post error: %v", err)
	}
	if outcome.State != StateConfirmed {
		t.Fatalf("expected confirmed outcome, got %s", outcome.State)
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected one moment in store, got %d", len(snapshot))
	}
	m := snapshot[0]
	if m.Body != "Hello" || m.Kind != feed.KindThought {
		t.Fatalf("unexpected moment content: %+v", m)
	}
	if m.ID != "remote-1" {
		t.Fatalf("expected repository-assigned id, got %q", m.ID)
	}
	if len(m.Reactions) != 0 || len(m.Comments) != 0 {
		t.Fatalf("new moment should carry empty reactions and comments")
	}
	if m.SyncStatus != feed.SyncConfirmed {
		t.Fatalf("expected confirmed sync status, got %s", m.SyncStatus)
	}
	if outcome.Moment.ID != "remote-1" {
		t.Fatalf("outcome should surface the repository id, got %q", outcome.Moment.ID)
	}
}

func TestPostFallbackOnRepositoryError(t *testing.T) {
	repo := &fakeRepository{insertErr: errors.New("relation \"moments\" does not exist")}
	publisher, store := newTestPublisher(t, repo)

	outcome, err := publisher.Post(context.Background(), testAuthor(), Draft{
		Kind:     feed.KindPhoto,
		MediaRef: "img1",
	})
	if err != nil {
		t.Fatalf("fallback path must not surface an error: %v", err)
	}
	if outcome.State != StateLocalFallback {
		t.Fatalf("expected local fallback, got %s", outcome.State)
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected exactly one new entry, got %d", len(snapshot))
	}
	m := snapshot[0]
	if m.ID != "local-1" {
		t.Fatalf("expected locally assigned id, got %q", m.ID)
	}
	if m.MediaRef != "img1" {
		t.Fatalf("submitted content lost: %+v", m)
	}
	if m.SyncStatus != feed.SyncLocalOnly {
		t.Fatalf("fallback moment must be tagged local-only")
	}
	if repo.insertions != 1 {
		t.Fatalf("write must not be retried, saw %d attempts", repo.insertions)
	}
}

func TestFallbackMomentNotDuplicatedByLaterRefresh(t *testing.T) {
	repo := &fakeRepository{insertErr: errors.New("network down")}
	publisher, store := newTestPublisher(t, repo)

	if _, err := publisher.Post(context.Background(), testAuthor(), Draft{
		Kind:     feed.KindPhoto,
		MediaRef: "img1",
	}); err != nil {
		t.Fatalf("unexpected post error: %v", err)
	}

	// An unrelated refresh succeeds later with remote content.
	repo.insertErr = nil
	repo.moments = []feed.Moment{{
		ID:         "remote-9",
		Author:     feed.AuthorRef{ID: "u2", Name: "Sarah Jenkins"},
		Kind:       feed.KindThought,
		Body:       "unrelated",
		CreatedAt:  time.Unix(1700000100, 0).UTC(),
		SyncStatus: feed.SyncConfirmed,
	}}
	if err := publisher.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}

	count := 0
	for _, m := range store.Snapshot() {
		if m.MediaRef == "img1" {
			count++
		}
	}
	if count > 1 {
		t.Fatalf("fallback moment duplicated after refresh: %d copies", count)
	}
}

func TestRefreshSubstitutesPlaceholderOnReadFailure(t *testing.T) {
	repo := &fakeRepository{listErr: errors.New("connection refused")}
	publisher, store := newTestPublisher(t, repo)

	if err := publisher.Refresh(context.Background()); err != nil {
		t.Fatalf("read failures must stay invisible, got %v", err)
	}
	if store.Len() == 0 {
		t.Fatalf("expected placeholder feed after failed read")
	}
}

func TestRefreshDoesNotClobberExistingFeedOnReadFailure(t *testing.T) {
	repo := &fakeRepository{moments: []feed.Moment{{
		ID:        "remote-1",
		Author:    testAuthor(),
		Kind:      feed.KindThought,
		Body:      "kept",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}}}
	publisher, store := newTestPublisher(t, repo)
	if err := publisher.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}

	repo.listErr = errors.New("timeout")
	if err := publisher.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}
	snapshot := store.Snapshot()
	if len(snapshot) != 1 || snapshot[0].Body != "kept" {
		t.Fatalf("failed read replaced existing feed: %+v", snapshot)
	}
}

func TestRefreshEmptyRepositorySeedsPlaceholderOnce(t *testing.T) {
	repo := &fakeRepository{}
	publisher, store := newTestPublisher(t, repo)

	if err := publisher.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}
	seeded := store.Len()
	if seeded == 0 {
		t.Fatalf("empty remote feed should seed the placeholder set")
	}

	if err := publisher.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}
	if store.Len() != seeded {
		t.Fatalf("repeat empty refresh changed the seeded feed")
	}
}

func TestPostWakeUsesCannedBody(t *testing.T) {
	repo := &fakeRepository{}
	publisher, store := newTestPublisher(t, repo)

	outcome, err := publisher.Post(context.Background(), testAuthor(), Draft{Kind: feed.KindWake})
	if err != nil {
		t.Fatalf("unexpected post error: %v", err)
	}
	if outcome.Moment.Body != WakeBody {
		t.Fatalf("wake post body = %q", outcome.Moment.Body)
	}
	if store.Len() != 1 {
		t.Fatalf("expected wake moment in store")
	}
}

func TestPostRejectsEmptyDraft(t *testing.T) {
	repo := &fakeRepository{}
	publisher, _ := newTestPublisher(t, repo)

	_, err := publisher.Post(context.Background(), testAuthor(), Draft{Kind: feed.KindThought})
	if err == nil {
		t.Fatalf("expected validation error for empty draft")
	}
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected ServiceError, got %T", err)
	}
	if repo.insertions != 0 {
		t.Fatalf("invalid draft must not reach the repository")
	}
}

func TestNewPublisherValidatesDependencies(t *testing.T) {
	store := feed.NewStore(feed.StoreConfig{})
	repo := &fakeRepository{}
	tests := []struct {
		name string
		cfg  PublisherConfig
	}{
		{name: "missing store", cfg: PublisherConfig{Repository: repo, IDProvider: NewUUIDProvider()}},
		{name: "missing repository", cfg: PublisherConfig{Store: store, IDProvider: NewUUIDProvider()}},
		{name: "missing id provider", cfg: PublisherConfig{Store: store, Repository: repo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPublisher(tt.cfg); err == nil {
				t.Fatalf("expected constructor error")
			}
		})
	}
}
