package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/origincircle/origin/internal/feed"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "anon-key",
	})
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}
	return client, server
}

func TestListMomentsMapsWireSchema(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Fatalf("missing apikey header")
		}
		if got := r.URL.Query().Get("order"); got != "timestamp.desc" {
			t.Fatalf("unexpected order parameter %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"id": "row-1",
			"user_id": "u1",
			"user_name": "Alex Rivera",
			"user_avatar": "avatar-u1",
			"type": "photo",
			"content": "golden hour",
			"media_url": "img1",
			"location": "Ojai, CA",
			"timestamp": "2026-03-10T12:00:00Z",
			"reactions": [{"type": "love", "label": "Love", "count": 2, "user_ids": ["u2", "u3"]}],
			"comments": [{"id": "c1", "user_id": "u2", "user_name": "Sarah Jenkins", "user_avatar": "avatar-u2", "text": "Lovely", "timestamp": "2026-03-10T12:05:00Z"}]
		}]`))
	})

	moments, err := client.ListMoments(context.Background())
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(moments) != 1 {
		t.Fatalf("expected 1 moment, got %d", len(moments))
	}
	m := moments[0]
	if m.ID != "row-1" || m.Kind != feed.KindPhoto || m.Body != "golden hour" {
		t.Fatalf("unexpected moment mapping: %+v", m)
	}
	if m.Author.Name != "Alex Rivera" || m.MediaRef != "img1" || m.LocationLabel != "Ojai, CA" {
		t.Fatalf("author or refs lost in mapping: %+v", m)
	}
	want := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	if !m.CreatedAt.Equal(want) {
		t.Fatalf("timestamp mapping = %v", m.CreatedAt)
	}
	if len(m.Reactions) != 1 || m.Reactions[0].Count != 2 || len(m.Reactions[0].UserIDs) != 2 {
		t.Fatalf("reaction mapping: %+v", m.Reactions)
	}
	if len(m.Comments) != 1 || m.Comments[0].Text != "Lovely" || m.Comments[0].Author.ID != "u2" {
		t.Fatalf("comment mapping: %+v", m.Comments)
	}
	if m.SyncStatus != feed.SyncConfirmed {
		t.Fatalf("remote moments must be confirmed")
	}
}

func TestListMomentsWrapsRepositoryError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.ListMoments(context.Background())
	if !errors.Is(err, ErrRepository) {
		t.Fatalf("expected ErrRepository, got %v", err)
	}
}

func TestInsertMomentSendsWireRecord(t *testing.T) {
	var received []map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	err := client.InsertMoment(context.Background(), feed.Moment{
		Author:    feed.AuthorRef{ID: "u1", Name: "Alex Rivera", AvatarRef: "avatar-u1"},
		Kind:      feed.KindThought,
		Body:      "Hello",
		CreatedAt: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected insert error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected one record, got %d", len(received))
	}
	record := received[0]
	if record["user_id"] != "u1" || record["type"] != "thought" || record["content"] != "Hello" {
		t.Fatalf("unexpected wire record: %+v", record)
	}
	if record["timestamp"] != "2026-03-10T12:00:00Z" {
		t.Fatalf("timestamp not ISO-8601: %v", record["timestamp"])
	}
	if reactions, ok := record["reactions"].([]any); !ok || len(reactions) != 0 {
		t.Fatalf("new record must carry an empty reactions set: %v", record["reactions"])
	}
	if comments, ok := record["comments"].([]any); !ok || len(comments) != 0 {
		t.Fatalf("new record must carry an empty comments sequence: %v", record["comments"])
	}
}

func TestInsertMomentWrapsRepositoryError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.InsertMoment(context.Background(), feed.Moment{
		Author:    feed.AuthorRef{ID: "u1"},
		Kind:      feed.KindThought,
		Body:      "Hello",
		CreatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, ErrRepository) {
		t.Fatalf("expected ErrRepository, got %v", err)
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(ClientConfig{APIKey: "k"}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "https://example.test"}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
