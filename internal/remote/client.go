// Package remote talks to the hosted moment repository over its REST table
// API. The repository is an opaque collaborator: this client maps between
// the wire schema and the feed model and reports failures for the sync
// policy to degrade on, never surfacing them as blocking errors.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/origincircle/origin/internal/feed"
	"go.uber.org/zap"
)

// ErrRepository is the sentinel wrapped by every repository failure.
var ErrRepository = errors.New("remote: repository error")

var (
	errMissingBaseURL = errors.New("remote: base url required")
	errMissingAPIKey  = errors.New("remote: api key required")
)

const (
	momentsTablePath = "/rest/v1/moments"
	requestTimeout   = 10 * time.Second
)

// ClientConfig configures the repository client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements the Remote Moment Repository contract.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient validates configuration and constructs the client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// momentRecord is the repository wire schema for one moment row.
type momentRecord struct {
	ID         string           `json:"id,omitempty"`
	UserID     string           `json:"user_id"`
	UserName   string           `json:"user_name"`
	UserAvatar string           `json:"user_avatar"`
	Type       string           `json:"type"`
	Content    string           `json:"content"`
	MediaURL   string           `json:"media_url,omitempty"`
	Location   string           `json:"location,omitempty"`
	Timestamp  string           `json:"timestamp"`
	Reactions  []reactionRecord `json:"reactions"`
	Comments   []commentRecord  `json:"comments"`
}

type reactionRecord struct {
	Type    string   `json:"type"`
	Label   string   `json:"label"`
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}

type commentRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	UserAvatar string `json:"user_avatar"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
}

// ListMoments fetches all rows ordered newest-first. The core re-sorts by
// CreatedAt descending regardless of the order the repository returns.
func (c *Client) ListMoments(ctx context.Context) ([]feed.Moment, error) {
	url := c.baseURL + momentsTablePath + "?select=*&order=timestamp.desc"
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepository, err)
	}
	c.setHeaders(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRepository, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: list status %d", ErrRepository, response.StatusCode)
	}

	var records []momentRecord
	if err := json.NewDecoder(response.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRepository, err)
	}

	moments := make([]feed.Moment, 0, len(records))
	for _, record := range records {
		moments = append(moments, record.toMoment())
	}
	return moments, nil
}

// InsertMoment writes one record. The repository assigns the row identifier
// and canonical timestamp; callers pick them up through a follow-up list.
func (c *Client) InsertMoment(ctx context.Context, m feed.Moment) error {
	record := toRecord(m)
	body, err := json.Marshal([]momentRecord{record})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrRepository, err)
	}

	url := c.baseURL + momentsTablePath
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRepository, err)
	}
	c.setHeaders(request)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Prefer", "return=minimal")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRepository, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: insert status %d", ErrRepository, response.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(request *http.Request) {
	request.Header.Set("apikey", c.apiKey)
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Accept", "application/json")
}

func (r momentRecord) toMoment() feed.Moment {
	createdAt, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		createdAt = time.Time{}
	}
	reactions := make([]feed.Reaction, 0, len(r.Reactions))
	for _, reaction := range r.Reactions {
		users := make(map[string]struct{}, len(reaction.UserIDs))
		for _, id := range reaction.UserIDs {
			users[id] = struct{}{}
		}
		reactions = append(reactions, feed.Reaction{
			Kind:         reaction.Type,
			DisplayLabel: reaction.Label,
			Count:        reaction.Count,
			UserIDs:      users,
		})
	}
	comments := make([]feed.Comment, 0, len(r.Comments))
	for _, comment := range r.Comments {
		commentedAt, err := time.Parse(time.RFC3339, comment.Timestamp)
		if err != nil {
			commentedAt = time.Time{}
		}
		comments = append(comments, feed.Comment{
			ID: comment.ID,
			Author: feed.AuthorRef{
				ID:        comment.UserID,
				Name:      comment.UserName,
				AvatarRef: comment.UserAvatar,
			},
			Text:      comment.Text,
			CreatedAt: commentedAt,
		})
	}
	return feed.Moment{
		ID: r.ID,
		Author: feed.AuthorRef{
			ID:        r.UserID,
			Name:      r.UserName,
			AvatarRef: r.UserAvatar,
		},
		Kind:          feed.Kind(r.Type),
		Body:          r.Content,
		MediaRef:      r.MediaURL,
		LocationLabel: r.Location,
		CreatedAt:     createdAt,
		Reactions:     reactions,
		Comments:      comments,
		SyncStatus:    feed.SyncConfirmed,
	}
}

func toRecord(m feed.Moment) momentRecord {
	return momentRecord{
		UserID:     m.Author.ID,
		UserName:   m.Author.Name,
		UserAvatar: m.Author.AvatarRef,
		Type:       string(m.Kind),
		Content:    m.Body,
		MediaURL:   m.MediaRef,
		Location:   m.LocationLabel,
		Timestamp:  m.CreatedAt.UTC().Format(time.RFC3339),
		Reactions:  []reactionRecord{},
		Comments:   []commentRecord{},
	}
}
