// Package assist wraps the hosted generative text endpoint used by the
// composer and profile editor. Every call is best-effort: a failure leaves
// the user's original text untouched and never interrupts the posting flow.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrAssistant is the sentinel wrapped by assistant failures.
var ErrAssistant = errors.New("assist: assistant error")

var (
	errMissingAssistURL = errors.New("assist: base url required")
	errMissingAssistKey = errors.New("assist: api key required")
)

const (
	defaultModel   = "gemini-3-flash-preview"
	requestTimeout = 20 * time.Second
)

// Place is one suggestion for the location composer.
type Place struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// FallbackPlaces is shown when the grounded lookup returns nothing usable.
func FallbackPlaces() []Place {
	return []Place{
		{Title: "The Local Brew Cafe", URI: "#"},
		{Title: "Sunset Park", URI: "#"},
	}
}

// MinimalFallbackPlaces is shown when the position itself is unavailable.
func MinimalFallbackPlaces() []Place {
	return []Place{
		{Title: "Local Coffee", URI: "#"},
		{Title: "The Park", URI: "#"},
	}
}

// ClientConfig configures the assistant client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the hosted generate endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient validates configuration and constructs the client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingAssistURL
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAssistKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
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
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// SuggestText sends the prompt and returns the model's text.
func (c *Client) SuggestText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", ErrAssistant, err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistant, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistant, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: status %d", ErrAssistant, response.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrAssistant, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrAssistant)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// RefineThought rewrites the draft to be more poetic and minimalist. On any
// failure the original text comes back unchanged.
func (c *Client) RefineThought(ctx context.Context, text string) string {
	prompt := fmt.Sprintf("Rewrite this personal thought to be more poetic and minimalist: %q", text)
	return c.bestEffort(ctx, prompt, text)
}

// SuggestSong proposes a song title and artist matching the draft's vibe.
func (c *Client) SuggestSong(ctx context.Context, text string) string {
	prompt := fmt.Sprintf("Suggest a song title and artist that matches this vibe: %q.", text)
	return c.bestEffort(ctx, prompt, text)
}

// RefineBio rewrites the bio for the profile editor, capped at fifteen words
// with surrounding quotes stripped.
func (c *Client) RefineBio(ctx context.Context, bio string) string {
	prompt := fmt.Sprintf("Rewrite this bio to be more poetic, nostalgic, and intimate for a private social journal. Keep it under 15 words: %q", bio)
	suggested := c.bestEffort(ctx, prompt, bio)
	cleaned := strings.TrimSpace(strings.ReplaceAll(suggested, `"`, ""))
	if cleaned == "" {
		return bio
	}
	return cleaned
}

// NearbyPlaces asks for a short list of spots near the coordinates. Any
// failure degrades to the static fallback list.
func (c *Client) NearbyPlaces(ctx context.Context, lat, lon float64) []Place {
	prompt := fmt.Sprintf(
		"List 5 cozy or interesting nearby cafes, parks, or landmarks near latitude %.5f, longitude %.5f. Return one name per line, nothing else.",
		lat, lon)
	text, err := c.SuggestText(ctx, prompt)
	if err != nil {
		c.logger.Warn("place lookup failed", zap.Error(err))
		return FallbackPlaces()
	}
	places := parsePlaceList(text)
	if len(places) == 0 {
		return FallbackPlaces()
	}
	return places
}

func (c *Client) bestEffort(ctx context.Context, prompt, original string) string {
	suggested, err := c.SuggestText(ctx, prompt)
	if err != nil {
		c.logger.Warn("suggestion failed, keeping original text", zap.Error(err))
		return original
	}
	trimmed := strings.TrimSpace(suggested)
	if trimmed == "" {
		return original
	}
	return trimmed
}

func parsePlaceList(text string) []Place {
	var places []Place
	for _, line := range strings.Split(text, "\n") {
		title := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if title == "" {
			continue
		}
		places = append(places, Place{Title: title, URI: "#"})
		if len(places) == 5 {
			break
		}
	}
	return places
}
