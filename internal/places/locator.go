// Package places resolves the device's approximate position for the
// location composer. Position lookup is best-effort: when it fails the
// composer degrades to a minimal static suggestion list instead of erroring.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrPositionUnavailable is the sentinel wrapped by every lookup failure.
var ErrPositionUnavailable = errors.New("places: position unavailable")

var errMissingLocatorURL = errors.New("places: locator url required")

const lookupTimeout = 10 * time.Second

// Position is a latitude and longitude pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Source reports the device's current position.
type Source interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// LocatorConfig configures the HTTP position source.
type LocatorConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Locator resolves position from an IP geolocation endpoint.
type Locator struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLocator validates configuration and constructs the locator.
func NewLocator(cfg LocatorConfig) (*Locator, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingLocatorURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: lookupTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

// CurrentPosition queries the geolocation endpoint once.
func (l *Locator) CurrentPosition(ctx context.Context) (Position, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/json", nil)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}

	response, err := l.httpClient.Do(request)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("%w: status %d", ErrPositionUnavailable, response.StatusCode)
	}

	var position Position
	if err := json.NewDecoder(response.Body).Decode(&position); err != nil {
		return Position{}, fmt.Errorf("%w: decode: %v", ErrPositionUnavailable, err)
	}
	if position.Lat == 0 && position.Lon == 0 {
		return Position{}, fmt.Errorf("%w: empty coordinates", ErrPositionUnavailable)
	}
	return position, nil
}

// Static always reports a fixed position, used in tests and as a
// configuration escape hatch when no locator endpoint is set.
type Static struct {
	Position Position
}

// CurrentPosition returns the fixed position.
func (s Static) CurrentPosition(context.Context) (Position, error) {
	return s.Position, nil
}
