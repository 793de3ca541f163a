package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/peloton/internal/models"
)

// HTTPSource fetches already-materialized pool documents from a JSON API:
// GET {base}/events/{id}/pool and GET {base}/events/{id}/result.
type HTTPSource struct {
	client  *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	logger  *logrus.Entry
}

// NewHTTPSource creates an HTTP-backed pool source
func NewHTTPSource(client *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *HTTPSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HTTPSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.WithField("component", "http_source"),
	}
}

// Name returns the name of the data source
func (s *HTTPSource) Name() string {
	return "http"
}

// Check fails while the client's circuit breaker is open
func (s *HTTPSource) Check(ctx context.Context) error {
	if s.client.IsOpen() {
		return fmt.Errorf("%w: circuit breaker open for %s", ErrSourceUnavailable, s.baseURL)
	}
	return ctx.Err()
}

// FetchPool retrieves the pool document for an event
func (s *HTTPSource) FetchPool(ctx context.Context, eventID string) (*EventPool, error) {
	body, err := s.get(ctx, eventID, "pool")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	pool, err := DecodePool(body)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", eventID, err)
	}
	if pool.EventID != eventID {
		return nil, fmt.Errorf("%w: response for %s declares event %s", ErrInvalidData, eventID, pool.EventID)
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":  eventID,
		"pool_size": len(pool.Competitors),
	}).Debug("Fetched pool")
	return pool, nil
}

// FetchResult retrieves the actual points for a completed event
func (s *HTTPSource) FetchResult(ctx context.Context, eventID string) (*models.EventResult, error) {
	body, err := s.get(ctx, eventID, "result")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	result, err := DecodeResult(body)
	if err != nil {
		return nil, fmt.Errorf("result %s: %w", eventID, err)
	}
	return result, nil
}

func (s *HTTPSource) get(ctx context.Context, eventID, resource string) (io.ReadCloser, error) {
	endpoint := fmt.Sprintf("%s/events/%s/%s", s.baseURL, url.PathEscape(eventID), resource)

	headers := map[string]string{"Accept": "application/json"}
	if s.apiKey != "" {
		headers["X-API-Key"] = s.apiKey
	}

	resp, err := s.client.Get(ctx, endpoint, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s for %s: %w", resource, eventID, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", resource, eventID, models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d fetching %s for %s", resp.StatusCode, resource, eventID)
	}
	return resp.Body, nil
}
