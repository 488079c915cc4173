package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/yourusername/clever-handicapper/internal/models"
)

// maxSnapshotBytes bounds a single snapshot response body
const maxSnapshotBytes = 8 << 20

// HTTPSource fetches snapshots from a fixed list of URLs
type HTTPSource struct {
	client *RateLimitedHTTPClient
	urls   []string
}

// NewHTTPSource creates a source over snapshot URLs
func NewHTTPSource(client *RateLimitedHTTPClient, urls ...string) *HTTPSource {
	return &HTTPSource{client: client, urls: urls}
}

// Name returns the source name
func (s *HTTPSource) Name() string {
	return "http"
}

// Races fetches every URL in order
func (s *HTTPSource) Races(ctx context.Context) ([]*models.RaceSnapshot, error) {
	snapshots := make([]*models.RaceSnapshot, 0, len(s.urls))
	for _, url := range s.urls {
		snapshot, err := s.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

// Fetch retrieves one snapshot
func (s *HTTPSource) Fetch(ctx context.Context, url string) (*models.RaceSnapshot, error) {
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, NewSourceError(s.Name(), ErrCodeNetworkError, url, fmt.Errorf("%w: %v", ErrNetworkError, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewSourceError(s.Name(), ErrCodeNotFound, url, ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, NewSourceError(s.Name(), ErrCodeServerError, fmt.Sprintf("%s returned %d", url, resp.StatusCode), ErrServerError)
	case resp.StatusCode != http.StatusOK:
		return nil, NewSourceError(s.Name(), ErrCodeInvalidData, fmt.Sprintf("%s returned %d", url, resp.StatusCode), ErrInvalidData)
	}

	snapshot, err := DecodeSnapshot(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, NewSourceError(s.Name(), ErrCodeInvalidData, url, err)
	}
	return snapshot, nil
}
