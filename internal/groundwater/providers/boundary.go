package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/i474232898/groundwater-monitoring/internal/region"
)

// FileBoundarySource reads boundaries from a local GeoJSON FeatureCollection.
type FileBoundarySource struct {
	path string
}

// NewFileBoundarySource creates a boundary source backed by path.
func NewFileBoundarySource(path string) *FileBoundarySource {
	return &FileBoundarySource{path: path}
}

func (s *FileBoundarySource) Boundary(ctx context.Context, field, value string) (*region.Boundary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	return region.ParseBoundary(data, field, value)
}

// HTTPBoundarySource downloads a GeoJSON FeatureCollection. Parsed boundaries
// are kept for the life of the source.
type HTTPBoundarySource struct {
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker

	mu     sync.Mutex
	parsed map[string]*region.Boundary
}

// NewHTTPBoundarySource creates a boundary source for url.
func NewHTTPBoundarySource(url string, client *http.Client) *HTTPBoundarySource {
	return &HTTPBoundarySource{
		url:     url,
		httpCfg: DefaultHTTPClientConfig(client),
		circuit: newCircuitBreaker("boundaries"),
		parsed:  make(map[string]*region.Boundary),
	}
}

// WithBackoff replaces the retry policy.
func (s *HTTPBoundarySource) WithBackoff(b BackoffConfig) *HTTPBoundarySource {
	s.httpCfg.Backoff = b
	return s
}

func (s *HTTPBoundarySource) Boundary(ctx context.Context, field, value string) (*region.Boundary, error) {
	key := field + "=" + value

	s.mu.Lock()
	b, ok := s.parsed[key]
	s.mu.Unlock()
	if ok {
		return b, nil
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, s.url, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch boundaries: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	b, err = region.ParseBoundary(data, field, value)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.parsed[key] = b
	s.mu.Unlock()
	return b, nil
}
