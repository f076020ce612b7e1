package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
	"github.com/i474232898/groundwater-monitoring/internal/raster"
)

// maxPages bounds pagination in case a server keeps handing out tokens.
const maxPages = 1000

// HTTPSource implements groundwater.ImageSource against a dataset API.
type HTTPSource struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewHTTPSource creates a source for the API rooted at baseURL.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	return &HTTPSource{
		name:    "http",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: DefaultHTTPClientConfig(client),
		circuit: newCircuitBreaker("dataset"),
	}
}

// WithBackoff replaces the retry policy.
func (s *HTTPSource) WithBackoff(b BackoffConfig) *HTTPSource {
	s.httpCfg.Backoff = b
	return s
}

func (s *HTTPSource) Name() string {
	return s.name
}

// Images follows next_page_token until the server stops returning one.
func (s *HTTPSource) Images(ctx context.Context, q groundwater.Query) (raster.Collection, error) {
	var (
		all   raster.Collection
		token string
	)
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("dataset query exceeded %d pages", maxPages)
		}

		doc, err := s.page(ctx, q, token)
		if err != nil {
			return nil, err
		}
		images, err := doc.images(q)
		if err != nil {
			return nil, err
		}
		all = append(all, images...)

		if doc.NextPageToken == "" {
			return all, nil
		}
		token = doc.NextPageToken
	}
}

func (s *HTTPSource) page(ctx context.Context, q groundwater.Query, token string) (imageDocument, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("band", q.Band)
		values.Set("start", q.Start.UTC().Format(time.RFC3339))
		values.Set("end", q.End.UTC().Format(time.RFC3339))
		if q.Bounds != (raster.Bounds{}) {
			values.Set("bbox", formatBBox(q.Bounds))
		}
		if token != "" {
			values.Set("page_token", token)
		}

		u := fmt.Sprintf("%s/v1/collections/%s/images?%s", s.baseURL, url.PathEscape(q.Collection), values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, s.httpCfg, s.circuit, buildRequest)
	if err != nil {
		return imageDocument{}, err
	}
	defer resp.Body.Close()

	return decodeDocument(resp.Body)
}

func formatBBox(b raster.Bounds) string {
	parts := []float64{b.MinLon, b.MinLat, b.MaxLon, b.MaxLat}
	out := make([]string, len(parts))
	for i, v := range parts {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(out, ",")
}
