package httpapi

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
	"github.com/i474232898/groundwater-monitoring/internal/raster"
	"github.com/i474232898/groundwater-monitoring/internal/region"
	"github.com/i474232898/groundwater-monitoring/internal/store"
)

const boundaryJSON = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"country_na":"Sri Lanka"},
   "geometry":{"type":"Polygon","coordinates":[[[79.5,6],[82,6],[82,10],[79.5,10],[79.5,6]]]}}
]}`

var generated = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

func layer(value float64) *raster.Image {
	g := raster.Grid{OriginLon: 79.5, OriginLat: 10, PixelWidth: 0.5, PixelHeight: 0.5, Width: 5, Height: 8}
	b := raster.NewBand(groundwater.Band, g)
	for i := range b.Values {
		b.Values[i] = value
	}
	return &raster.Image{Bands: []*raster.Band{b}}
}

func testReport(t *testing.T) groundwater.Report {
	t.Helper()
	boundary, err := region.ParseBoundary([]byte(boundaryJSON), "country_na", "Sri Lanka")
	require.NoError(t, err)

	nov := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	series := func(name string) groundwater.Series {
		return groundwater.Series{Name: name, Points: []groundwater.SeriesPoint{{Time: nov, Value: 900}, {Time: dec, Value: 1100}}}
	}

	a := groundwater.DefaultAnalysis()
	return groundwater.Report{
		ID:          "r1",
		GeneratedAt: generated,
		Region:      "Sri Lanka",
		LatestMonth: "2023-12-01",
		MeanStats:   raster.Stats{"Groundwater_min": 900, "Groundwater_max": 1100},
		National:    series("Sri Lanka"),
		Points:      []groundwater.Series{series("Anuradhapura"), series("Colombo")},
		Sites:       a.Sites,
		Mean:        layer(1000),
		Latest:      layer(1100),
		Drought:     layer(1),
		Boundary:    boundary,
	}
}

type fakeService struct {
	reports []groundwater.Report
}

func (f fakeService) GetLatest() (groundwater.Report, error) {
	if len(f.reports) == 0 {
		return groundwater.Report{}, store.ErrNotFound
	}
	return f.reports[len(f.reports)-1], nil
}

func (f fakeService) GetRange(from, to time.Time) ([]groundwater.Report, error) {
	var out []groundwater.Report
	for _, r := range f.reports {
		if !r.GeneratedAt.Before(from) && !r.GeneratedAt.After(to) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func do(t *testing.T, svc ReportService, target string) *http.Response {
	t.Helper()
	app := NewApp(svc, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	resp := do(t, fakeService{}, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLatestReport(t *testing.T) {
	resp := do(t, fakeService{}, "/api/v1/reports/latest")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, fakeService{reports: []groundwater.Report{testReport(t)}}, "/api/v1/reports/latest")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "r1", body["id"])
	assert.Equal(t, "2023-12-01", body["latestMonth"])
	assert.NotContains(t, body, "Mean", "rasters are not serialized")
	sites, ok := body["sites"].([]interface{})
	require.True(t, ok)
	assert.Len(t, sites, 2)
}

func TestHistoryValidation(t *testing.T) {
	svc := fakeService{reports: []groundwater.Report{testReport(t)}}

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"missing params", "/api/v1/reports/history", http.StatusBadRequest},
		{"bad time", "/api/v1/reports/history?from=yesterday&to=today", http.StatusBadRequest},
		{"to before from", "/api/v1/reports/history?from=2024-02-02T00:00:00Z&to=2024-02-01T00:00:00Z", http.StatusBadRequest},
		{"empty range", "/api/v1/reports/history?from=2020-01-01T00:00:00Z&to=2020-02-01T00:00:00Z", http.StatusNotFound},
		{"rfc3339", "/api/v1/reports/history?from=2024-02-01T00:00:00Z&to=2024-02-02T00:00:00Z", http.StatusOK},
		{"unix seconds", "/api/v1/reports/history?from=1706745600&to=1706832000", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, svc, tt.target)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestMapAndChartImages(t *testing.T) {
	svc := fakeService{reports: []groundwater.Report{testReport(t)}}

	for _, target := range []string{
		"/api/v1/reports/latest/maps/mean",
		"/api/v1/reports/latest/maps/latest",
		"/api/v1/reports/latest/maps/drought",
		"/api/v1/reports/latest/charts/national",
		"/api/v1/reports/latest/charts/points",
	} {
		resp := do(t, svc, target)
		require.Equal(t, http.StatusOK, resp.StatusCode, target)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"), target)
		_, err := png.Decode(resp.Body)
		assert.NoError(t, err, target)
	}
}

func TestUnknownLayerAndChart(t *testing.T) {
	svc := fakeService{reports: []groundwater.Report{testReport(t)}}

	assert.Equal(t, http.StatusNotFound, do(t, svc, "/api/v1/reports/latest/maps/rainfall").StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, svc, "/api/v1/reports/latest/charts/rainfall").StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, fakeService{}, "/api/v1/reports/latest/maps/mean").StatusCode)
}

func TestChartWithoutEnoughData(t *testing.T) {
	r := testReport(t)
	r.National.Points = r.National.Points[:1]

	resp := do(t, fakeService{reports: []groundwater.Report{r}}, "/api/v1/reports/latest/charts/national")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
