package groundwater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/groundwater-monitoring/internal/raster"
	"github.com/i474232898/groundwater-monitoring/internal/region"
)

var (
	// ErrNoSourceImages is returned when the dataset query finds nothing.
	ErrNoSourceImages = errors.New("no source images in window")
	// ErrNoMonthlyData is returned when every monthly composite is empty.
	ErrNoMonthlyData = errors.New("no monthly data in window")
)

const defaultFetchConcurrency = 4

// Service runs the analysis against a dataset and keeps the reports it produces.
type Service struct {
	store       Store
	source      ImageSource
	boundaries  BoundarySource
	analysis    Analysis
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAnalysis overrides DefaultAnalysis.
func WithAnalysis(a Analysis) Option {
	return func(s *Service) { s.analysis = a }
}

// WithFetchConcurrency bounds the number of concurrent dataset queries.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(store Store, source ImageSource, boundaries BoundarySource, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:       store,
		source:      source,
		boundaries:  boundaries,
		analysis:    DefaultAnalysis(),
		logger:      logger,
		concurrency: defaultFetchConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one full analysis pass. Any failure aborts the run.
func (s *Service) Run(ctx context.Context) (Report, error) {
	a := s.analysis
	log := s.logger.With(zap.String("region", a.Region))

	boundary, err := s.boundaries.Boundary(ctx, a.BoundaryField, a.Region)
	if err != nil {
		return Report{}, fmt.Errorf("load boundary: %w", err)
	}
	log.Debug("boundary loaded", zap.Int("polygons", boundary.Geometry.NumPolygons()))

	source, err := s.fetch(ctx, Query{
		Collection: Collection,
		Band:       SourceBand,
		Start:      a.Window.Start,
		End:        a.Window.End,
		Bounds:     boundary.Bounds(),
	})
	if err != nil {
		return Report{}, err
	}
	if len(source) == 0 {
		return Report{}, ErrNoSourceImages
	}
	log.Info("source images fetched", zap.String("source", s.source.Name()), zap.Int("images", len(source)))

	starts := MonthStarts(a.Window.Start, a.Window.End)
	monthly, months, err := MonthlyComposites(source, starts)
	if err != nil {
		return Report{}, fmt.Errorf("monthly composites: %w", err)
	}
	if len(monthly) == 0 {
		return Report{}, ErrNoMonthlyData
	}
	log.Info("monthly composites built", zap.Int("months", len(starts)), zap.Int("kept", len(monthly)))

	mean, err := monthly.Mean()
	if err != nil {
		return Report{}, fmt.Errorf("period mean: %w", err)
	}
	latest := monthly.Latest()

	minMax := raster.ReduceOptions{Reducer: raster.ReducerMinMax, Scale: a.Scale, BestEffort: a.BestEffort}
	meanStats, err := raster.ReduceRegion(mean, boundary, minMax)
	if err != nil {
		return Report{}, fmt.Errorf("mean statistics: %w", err)
	}
	log.Info("Mean Groundwater min and max", zap.Any("stats", meanStats))

	latestStats, err := raster.ReduceRegion(latest, boundary, minMax)
	if err != nil {
		return Report{}, fmt.Errorf("latest statistics: %w", err)
	}
	log.Info("Latest Groundwater min and max", zap.String("month", latest.Index), zap.Any("stats", latestStats))

	drought := DroughtMask(latest, a.DroughtThreshold).Clip(boundary)

	national, err := s.nationalSeries(monthly, boundary)
	if err != nil {
		return Report{}, err
	}
	points, err := s.pointSeries(monthly)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		ID:           uuid.NewString(),
		GeneratedAt:  s.now().UTC(),
		Region:       a.Region,
		Window:       a.Window,
		SourceImages: len(source),
		Months:       months,
		LatestMonth:  latest.Index,
		MeanStats:    meanStats,
		LatestStats:  latestStats,
		National:     national,
		Points:       points,
		Sites:        a.Sites,
		Mean:         mean.Clip(boundary),
		Latest:       latest.Clip(boundary),
		Drought:      drought,
		Boundary:     boundary,
	}
	if b := drought.First(); b != nil {
		report.DroughtPixels = b.ValidCount()
	}
	return report, nil
}

// RunAndStore runs the analysis and saves the report. A failed run leaves the
// last stored report in place.
func (s *Service) RunAndStore(ctx context.Context) error {
	report, err := s.Run(ctx)
	if err != nil {
		s.logger.Error("analysis run failed", zap.Error(err))
		return err
	}
	s.store.SaveReport(report)
	s.logger.Info("report stored",
		zap.String("id", report.ID),
		zap.Int("months", len(report.Months)),
		zap.Int("droughtPixels", report.DroughtPixels),
	)
	return nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest() (Report, error) {
	return s.store.GetLatest(s.analysis.Region)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(from, to time.Time) ([]Report, error) {
	return s.store.GetRange(s.analysis.Region, from, to)
}

// DroughtMask is 1 where img is below threshold and masked everywhere else.
func DroughtMask(img *raster.Image, threshold float64) *raster.Image {
	return img.Lt(threshold).SelfMask()
}

// fetch splits q into calendar years and queries them concurrently. Results
// come back in time order.
func (s *Service) fetch(ctx context.Context, q Query) (raster.Collection, error) {
	chunks := splitByYear(q)
	results := make([]raster.Collection, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			images, err := s.source.Images(gctx, chunk)
			if err != nil {
				return fmt.Errorf("query %s %s..%s: %w", s.source.Name(),
					chunk.Start.Format(IndexFormat), chunk.End.Format(IndexFormat), err)
			}
			s.logger.Debug("chunk fetched",
				zap.Time("start", chunk.Start),
				zap.Int("images", len(images)),
			)
			results[i] = images
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all raster.Collection
	for _, r := range results {
		all = append(all, r...)
	}
	return all.SortByStart(true), nil
}

func splitByYear(q Query) []Query {
	var chunks []Query
	for start := q.Start; start.Before(q.End); {
		end := time.Date(start.Year()+1, 1, 1, 0, 0, 0, 0, start.Location())
		if end.After(q.End) {
			end = q.End
		}
		chunk := q
		chunk.Start, chunk.End = start, end
		chunks = append(chunks, chunk)
		start = end
	}
	return chunks
}

func (s *Service) nationalSeries(monthly raster.Collection, boundary *region.Boundary) (Series, error) {
	opts := raster.ReduceOptions{
		Reducer:    raster.ReducerMean,
		Band:       Band,
		Scale:      s.analysis.Scale,
		BestEffort: s.analysis.BestEffort,
	}
	series := Series{Name: s.analysis.Region}
	for _, img := range monthly {
		stats, err := raster.ReduceRegion(img, boundary, opts)
		if errors.Is(err, raster.ErrEmptyRegion) {
			continue
		}
		if err != nil {
			return Series{}, fmt.Errorf("national series: %w", err)
		}
		series.Points = append(series.Points, SeriesPoint{Time: img.Start, Value: stats[Band+"_mean"]})
	}
	return series, nil
}

func (s *Service) pointSeries(monthly raster.Collection) ([]Series, error) {
	opts := raster.ReduceOptions{
		Reducer: raster.ReducerFirst,
		Band:    Band,
		Scale:   s.analysis.Scale,
	}
	out := make([]Series, 0, len(s.analysis.Sites))
	for _, site := range s.analysis.Sites {
		series := Series{Name: site.Name}
		for _, img := range monthly {
			stats, err := raster.ReduceRegion(img, site, opts)
			if errors.Is(err, raster.ErrEmptyRegion) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("series at %s: %w", site.Name, err)
			}
			series.Points = append(series.Points, SeriesPoint{Time: img.Start, Value: stats[Band]})
		}
		out = append(out, series)
	}
	return out, nil
}
