package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/i474232898/groundwater-monitoring/internal/config"
	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
	"github.com/i474232898/groundwater-monitoring/internal/groundwater/providers"
)

// buildService wires the dataset and boundary sources from cfg. The returned
// cleanup closes the cache, if any.
func buildService(ctx context.Context, cfg *config.AppConfig, store groundwater.Store, logger *zap.Logger) (*groundwater.Service, func(), error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	cleanup := func() {}

	var source groundwater.ImageSource
	if cfg.SourceURL != "" {
		source = providers.NewHTTPSource(cfg.SourceURL, httpClient)
	} else {
		source = providers.NewFileSource(cfg.SourceFile)
	}

	if cfg.CachePath != "" {
		cached, err := providers.NewCachedSource(ctx, cfg.CachePath, source, cfg.CacheTTL, logger.Named("cache"))
		if err != nil {
			return nil, cleanup, err
		}
		source = cached
		cleanup = func() {
			if err := cached.Close(); err != nil {
				logger.Warn("closing cache", zap.Error(err))
			}
		}
	}

	var boundaries groundwater.BoundarySource
	if cfg.BoundaryURL != "" {
		boundaries = providers.NewHTTPBoundarySource(cfg.BoundaryURL, httpClient)
	} else {
		boundaries = providers.NewFileBoundarySource(cfg.BoundaryFile)
	}

	svc := groundwater.NewService(store, source, boundaries, logger.Named("groundwater"),
		groundwater.WithFetchConcurrency(cfg.FetchConcurrency),
	)
	return svc, cleanup, nil
}
