package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-engine/internal/catalog"
	"github.com/sells-group/dashboard-engine/internal/dashboard"
	"github.com/sells-group/dashboard-engine/internal/publish"
	"github.com/sells-group/dashboard-engine/internal/remote"
	"github.com/sells-group/dashboard-engine/internal/resilience"
	"github.com/sells-group/dashboard-engine/pkg/policeapi"
)

// dashboardEnv holds the catalog, the fetch path, the sink and the board
// needed by the serve and report commands.
type dashboardEnv struct {
	Catalog *catalog.Catalog
	Fetcher *remote.Fetcher
	Sink    publish.Sink
	Board   *dashboard.Board
}

// Close waits for background loads and releases the sink.
func (de *dashboardEnv) Close() {
	if de.Board != nil {
		de.Board.Wait()
	}
	if de.Sink != nil {
		if err := de.Sink.Close(); err != nil {
			zap.L().Warn("close sink", zap.String("sink", de.Sink.Name()), zap.Error(err))
		}
	}
}

// initDashboard validates cfg for mode, loads the catalog and builds the
// board. Callers should defer env.Close().
func initDashboard(ctx context.Context, mode string) (*dashboardEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	cat, err := loadCatalog(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load catalog")
	}

	client := policeapi.NewClient(cfg.API.BaseURL,
		policeapi.WithToken(cfg.API.Token),
		policeapi.WithTimeout(time.Duration(cfg.API.TimeoutSecs)*time.Second),
	)
	fetcher := remote.New(client, fetcherConfig())

	sink, err := publish.Open(publish.Options{
		Driver:       cfg.Publish.Driver,
		RedisAddr:    cfg.Publish.RedisAddr,
		RedisChannel: cfg.Publish.RedisChannel,
		KafkaBrokers: cfg.Publish.KafkaBrokers,
		KafkaTopic:   cfg.Publish.KafkaTopic,
		TTL:          time.Duration(cfg.Publish.TTLSecs) * time.Second,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open sink")
	}

	board := dashboard.NewBoard(cat, fetcher, dashboard.Options{
		TopN:    cfg.Report.TopN,
		Sink:    sink,
		Context: ctx,
	}, cfg.Report.Concurrency)

	zap.L().Info("dashboard ready",
		zap.String("catalog", cat.Source()),
		zap.Int("entries", cat.Len()),
		zap.String("backend", cfg.API.BaseURL),
		zap.String("sink", sink.Name()),
	)

	return &dashboardEnv{Catalog: cat, Fetcher: fetcher, Sink: sink, Board: board}, nil
}

func fetcherConfig() remote.Config {
	return remote.Config{
		RatePerSec: cfg.API.RatePerSec,
		Burst:      cfg.API.Burst,
		Retry:      resilience.NewRetryConfig(cfg.API.MaxAttempts, cfg.API.BackoffMs),
		Breaker: resilience.BreakerConfig{
			FailureThreshold: uint32(cfg.API.BreakerFailures),
			ResetTimeout:     time.Duration(cfg.API.BreakerResetSecs) * time.Second,
		},
	}
}
