// Package remote turns backend calls into reconcile results. Every fault is
// reported as a Failure value.
package remote

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/dashboard-engine/internal/metrics"
	"github.com/sells-group/dashboard-engine/internal/model"
	"github.com/sells-group/dashboard-engine/internal/reconcile"
	"github.com/sells-group/dashboard-engine/internal/resilience"
	"github.com/sells-group/dashboard-engine/pkg/policeapi"
)

// Failure messages shown to operators.
const (
	MessageConnection  = "Erreur de connexion"
	MessageRejected    = "Erreur lors du chargement des données"
	MessageInvalid     = "Réponse invalide du serveur"
	MessageUnavailable = "Service temporairement indisponible"
)

// Config tunes the fetch path.
type Config struct {
	// RatePerSec limits outgoing requests. Zero disables limiting.
	RatePerSec float64
	Burst      int
	Retry      resilience.RetryConfig
	Breaker    resilience.BreakerConfig
}

// Fetcher performs one dashboard request per call.
type Fetcher struct {
	client   policeapi.Client
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	breakers *resilience.Breakers[*policeapi.Envelope]
}

// New creates a Fetcher over client.
func New(client policeapi.Client, cfg Config) *Fetcher {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return &Fetcher{
		client:   client,
		limiter:  limiter,
		retry:    cfg.Retry,
		breakers: resilience.NewBreakers[*policeapi.Envelope](cfg.Breaker),
	}
}

// Fetch requests the page data for req and decodes it.
func (f *Fetcher) Fetch(ctx context.Context, page model.PageDef, req reconcile.Request) reconcile.Result {
	start := time.Now()
	log := zap.L().With(
		zap.String("page", page.Name),
		zap.String("request", req.String()),
	)

	result := f.fetch(ctx, page, req, log)

	outcome := metrics.OutcomeSuccess
	if !result.IsSuccess() {
		outcome = metrics.OutcomeFailure
	}
	metrics.RecordFetch(page.Name, outcome, time.Since(start))
	return result
}

func (f *Fetcher) fetch(ctx context.Context, page model.PageDef, req reconcile.Request, log *zap.Logger) reconcile.Result {
	if err := f.limiter.Wait(ctx); err != nil {
		log.Warn("rate limiter wait aborted", zap.Error(err))
		metrics.RecordFailure(page.Name, "cancelled")
		return reconcile.Failure(MessageConnection)
	}

	retry := f.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(page.Name)
	}
	cb := f.breakers.Get(page.Endpoint)
	params := req.Params()

	env, err := resilience.Do(ctx, retry, func(ctx context.Context) (*policeapi.Envelope, error) {
		return cb.Execute(func() (*policeapi.Envelope, error) {
			env, err := f.client.Dashboard(ctx, page.Endpoint, params)
			return env, resilience.Mark(ctx, err)
		})
	})
	if err != nil {
		class := resilience.Classify(err)
		metrics.RecordFailure(page.Name, class)
		log.Warn("dashboard fetch failed", zap.String("class", class), zap.Error(err))
		return reconcile.Failure(failureMessage(err))
	}

	if env == nil || !env.Success {
		msg := MessageRejected
		if env != nil && env.Message != "" {
			msg = env.Message
		}
		metrics.RecordFailure(page.Name, "rejected")
		log.Info("backend rejected request", zap.String("message", msg))
		return reconcile.Failure(msg)
	}
	if !env.HasData() {
		metrics.RecordFailure(page.Name, "no_data")
		log.Warn("backend response has no data")
		return reconcile.Failure(MessageInvalid)
	}

	ds, err := model.DecodePayload(page, env.Data)
	if err != nil {
		metrics.RecordFailure(page.Name, "decode")
		log.Warn("backend payload undecodable", zap.Error(err))
		return reconcile.Failure(MessageInvalid)
	}

	log.Debug("dashboard fetch succeeded",
		zap.Int("series", len(ds.Series)),
		zap.Int("rows", len(ds.Rows)),
	)
	return reconcile.Success(ds)
}

// BreakerStates reports the circuit state per endpoint.
func (f *Fetcher) BreakerStates() map[string]string {
	return f.breakers.States()
}

func failureMessage(err error) string {
	if resilience.IsOpen(err) {
		return MessageUnavailable
	}
	var re *policeapi.ResponseError
	if errors.As(err, &re) {
		return MessageInvalid
	}
	var se *policeapi.StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return MessageConnection
}
