// Package scheduler runs the periodic summary refresh. Statuses are derived
// from request history, so a summary can go stale when requests are mutated
// outside the service layer; the refresher re-derives every active summary on
// an interval.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/clock"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/observability/metrics"
	podsummaryservice "github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/service"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Summaries podsummaryservice.Service
	Clock     clock.Clock
	Metrics   *metrics.RefreshMetrics `optional:"true"`
	Config    Config                  `optional:"true"`
}

type Refresher struct {
	log       *zap.Logger
	summaries podsummaryservice.Service
	clock     clock.Clock
	metrics   *metrics.RefreshMetrics
	cfg       Config
}

func NewRefresher(p Params) *Refresher {
	return &Refresher{
		log:       p.Log.Named("scheduler.refresher"),
		summaries: p.Summaries,
		clock:     p.Clock,
		metrics:   p.Metrics,
		cfg:       p.Config.withDefaults(),
	}
}

func (r *Refresher) RunForever(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := r.RunOnce(ctx); err != nil {
			r.log.Warn("summary refresh run failed", zap.Error(err))
		}
	}
}

func (r *Refresher) RunOnce(ctx context.Context) error {
	started := r.clock.Now()
	changed, err := r.summaries.BatchUpdateAllStatuses(ctx)
	took := r.clock.Now().Sub(started)
	if err != nil {
		r.metrics.IncRun("failed")
		return err
	}
	r.metrics.IncRun("success")
	r.metrics.AddStatusChanges(changed)
	r.metrics.ObserveDuration(took)
	if changed > 0 {
		r.log.Info("summary refresh completed",
			zap.Int("status_changes", changed),
			zap.Duration("took", took),
		)
	}
	return nil
}
