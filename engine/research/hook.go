package research

import (
	"context"
	"log/slog"
	"time"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/pkg/metrics"
)

// Hook observes orchestrator events. Implementations must be safe for
// concurrent use and must not block.
type Hook interface {
	CandidateFailed(ctx context.Context, url string, err error)
	NewsFailed(ctx context.Context, err error)
	// Completed is called exactly once per Research call; rep is nil on error.
	Completed(ctx context.Context, rep *domain.Report, err error, elapsed time.Duration)
}

// Hooks fans events out to every hook in order.
type Hooks []Hook

func (hs Hooks) CandidateFailed(ctx context.Context, url string, err error) {
	for _, h := range hs {
		h.CandidateFailed(ctx, url, err)
	}
}

func (hs Hooks) NewsFailed(ctx context.Context, err error) {
	for _, h := range hs {
		h.NewsFailed(ctx, err)
	}
}

func (hs Hooks) Completed(ctx context.Context, rep *domain.Report, err error, elapsed time.Duration) {
	for _, h := range hs {
		h.Completed(ctx, rep, err, elapsed)
	}
}

// MetricsHook records orchestrator events in a metrics.Registry.
type MetricsHook struct {
	Registry *metrics.Registry
}

func (m MetricsHook) CandidateFailed(context.Context, string, error) {
	m.Registry.CandidateFailures.Inc()
}

func (m MetricsHook) NewsFailed(context.Context, error) {
	m.Registry.NewsFailures.Inc()
}

func (m MetricsHook) Completed(_ context.Context, rep *domain.Report, err error, elapsed time.Duration) {
	if err != nil {
		m.Registry.ObserveResearch(string(domain.KindOf(err)), elapsed, 0)
		return
	}
	m.Registry.ObserveResearch("ok", elapsed, len(rep.Sources))
}

// LogHook writes a completion record per research call. Every Service
// carries one; candidate and news failures are logged where they happen.
type LogHook struct {
	Logger *slog.Logger
}

func (LogHook) CandidateFailed(context.Context, string, error) {}

func (LogHook) NewsFailed(context.Context, error) {}

func (l LogHook) Completed(ctx context.Context, rep *domain.Report, err error, elapsed time.Duration) {
	if err != nil {
		l.Logger.LogAttrs(ctx, slog.LevelError, "research failed",
			slog.String("kind", string(domain.KindOf(err))),
			slog.String("err", err.Error()),
			slog.Duration("duration", elapsed))
		return
	}
	l.Logger.LogAttrs(ctx, slog.LevelInfo, "research complete",
		slog.String("report_id", rep.ID),
		slog.String("query", rep.Query),
		slog.Int("sources", len(rep.Sources)),
		slog.Int("contradictions", len(rep.Contradictions)),
		slog.Duration("duration", elapsed))
}
