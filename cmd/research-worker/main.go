// Command research-worker answers research requests over NATS and, when a
// knowledge base is configured, indexes documents queued on research.index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/wessley-research/engine/ingest"
	"github.com/WessleyAI/wessley-research/engine/research"
	"github.com/WessleyAI/wessley-research/internal/app"
	"github.com/WessleyAI/wessley-research/pkg/config"
	"github.com/WessleyAI/wessley-research/pkg/natsutil"
)

func main() {
	cfg, err := config.Load(os.Getenv("RESEARCH_CONFIG"))
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Close(shutCtx)
	}()
	slog.SetDefault(a.Logger)
	logger := a.Logger

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("research-worker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Drain()

	if _, err := serve(nc, cfg, a.Service.Handle, logger); err != nil {
		return err
	}
	logger.Info("serving research requests", "subject", cfg.NATS.Subject, "queue", cfg.NATS.Queue)

	if deps, ok := a.IngestDeps(); ok {
		if err := a.EnsureKnowledgeBase(ctx); err != nil {
			return err
		}
		if _, err := ingest.StartConsumer(nc, deps); err != nil {
			return fmt.Errorf("start index consumer: %w", err)
		}
		logger.Info("indexing documents", "subject", ingest.IndexSubject, "collection", a.Vectors.Collection())
	} else {
		logger.Warn("knowledge base not configured, indexing disabled")
	}

	a.Metrics.ServeAsync(cfg.Metrics.Port, logger)

	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}

// serve answers research requests on the configured subject and queue, and
// announces every completed report on the reports subject.
func serve(nc *nats.Conn, cfg *config.Config, handle func(context.Context, research.Request) research.Response, logger *slog.Logger) (*nats.Subscription, error) {
	sub, err := natsutil.Handle(nc, cfg.NATS.Subject, cfg.NATS.Queue, logger, func(ctx context.Context, req research.Request) research.Response {
		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		resp := handle(ctx, req)
		if resp.Report == nil {
			logger.Warn("research request failed", "query", req.Query, "kind", resp.Kind, "err", resp.Error)
			return resp
		}
		if cfg.NATS.ReportsSubject != "" {
			if err := natsutil.Publish(ctx, nc, cfg.NATS.ReportsSubject, resp.Report); err != nil {
				logger.Warn("publish report failed", "id", resp.Report.ID, "err", err)
			}
		}
		return resp
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", cfg.NATS.Subject, err)
	}
	return sub, nil
}
