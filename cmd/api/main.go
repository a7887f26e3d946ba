// Package main implements the research API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WessleyAI/wessley-research/engine/domain"
	"github.com/WessleyAI/wessley-research/internal/app"
	"github.com/WessleyAI/wessley-research/pkg/config"
	"github.com/WessleyAI/wessley-research/pkg/metrics"
	"github.com/WessleyAI/wessley-research/pkg/mid"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Researcher is the part of research.Service the handlers use.
type Researcher interface {
	Research(ctx context.Context, rawQuery, timeRange string) (*domain.Report, error)
	RefineSearch(ctx context.Context, rawQuery string, additionalTerms []string) (*domain.Report, error)
}

func main() {
	cfg, err := config.Load(os.Getenv("RESEARCH_CONFIG"))
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited with error", "err", err)
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

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newHandler(a.Service, a.Metrics, logger, cfg.Server.CORSOrigin, cfg.Tracing.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Research calls can take up to the configured timeout.
		WriteTimeout: cfg.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newHandler(svc Researcher, reg *metrics.Registry, logger *slog.Logger, corsOrigin, serviceName string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/research", handleResearch(svc, logger))
	mux.HandleFunc("POST /api/research/refine", handleRefine(svc, logger))
	mux.Handle("GET /metrics", reg.Handler())

	// Metrics sits innermost so it sees the pattern the mux matched.
	return mid.Chain(mux,
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(corsOrigin),
		mid.OTel(serviceName),
		mid.Metrics(reg),
	)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResearchRequest is the JSON body for POST /api/research.
type ResearchRequest struct {
	Query     string `json:"query"`
	TimeRange string `json:"time_range,omitempty"`
}

// RefineRequest is the JSON body for POST /api/research/refine.
type RefineRequest struct {
	Query string   `json:"query"`
	Terms []string `json:"terms"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

func handleResearch(svc Researcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResearchRequest
		if !decode(w, r, &req) {
			return
		}
		if err := domain.ValidateRequest(req.Query, req.TimeRange); err != nil {
			writeError(w, r, logger, err)
			return
		}
		rep, err := svc.Research(r.Context(), req.Query, req.TimeRange)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func handleRefine(svc Researcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefineRequest
		if !decode(w, r, &req) {
			return
		}
		if err := domain.ValidateRequest(req.Query, ""); err != nil {
			writeError(w, r, logger, err)
			return
		}
		if err := domain.ValidateTerms(req.Terms); err != nil {
			writeError(w, r, logger, err)
			return
		}
		rep, err := svc.RefineSearch(r.Context(), req.Query, req.Terms)
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:     "invalid request body",
			Kind:      "validation",
			RequestID: mid.GetRequestID(r.Context()),
		})
		return false
	}
	return true
}

// statusFor maps an error to its HTTP status and kind label.
func statusFor(err error) (int, string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "validation"
	}
	switch kind := domain.KindOf(err); kind {
	case domain.KindNoResults:
		return http.StatusNotFound, string(kind)
	case domain.KindTimeout:
		return http.StatusGatewayTimeout, string(kind)
	default:
		return http.StatusBadGateway, string(domain.KindUnexpected)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, kind := statusFor(err)
	if status >= 500 {
		logger.Error("request failed", "path", r.URL.Path, "kind", kind, "err", err, "request_id", mid.GetRequestID(r.Context()))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind, RequestID: mid.GetRequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
