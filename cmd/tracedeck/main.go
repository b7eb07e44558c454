package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	tdhttp "github.com/tracedeck/tracedeck/internal/adapter/http"
	tdnats "github.com/tracedeck/tracedeck/internal/adapter/nats"
	"github.com/tracedeck/tracedeck/internal/adapter/otel"
	"github.com/tracedeck/tracedeck/internal/adapter/postgres"
	"github.com/tracedeck/tracedeck/internal/adapter/ristretto"
	"github.com/tracedeck/tracedeck/internal/adapter/ws"
	"github.com/tracedeck/tracedeck/internal/config"
	"github.com/tracedeck/tracedeck/internal/logger"
	"github.com/tracedeck/tracedeck/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"decision_policy", cfg.Review.DecisionPolicy,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// Telemetry
	shutdownTelemetry, err := otel.Setup(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown", "error", err)
		}
	}()

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := tdnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Statistics cache
	statsCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer statsCache.Close()

	instruments, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	statsSvc := service.NewStatisticsService(store, statsCache, cfg.Cache.StatsTTL)
	projectSvc := service.NewProjectService(store)
	metricSvc := service.NewMetricService(store)
	taskSvc := service.NewTaskService(store, queue, hub, statsSvc, instruments)
	assignSvc := service.NewAssignmentService(store, taskSvc, instruments)
	submitSvc := service.NewSubmissionService(store, taskSvc, cfg.Review.DecisionPolicy, instruments)
	assessSvc := service.NewAssessmentService(store, taskSvc, instruments)

	// Consume simulation results published by workflow runners.
	cancelResults, err := assessSvc.StartResultSubscriber(ctx, queue)
	if err != nil {
		return fmt.Errorf("result subscriber: %w", err)
	}
	defer cancelResults()

	// Warm the dashboard rollups.
	if err := statsSvc.RefreshAll(ctx); err != nil {
		slog.Warn("statistics warm-up failed", "error", err)
	}

	// --- HTTP ---
	handlers := &tdhttp.Handlers{
		Projects:    projectSvc,
		Metrics:     metricSvc,
		Tasks:       taskSvc,
		Assignments: assignSvc,
		Submissions: submitSvc,
		Assessments: assessSvc,
		Statistics:  statsSvc,
	}

	r := chi.NewRouter()

	r.Use(tdhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(tdhttp.SecurityHeaders)
	r.Use(tdhttp.RequestID)
	r.Use(tdhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}

	r.Get("/health", healthHandler(queue, hub))
	r.Get("/ws", hub.HandleWS)

	tdhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports liveness plus broker and websocket status.
func healthHandler(queue *tdnats.Queue, hub *ws.Hub) http.HandlerFunc {
	type healthStatus struct {
		Status    string `json:"status"`
		NATS      string `json:"nats"`
		WSClients int    `json:"ws_clients"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		nats := "connected"
		if !queue.IsConnected() {
			nats = "disconnected"
		}
		status := healthStatus{
			Status:    "ok",
			NATS:      nats,
			WSClients: hub.ConnectionCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
