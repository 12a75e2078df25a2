package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tour-route-service/internal/adapters/cache"
	"tour-route-service/internal/adapters/events"
	"tour-route-service/internal/adapters/repositories"
	"tour-route-service/internal/adapters/routing"
	"tour-route-service/internal/adapters/speech"
	"tour-route-service/internal/api"
	"tour-route-service/internal/config"
	"tour-route-service/internal/metrics"
	"tour-route-service/internal/platform/db"
	"tour-route-service/internal/platform/obs"
	"tour-route-service/internal/ports"
	"tour-route-service/internal/services/authoring"
	"tour-route-service/internal/services/routecompute"
	"tour-route-service/internal/services/tours"
	"tour-route-service/internal/services/visits"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, NATS, OSRM, ElevenLabs) behind ports and starts the HTTP server.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	var (
		repo       ports.TourRepository
		routeCache ports.RouteCache
	)

	if cfg.Database.URL != "" {
		pool, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			if err := repositories.InitSchema(ctx, pool); err != nil {
				log.Fatalf("database: %v", err)
			}
		}

		repo = repositories.NewPostgresTourRepository(pool, logger)
		routeCache = cache.NewPostgresRouteCache(pool, cfg.Redis.TTL)
	} else {
		logger.WarnContext(ctx, "database.url not set, tours are kept in memory")
		repo = repositories.NewMemoryTourRepository()
	}

	// Redis takes precedence over the table cache when both are configured.
	if client := cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); client != nil {
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WarnContext(ctx, "redis unavailable, route cache disabled", "error", err)
		} else {
			routeCache = cache.NewRedisRouteCache(client, cfg.Redis.TTL)
		}
	}

	var publisher ports.EventPublisher = events.NewLogPublisher(logger)
	if cfg.NATS.URL != "" {
		nc, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			logger.WarnContext(ctx, "nats unavailable, events are only logged", "error", err)
		} else {
			defer func() { _ = nc.Drain() }()
			publisher = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
		}
	}

	provider, err := routing.NewProvider(routing.ProviderConfig{
		Type:      routing.ProviderType(cfg.Routing.Provider),
		BaseURL:   cfg.Routing.BaseURL,
		Profile:   cfg.Routing.Profile,
		APIKey:    cfg.Routing.APIKey,
		RateLimit: cfg.Routing.RateLimit,
		Timeout:   cfg.Routing.Timeout,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("routing provider: %v", err)
	}
	logger.InfoContext(ctx, "routing provider initialized", "type", cfg.Routing.Provider)

	var synthesizer ports.SpeechSynthesizer
	if cfg.Speech.APIKey != "" {
		synthesizer = speech.NewElevenLabsClient(speech.Options{
			APIKey:  cfg.Speech.APIKey,
			VoiceID: cfg.Speech.VoiceID,
			ModelID: cfg.Speech.ModelID,
		})
	}

	routeSvc := routecompute.NewService(provider, cfg.Routing.Provider, routeCache, appMetrics, logger)
	visitSvc := visits.NewService(repo, publisher, cfg.Proximity.ArrivalThresholdMeters, appMetrics, logger)
	defer visitSvc.Close()

	sessions := authoring.NewRegistry(routeSvc, publisher, appMetrics, logger)
	go sessions.RunReaper(ctx, cfg.Retention.ReapInterval, cfg.Retention.SessionIdle)
	go visitSvc.RunReaper(ctx, cfg.Retention.ReapInterval, cfg.Retention.VisitIdle)

	router := api.NewRouter(api.Deps{
		Sessions:       sessions,
		Tours:          tours.NewService(repo, synthesizer, logger),
		Visits:         visitSvc,
		Metrics:        appMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:            logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
