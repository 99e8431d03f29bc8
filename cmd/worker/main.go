// Package main provides the entrypoint for the GrainGuard sweep worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/grainguard/grainguard/internal/agro"
	"github.com/grainguard/grainguard/internal/database"
	"github.com/grainguard/grainguard/internal/featureflags"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/vegetation"
	"github.com/grainguard/grainguard/internal/weather"
	"github.com/grainguard/grainguard/internal/weather/openweathermap"
	"github.com/grainguard/grainguard/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "grainguard-worker"

	// Local development convenience, a missing .env is fine.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting GrainGuard worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8081"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backs the feature flag service only; the worker keeps no
	// state of its own. DB_ENABLED=false runs with the flag defaults.
	var pool *pgxpool.Pool
	var flagRepo featureflags.Repository
	if os.Getenv("DB_ENABLED") != "false" {
		dbConfig := database.ConfigFromEnv()
		var err error
		pool, err = database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		flagRepo = featureflags.NewPostgresRepository(pool)
		log.Info().
			Str("host", dbConfig.Host).
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		flagRepo = featureflags.NewInMemoryRepository()
		log.Warn().Msg("database disabled, feature flags run on defaults")
	}

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})

	weatherProvider, vegetationProvider, soilProvider := buildProviders(log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sweepMetrics := worker.NewSweepMetrics(registry)

	sweepJob := worker.NewSweepJob(worker.SweepJobConfig{
		Config:     worker.DefaultSweepConfig(),
		Logger:     log,
		Weather:    weatherProvider,
		Vegetation: vegetationProvider,
		Soil:       soilProvider,
		Flags:      ffService,
		Metrics:    sweepMetrics,
	})

	// Health and metrics endpoints for the container platform.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health and metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Pub/Sub triggered sweeps when configured, a local ticker otherwise.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			SweepJob:         sweepJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer pubsubHandler.Close() //nolint:errcheck // best effort cleanup

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("pubsub handler stopped")
			}
		}()
		log.Info().
			Str("project", projectID).
			Str("subscription", subscription).
			Msg("sweeps triggered via pubsub")
	} else {
		interval := 1 * time.Hour
		if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
			if parsed, err := time.ParseDuration(raw); err == nil {
				interval = parsed
			}
		}

		go func() {
			log.Info().Dur("interval", interval).Msg("sweeps on local schedule")
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			sweepJob.Run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					sweepJob.Run(ctx)
				}
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func buildProviders(log zerolog.Logger) (weather.Provider, vegetation.Provider, soil.Provider) {
	var weatherProvider weather.Provider
	if key := os.Getenv("OWM_API_KEY"); key != "" {
		weatherProvider = openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey: key,
			Logger: log,
		})
	} else {
		weatherProvider = &weather.StaticProvider{
			Observation: weather.Observation{Temperature: 24, Humidity: 60, Condition: "Clear"},
		}
		log.Warn().Msg("OWM_API_KEY not set, using static weather readings")
	}

	var vegetationProvider vegetation.Provider
	var soilProvider soil.Provider
	if key := os.Getenv("AGRO_API_KEY"); key != "" {
		agroClient := agro.NewClient(agro.ClientConfig{
			APIKey: key,
			Logger: log,
		})
		vegetationProvider = agroClient
		soilProvider = agroClient
	} else {
		vegetationProvider = &vegetation.StaticProvider{Index: vegetation.Index{Value: 0.55}}
		soilProvider = &soil.StaticProvider{Moisture: soil.Moisture{Percent: 42, SurfaceTempC: 22}}
		log.Warn().Msg("AGRO_API_KEY not set, using static vegetation and soil readings")
	}

	return weatherProvider, vegetationProvider, soilProvider
}
