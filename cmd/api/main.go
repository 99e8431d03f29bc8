// Package main provides the entrypoint for the GrainGuard API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/grainguard/grainguard/internal/agro"
	"github.com/grainguard/grainguard/internal/api"
	"github.com/grainguard/grainguard/internal/api/handler"
	"github.com/grainguard/grainguard/internal/api/middleware"
	"github.com/grainguard/grainguard/internal/assessment"
	"github.com/grainguard/grainguard/internal/database"
	"github.com/grainguard/grainguard/internal/featureflags"
	"github.com/grainguard/grainguard/internal/fusion"
	"github.com/grainguard/grainguard/internal/location"
	"github.com/grainguard/grainguard/internal/risk"
	"github.com/grainguard/grainguard/internal/soil"
	"github.com/grainguard/grainguard/internal/telemetry"
	"github.com/grainguard/grainguard/internal/vegetation"
	"github.com/grainguard/grainguard/internal/weather"
	"github.com/grainguard/grainguard/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "grainguard-api"

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
		Msg("starting GrainGuard API")

	port := envOrDefault("APP_PORT", "8080")
	env := envOrDefault("APP_ENV", "development")
	otlpEndpoint := envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")

	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Storage. DB_ENABLED=false keeps everything in memory for local runs.
	var pool *pgxpool.Pool
	if os.Getenv("DB_ENABLED") != "false" {
		dbConfig := database.ConfigFromEnv()
		pool, err = database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
	} else {
		log.Warn().Msg("database disabled, using in-memory repositories")
	}

	var flagRepo featureflags.Repository
	var assessmentRepo assessment.Repository
	if pool != nil {
		flagRepo = featureflags.NewPostgresRepository(pool)
		assessmentRepo = assessment.NewPostgresRepository(pool)
	} else {
		flagRepo = featureflags.NewInMemoryRepository()
		assessmentRepo = assessment.NewInMemoryRepository()
	}

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Signal providers fall back to static readings without API keys so
	// the service stays runnable in development.
	weatherProvider, vegetationProvider, soilProvider := buildProviders(log)

	siteLat := envFloat("SITE_LAT", 0.5143)
	siteLon := envFloat("SITE_LON", 35.2698)
	locationProvider := location.NewProvider(location.ProviderConfig{
		Source: &location.StaticSource{Lat: siteLat, Lon: siteLon, AccuracyMeters: 50},
		Logger: log,
	})

	orchestrator := fusion.NewOrchestrator(fusion.OrchestratorConfig{
		Location:   locationProvider,
		Weather:    weatherProvider,
		Vegetation: vegetationProvider,
		Soil:       soilProvider,
		Flags:      ffService,
		Logger:     log,
	})
	log.Info().
		Float64("site_lat", siteLat).
		Float64("site_lon", siteLon).
		Msg("fusion orchestrator initialized")

	engine, err := risk.NewEngine(risk.EngineConfig{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize risk engine")
	}

	assessmentService := assessment.NewService(assessment.ServiceConfig{
		Repository:   assessmentRepo,
		Engine:       engine,
		Orchestrator: orchestrator,
		Logger:       log,
	})
	log.Info().Msg("assessment service initialized")

	operatorSecret := os.Getenv("OPERATOR_TOKEN_SECRET")
	if operatorSecret == "" {
		operatorSecret = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default operator token secret - not secure for production")
	}

	readinessChecks := map[string]handler.ReadinessCheckFunc{}
	if pool != nil {
		readinessChecks["database"] = func(ctx context.Context) error {
			return pool.Ping(ctx)
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		OperatorSecret:  []byte(operatorSecret),
		Orchestrator:    orchestrator,
		Assessments:     assessmentService,
		FeatureFlags:    ffService,
		ReadinessChecks: readinessChecks,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func buildProviders(log zerolog.Logger) (weather.Provider, vegetation.Provider, soil.Provider) {
	var weatherProvider weather.Provider
	if key := os.Getenv("OWM_API_KEY"); key != "" {
		weatherProvider = openweathermap.NewClient(openweathermap.ClientConfig{
			APIKey: key,
			Logger: log,
		})
		log.Info().Msg("OpenWeatherMap weather provider initialized")
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
		log.Info().Msg("Agro vegetation and soil provider initialized")
	} else {
		vegetationProvider = &vegetation.StaticProvider{Index: vegetation.Index{Value: 0.55}}
		soilProvider = &soil.StaticProvider{Moisture: soil.Moisture{Percent: 42, SurfaceTempC: 22}}
		log.Warn().Msg("AGRO_API_KEY not set, using static vegetation and soil readings")
	}

	return weatherProvider, vegetationProvider, soilProvider
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
