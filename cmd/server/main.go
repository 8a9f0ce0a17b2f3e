package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rideshare/internal/app"
	"rideshare/internal/config"
	"rideshare/internal/geo"
	"rideshare/internal/geocode"
	"rideshare/internal/handler"
	"rideshare/internal/logger"
	"rideshare/internal/metrics"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository/postgres"
	"rideshare/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	log, err := logger.New(cfg.Log.ServiceName, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn("failed to initialize New Relic", zap.Error(err))
		} else {
			log.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
			defer nrApp.Shutdown(cfg.Server.ShutdownTimeout)
		}
	}

	// Initialize database (and migrations) with New Relic instrumentation.
	db, err := app.NewDatabase(startCtx, cfg.Database, nrApp, log)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(startCtx, cfg.Redis, nrApp)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg, log)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *zap.Logger) *http.Server {
	// Metrics.
	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient, cfg.Tracking.LocationTTL)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	requestRepo := postgres.NewRequestRepository(db)
	placeRepo := postgres.NewPlaceRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)
	transactor := postgres.NewTransactor(db)

	estimator := geo.NewEstimator(cfg.Matching.AverageSpeedKmh)
	geocoder := geocode.NewClient(cfg.Geocoder, cacheStore, log)

	// Initialize services.
	notificationService := service.NewNotificationService(log)
	userService := service.NewUserService(userRepo, log)
	routeService := service.NewRouteService(routeRepo, userRepo, estimator, log)
	tripService := service.NewTripService(transactor, tripRepo, routeRepo, requestRepo, lockStore, cacheStore, notificationService, estimator, cfg.Matching.TripLockTTL, log)
	matchingService := service.NewMatchingService(tripRepo, ratingRepo, estimator, service.MatchingConfig{
		SearchRadiusKm: cfg.Matching.SearchRadiusKm,
		MaxDetourKm:    cfg.Matching.MaxDetourKm,
	}, log)
	requestService := service.NewRequestService(transactor, tripRepo, requestRepo, lockStore, cacheStore, notificationService, cfg.Matching.TripLockTTL, log)
	placeService := service.NewPlaceService(placeRepo, geocoder, log)
	ratingService := service.NewRatingService(ratingRepo, tripRepo, requestRepo, log)
	trackingService := service.NewTrackingService(locationStore, m, log)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:     handler.NewUserHandler(userService, ratingService),
		RouteHandler:    handler.NewRouteHandler(routeService),
		TripHandler:     handler.NewTripHandler(tripService, requestService),
		RequestHandler:  handler.NewRequestHandler(matchingService, requestService),
		OptimizeHandler: handler.NewOptimizeHandler(estimator),
		PlaceHandler:    handler.NewPlaceHandler(placeService),
		RatingHandler:   handler.NewRatingHandler(ratingService),
		TrackingHandler: handler.NewTrackingHandler(trackingService, log),
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		Metrics:         m,
		MetricsGatherer: gatherer,
		MetricsPath:     cfg.Metrics.Path,
		Logger:          log,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
