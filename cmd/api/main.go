package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mintforge/collections-backend/api/routes"
	"github.com/mintforge/collections-backend/internal/collection"
	"github.com/mintforge/collections-backend/internal/committee"
	"github.com/mintforge/collections-backend/internal/factory"
	"github.com/mintforge/collections-backend/internal/locker"
	"github.com/mintforge/collections-backend/internal/paytoken"
	"github.com/mintforge/collections-backend/internal/registry"
	"github.com/mintforge/collections-backend/pkg/config"
	"github.com/mintforge/collections-backend/pkg/db"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/logger"
	"github.com/mintforge/collections-backend/pkg/metrics"
	"github.com/mintforge/collections-backend/pkg/migrate"
	"github.com/mintforge/collections-backend/pkg/outbox"
	"github.com/mintforge/collections-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)
	issuanceMetrics := metrics.NewIssuanceMetrics(promRegistry)

	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	locks := locker.NewKeyed()

	registryService, err := registry.NewService(registry.NewRepository(dbClient.DB()), dbClient, locks, events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create registry service", err)
		os.Exit(1)
	}

	collectionService, err := collection.NewService(
		collection.NewRepository(dbClient.DB()),
		dbClient,
		locks,
		registryService,
		cfg.Chain.GracePeriod,
		collection.Options{Events: events, Issuance: issuanceMetrics, Logger: logg},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create collection service", err)
		os.Exit(1)
	}

	factoryService, err := factory.NewService(
		factory.NewRepository(dbClient.DB()),
		dbClient,
		locks,
		collectionService,
		cfg.Chain.Factory(),
		cfg.Chain.Implementation(),
		factory.Options{Events: events, Logger: logg},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create factory service", err)
		os.Exit(1)
	}

	payTokenService, err := paytoken.NewService(paytoken.NewRepository(dbClient.DB()), dbClient, locks)
	if err != nil {
		logg.Error(context.Background(), "failed to create paytoken service", err)
		os.Exit(1)
	}

	committeeParams, err := committeeParamsFromConfig(cfg)
	if err != nil {
		logg.Error(context.Background(), "invalid committee configuration", err)
		os.Exit(1)
	}

	committeeService, err := committee.NewService(
		committee.NewRepository(dbClient.DB()),
		dbClient,
		factoryService,
		collectionService,
		payTokenService,
		committeeParams,
		committee.Options{Events: events, Logger: logg},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create committee service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, promRegistry, routes.Services{
			Collections: collectionService,
			Registry:    registryService,
			Factory:     factoryService,
			PayToken:    payTokenService,
			Committee:   committeeService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// committeeParamsFromConfig parses the committee policy addresses and fee.
// The forwarder comes from chain config since relayed calls flow through it.
func committeeParamsFromConfig(cfg *config.Config) (committee.Params, error) {
	params := committee.Params{Forwarder: cfg.Chain.Forwarder()}

	fee, err := decimal.NewFromString(cfg.Committee.CreationFee)
	if err != nil {
		return committee.Params{}, err
	}
	params.CreationFee = fee

	if cfg.Committee.FeesCollector != "" {
		collector, err := evm.ParseAddress(cfg.Committee.FeesCollector)
		if err != nil {
			return committee.Params{}, err
		}
		params.FeesCollector = collector
	}
	if cfg.Committee.Admin != "" {
		admin, err := evm.ParseAddress(cfg.Committee.Admin)
		if err != nil {
			return committee.Params{}, err
		}
		params.Admin = admin
	}
	if cfg.Committee.AcceptedToken != "" {
		if _, err := evm.ParseAddress(cfg.Committee.AcceptedToken); err != nil {
			return committee.Params{}, err
		}
	}
	return params, nil
}
