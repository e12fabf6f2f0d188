package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vanshika/basketwise/internal/auth"
	"github.com/vanshika/basketwise/internal/catalog"
	"github.com/vanshika/basketwise/internal/config"
	"github.com/vanshika/basketwise/internal/graph"
	"github.com/vanshika/basketwise/internal/logging"
	"github.com/vanshika/basketwise/internal/metrics"
	"github.com/vanshika/basketwise/internal/optimizer"
	"github.com/vanshika/basketwise/internal/poolcache"
	"github.com/vanshika/basketwise/internal/repository"
	"github.com/vanshika/basketwise/internal/server"
	"github.com/vanshika/basketwise/internal/service"
	"github.com/vanshika/basketwise/internal/store"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	db, err := store.New(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to open catalog database", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}
	defer db.Close()

	products, err := catalog.New(ctx, db)
	if err != nil {
		logger.Fatal("failed to prepare catalog", zap.Error(err))
	}
	users, err := auth.NewUserRepository(ctx, db)
	if err != nil {
		logger.Fatal("failed to prepare user store", zap.Error(err))
	}

	normalizer, err := buildNormalizer(cfg.Engine)
	if err != nil {
		logger.Fatal("failed to load weight rules", zap.String("path", cfg.Engine.WeightRulesPath), zap.Error(err))
	}

	health := server.CompositeHealth{
		"catalog": server.ProbeFunc(db.Ping),
	}

	var lists service.ListRepository
	if cfg.Graph.URI != "" {
		graphClient, err := graph.NewNeo4jClient(ctx, graph.Options{
			URI:            cfg.Graph.URI,
			Database:       cfg.Graph.Database,
			Username:       cfg.Graph.Username,
			Password:       cfg.Graph.Password,
			MaxConnections: cfg.Graph.MaxConnections,
		})
		if err != nil {
			logger.Fatal("failed to create graph client", zap.String("uri", cfg.Graph.URI), zap.Error(err))
		}
		defer func() {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", zap.Error(err))
			}
		}()
		lists = repository.New(graphClient)
		health["graph"] = server.GraphHealthService{Client: graphClient}
	} else if cfg.IsDevelopment() {
		logger.Warn("GRAPH_URI not set, saved lists are kept in memory only")
		lists = repository.NewMemory()
	} else {
		logger.Fatal("failed to create graph client", zap.Error(graph.ErrMissingURI))
	}

	var pools poolcache.Store
	if cfg.Redis.URL != "" {
		redisStore, err := poolcache.NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.PoolTTL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		pools = redisStore
		health["cache"] = server.ProbeFunc(redisStore.Ping)
	} else {
		logger.Info("REDIS_URL not set, caching candidate pools in memory")
		pools = poolcache.NewMemoryStore(cfg.Redis.PoolTTL)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Only reachable in development; config validation rejects it elsewhere.
		secret = uuid.NewString()
		logger.Warn("AUTH_JWT_SECRET not set, using an ephemeral signing secret")
	}
	authService := auth.NewService(users, secret, cfg.Auth.TokenTTL, logger)

	planner := service.NewPlanner(products, lists, pools, service.Options{
		Normalizer:          normalizer,
		RecommendationLimit: cfg.Engine.RecommendationLimit,
		RangePathWarnLimit:  cfg.Engine.RangePathWarnLimit,
		Metrics:             m,
		Logger:              logger,
	})

	origins := parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV)
	deps := server.RouterDependencies{
		Health:           health,
		API:              server.NewAPIHandlers(logger, planner, m, origins),
		Auth:             server.NewAuthHandlers(logger, authService),
		Metrics:          m,
		AllowedOrigins:   origins,
		AllowCredentials: true,
	}
	if cfg.HTTP.MetricsEnabled {
		deps.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	srv := server.New(logger, cfg.HTTP, server.NewRouter(logger, deps))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildNormalizer(cfg config.EngineConfig) (*optimizer.Normalizer, error) {
	rules := optimizer.DefaultRules()
	if cfg.WeightRulesPath != "" {
		loaded, err := optimizer.LoadRules(cfg.WeightRulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return optimizer.NewNormalizer(rules, cfg.DefaultUnitWeight), nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
