package main

import (
	"context"
	"embed"
	"io/fs"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phimkappa/phimkappa/internal/cache"
	"github.com/phimkappa/phimkappa/internal/config"
	"github.com/phimkappa/phimkappa/internal/constants"
	"github.com/phimkappa/phimkappa/internal/handlers"
	"github.com/phimkappa/phimkappa/internal/metrics"
	"github.com/phimkappa/phimkappa/internal/middleware"
	"github.com/phimkappa/phimkappa/internal/resolver"
	"github.com/phimkappa/phimkappa/internal/services"
	"github.com/phimkappa/phimkappa/internal/tracing"
	"github.com/phimkappa/phimkappa/pkg/httputil"
	"github.com/phimkappa/phimkappa/pkg/logger"
)

//go:embed public
var publicFiles embed.FS

var (
	Logger           logger.Logger
	Config           *config.Config
	Store            cache.Store
	responseCache    *cache.ResponseCache
	handler          *handlers.Handler
	serviceContainer *services.Container
)

func InitializeConfig() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[App] failed to load configuration: %v", err)
	}
	Config = cfg
}

func InitializeLogger() {
	Logger = logger.NewWithOptions(logger.Options{
		Level:      Config.LogLevel,
		File:       Config.LogFile,
		MaxSizeMB:  Config.LogMaxSizeMB,
		MaxBackups: Config.LogMaxBackups,
		MaxAgeDays: Config.LogMaxAgeDays,
	})

	switch Config.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		Logger.Warnf("[App] warning: unknown log level '%s', defaulting to info", Config.LogLevel)
	}
}

func InitializeStore() {
	var err error
	Store, err = cache.Open(Config)
	if err != nil {
		Logger.Fatalf("[App] failed to open %s resolution cache: %v", Config.CacheBackend, err)
	}
	Logger.Infof("[App] %s resolution cache initialized successfully", Config.CacheBackend)
}

func InitializeServices() {
	var err error
	responseCache, err = cache.New(Config.ResponseCacheSize, Config.ResponseCacheTTL)
	if err != nil {
		Logger.Fatalf("[App] failed to create response cache: %v", err)
	}

	catalog := services.NewPhimAPI(Config, responseCache, Logger)

	linkResolver, err := resolver.New(
		Store,
		httputil.NewProbeClient(constants.MaxProbeTimeout),
		Logger,
		resolver.OptionsFromConfig(Config),
	)
	if err != nil {
		Logger.Fatalf("[App] failed to create link resolver: %v", err)
	}

	var cleanup *services.CleanupService
	if sweeper, ok := Store.(cache.Sweeper); ok {
		cleanup = services.NewCleanupService(sweeper, Logger)
	}

	serviceContainer = &services.Container{
		Catalog:  catalog,
		Resolver: linkResolver,
		Store:    Store,
		Cleanup:  cleanup,
		Logger:   Logger,
	}

	handler = handlers.New(serviceContainer, Config)

	Logger.Infof("[App] services initialized successfully (probe strategy: %s, hosts: %v)",
		Config.ProbeStrategy, Config.ResolverHosts)
}

// InitializeTracing installs the OTLP exporter when enabled and returns its shutdown func.
func InitializeTracing() func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !Config.TracingEnabled {
		return noop
	}

	shutdown, err := tracing.InitTrace(Config.OtlpEndpoint, Config.ServiceName)
	if err != nil {
		Logger.Errorf("[App] failed to initialize tracing, continuing without it: %v", err)
		return noop
	}
	Logger.Infof("[App] exporting traces to %s", Config.OtlpEndpoint)
	return shutdown
}

// setupRouter builds the gin engine with middleware, static assets and all routes.
func setupRouter(cfg *config.Config, h *handlers.Handler, appLogger logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(appLogger))
	if cfg.MetricsEnabled {
		metrics.Init()
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.Gzip())
	r.Use(middleware.CORS())

	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	public, err := fs.Sub(publicFiles, "public")
	if err != nil {
		appLogger.Fatalf("[App] failed to load static assets: %v", err)
	}
	r.StaticFS("/public", http.FS(public))

	h.RegisterRoutes(r)
	return r
}
