package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	InitializeConfig()
	InitializeLogger()

	if Config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing := InitializeTracing()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), Config.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			Logger.Errorf("[App] failed to flush traces: %v", err)
		}
	}()

	InitializeStore()
	defer func() {
		if err := Store.Close(); err != nil {
			Logger.Errorf("[App] failed to close resolution cache: %v", err)
		}
	}()

	InitializeServices()
	defer responseCache.Close()

	r := setupRouter(Config, handler, Logger)

	var appHandler http.Handler = r
	if Config.TracingEnabled {
		appHandler = otelhttp.NewHandler(r, "http")
	}

	srv := &http.Server{
		Addr:              ":" + Config.Port,
		Handler:           appHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serviceContainer.Cleanup != nil {
		if err := serviceContainer.Cleanup.Start(stopCtx); err != nil {
			Logger.Errorf("[App] failed to start cache sweep: %v", err)
		}
		defer serviceContainer.Cleanup.Stop()
	}

	Logger.Infof("[App] server starting on port %s", Config.Port)
	if err := runWithGracefulShutdown(stopCtx, srv, Config.ShutdownTimeout); err != nil {
		Logger.Errorf("[App] server error: %v", err)
		return
	}
	Logger.Infof("[App] server stopped")
}

// runWithGracefulShutdown serves until stopCtx is done, then drains in-flight requests.
func runWithGracefulShutdown(stopCtx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-stopCtx.Done():
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	return nil
}
