// Command start runs the HTTP API: it loads configuration, migrates the
// database when the postgres driver is selected, wires services and
// handlers, and serves until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/start-service/internal/config"
	"github.com/deppfellow/start-service/internal/database"
	"github.com/deppfellow/start-service/internal/handler"
	"github.com/deppfellow/start-service/internal/logger"
	"github.com/deppfellow/start-service/internal/middleware"
	"github.com/deppfellow/start-service/internal/repository"
	"github.com/deppfellow/start-service/internal/router"
	"github.com/deppfellow/start-service/internal/server"
	"github.com/deppfellow/start-service/internal/service"
)

const (
	migrateTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	if err != nil {
		panic("failed to initialize New Relic: " + err.Error())
	}
	defer loggerService.Shutdown(shutdownTimeout)

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if cfg.UsesPostgres() {
		ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
		err := database.Migrate(ctx, &log, cfg)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register models")
	}

	services, err := service.NewServices(context.Background(), srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create services")
	}

	handlers := handler.NewHandlers(srv, services)
	middlewares := middleware.NewMiddlewares(srv)
	r := router.NewRouter(srv, handlers, middlewares)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
