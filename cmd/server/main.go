// Command server runs the restaurant booking HTTP backend.
//
// Startup sequence: load environment configuration, configure logging, open
// and migrate the reservation store, seed the table catalog, start the
// session janitor, set up tracing, and serve the API with graceful shutdown.
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
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/whitefox-bar/go-booking-backend/internal/config"
	"github.com/whitefox-bar/go-booking-backend/internal/conversation"
	httpapi "github.com/whitefox-bar/go-booking-backend/internal/http"
	"github.com/whitefox-bar/go-booking-backend/internal/observability"
	"github.com/whitefox-bar/go-booking-backend/internal/repo"
	"github.com/whitefox-bar/go-booking-backend/internal/schedule"
	"github.com/whitefox-bar/go-booking-backend/internal/services"
	"github.com/whitefox-bar/go-booking-backend/internal/sysutil"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reservation store
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if err := repo.SeedTables(db, cfg.TableCount); err != nil {
		log.Fatal().Err(err).Msg("seed tables")
	}

	// Booking grid
	grid, err := schedule.NewGrid(cfg.OpenTime, cfg.CloseTime, cfg.SlotStep)
	if err != nil {
		log.Fatal().Err(err).Msg("build slot grid")
	}

	// In-flight conversations
	sessions := conversation.NewStore(cfg.SessionTTL)
	sessions.StartJanitor(ctx, cfg.SessionSweepEvery)

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	svc := services.NewBookingService(db, sessions, grid, cfg.AdminIDs)
	svc.HistoryLimit = cfg.HistoryLimit

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, svc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("base_path", cfg.APIBasePath).
			Int("tables", cfg.TableCount).
			Str("grid", cfg.OpenTime+"-"+cfg.CloseTime).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}
