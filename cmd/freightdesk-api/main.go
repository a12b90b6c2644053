// README: Entry point; loads config, wires stores and services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"freightdesk/internal/ai"
	"freightdesk/internal/config"
	httptransport "freightdesk/internal/http"
	"freightdesk/internal/infra"
	"freightdesk/internal/logging"
	"freightdesk/internal/maps"
	"freightdesk/internal/modules/directory"
	"freightdesk/internal/modules/report"
	"freightdesk/internal/modules/trip"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("FREIGHT_JWT_SECRET is required")
	}

	logger, err := logging.New(cfg.Log.Dir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("db init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	var estimator trip.MileageEstimator
	if cfg.Maps.APIKey != "" {
		route, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps init", zap.Error(err))
		}
		estimator = route
	}

	tripStore := trip.NewPGStore(dbPool)
	engine := trip.NewEngine(tripStore, cfg.Engine, logger)
	tripSvc := trip.NewService(tripStore, engine, estimator, logger)

	directoryStore := directory.NewStore(dbPool, redisClient)
	directorySvc := directory.NewService(directoryStore, logger)

	reportSvc := report.NewService(engine, directorySvc, logger)

	var summarizer httptransport.ReportSummarizer
	if cfg.AI.GeminiKey != "" {
		sum, err := ai.NewSummarizer(ctx, cfg.AI.GeminiKey)
		if err != nil {
			logger.Fatal("gemini init", zap.Error(err))
		}
		defer sum.Close()
		summarizer = sum
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Trips:      tripSvc,
		Reports:    reportSvc,
		Directory:  directorySvc,
		Summarizer: summarizer,
		JWTSecret:  cfg.Auth.JWTSecret,
		Log:        logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server", zap.Error(err))
	}
}
