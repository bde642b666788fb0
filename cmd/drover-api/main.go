// Entry point; loads config, wires services and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"drover/internal/config"
	httptransport "drover/internal/http"
	"drover/internal/infra"
	"drover/internal/logging"
	"drover/internal/modules/bid"
	"drover/internal/modules/pricing"
	"drover/internal/platform"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New("drover-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	rides := platform.NewRideRequestClient(cfg.RideService.BaseURL)
	notifier := platform.NewRedisNotifier(redisClient, logger)

	bidStore := bid.NewStore(dbPool)
	bidSvc := bid.NewService(bidStore, rides, notifier, bid.Config{
		ListenTimeout: cfg.Bid.ListenTimeout,
	}, logger)

	pricingSvc := pricing.NewService()

	hub := httptransport.NewHub(logger)
	server := httptransport.NewServer(httptransport.ServerDeps{
		Bids:    bidSvc,
		Pricing: pricingSvc,
		Hub:     hub,
		Logger:  logger,
	})

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: server.Handler()}
	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
