package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/cmr-client/pkg/client"
	"github.com/Sternrassler/cmr-client/pkg/config"
	"github.com/Sternrassler/cmr-client/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(os.Getenv("CMR_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.Setup(cfg.LoggingConfig()).With().Str("component", logging.ComponentProxy).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// run serves the proxy until ctx is done, then shuts the server down.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	redisClient := cfg.RedisClient()
	if redisClient != nil {
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis, response cache enabled")
	}

	clientCfg, err := cfg.ClientConfig(ctx, redisClient)
	if err != nil {
		return err
	}

	cmrClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create cmr client: %w", err)
	}
	defer cmrClient.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newServer(cmrClient, clientCfg, cmrClient.GetCache(), logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	egp, ctx := errgroup.WithContext(ctx)
	egp.Go(func() error {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("cmr", clientCfg.Root()).
			Bool("authorized", clientCfg.Authorization != "").
			Msg("Starting CMR proxy server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	egp.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Shutting down CMR proxy server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return egp.Wait()
}
