package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/seafood-tracker/mobile-bff/internal/cache"
	"github.com/seafood-tracker/mobile-bff/internal/cache/dynamo"
	"github.com/seafood-tracker/mobile-bff/internal/cache/memory"
	"github.com/seafood-tracker/mobile-bff/internal/cache/postgres"
	"github.com/seafood-tracker/mobile-bff/internal/catalog"
	"github.com/seafood-tracker/mobile-bff/internal/config"
	"github.com/seafood-tracker/mobile-bff/internal/recognition"
	"github.com/seafood-tracker/mobile-bff/internal/server"
	"github.com/seafood-tracker/mobile-bff/internal/upstream"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bff",
		Short: "Mobile gateway for the seafood price tracker",
		Long: `bff aggregates the core data service and the ML recognition service
behind a single mobile-facing API, with a cache-aside layer in front of
all upstream reads and a unified error contract.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing cache store: %w", err)
	}

	client := upstream.New(cfg.CoreServiceURL, cfg.MLServiceURL, cfg.UpstreamTimeout, logger)
	aside := cache.NewAside(store, logger)

	srv := server.New(
		catalog.New(client, aside),
		recognition.New(client, logger),
		logger,
	)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("gateway listening",
		"addr", cfg.ListenAddr,
		"core", cfg.CoreServiceURL,
		"ml", cfg.MLServiceURL)

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// newStore builds the cache backend selected by the CACHE_URL scheme.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Store, error) {
	u, err := url.Parse(cfg.CacheURL)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "memory":
		return memory.New(), nil

	case "postgres", "postgresql":
		db, err := sql.Open("postgres", cfg.CacheURL)
		if err != nil {
			return nil, err
		}
		return postgres.New(ctx, db, &postgres.Config{SweepExpired: true}, logger)

	case "dynamodb":
		opts := []func(*awsconfig.LoadOptions) error{}
		if region := u.Query().Get("region"); region != "" {
			opts = append(opts, awsconfig.WithRegion(region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, err
		}

		client := dynamodb.NewFromConfig(awsCfg)
		if err := dynamo.EnsureTable(ctx, client, u.Host); err != nil {
			return nil, err
		}
		return dynamo.New(client, &dynamo.Config{Table: u.Host})

	default:
		return nil, fmt.Errorf("unsupported cache scheme %q", u.Scheme)
	}
}
