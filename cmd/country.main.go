package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"country-service/internal/config"
	"country-service/internal/repository"
	"country-service/internal/server"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "country-service",
		Short:         "Country reference data with exchange rates and estimated GDP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newRefreshCmd(), newMigrateCmd())
	return root
}

// bootstrap loads the optional .env file, the config and the logger.
func bootstrap() (config.AppConfig, *zap.Logger, error) {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger, err := newLogger(cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	if envErr != nil {
		logger.Debug("no .env file found, relying on system env vars")
	}
	return cfg, logger, nil
}

func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the refresh worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			srv, err := server.New(cfg, logger)
			if err != nil {
				logger.Error("startup failed", zap.Error(err))
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := srv.Run(ctx); err != nil {
				logger.Error("country service failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one reconciliation and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			srv, err := server.New(cfg, logger)
			if err != nil {
				logger.Error("startup failed", zap.Error(err))
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			n, err := srv.UC.ReconcileNow(ctx)
			if err != nil {
				logger.Error("refresh failed", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "records written: %d\n", n)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := config.ConnectDB(logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.EnsureSchema(context.WithoutCancel(cmd.Context()), db); err != nil {
				logger.Error("migration failed", zap.Error(err))
				return err
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}
