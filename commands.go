package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/maintenance"
	"storefront/internal/repositories"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  c.runServe,
	}
	cmd.Flags().String("port", "", "listen address, e.g. :5000 (env APP_PORT)")
	cmd.Flags().String("auth-mode", "", "jwt or session (env AUTH_MODE)")
	_ = c.v.BindPFlag(config.KeyAppPort, cmd.Flags().Lookup("port"))
	_ = c.v.BindPFlag(config.KeyAuthMode, cmd.Flags().Lookup("auth-mode"))
	return cmd
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	cfg := c.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := c.openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	if cfg.Database.InitSchema {
		if err := database.InitSchema(db); err != nil {
			if errors.Is(err, database.ErrLegacySchema) {
				return fmt.Errorf("%w: run 'storefront migrate' first", err)
			}
			return err
		}
		log.Info().Msg("Database schema ready")
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable; purchase events disabled")
		} else {
			defer mq.Close()
			publisher = mq
			if err := mq.ConsumePurchaseEvents(events.PurchaseLogger(cfg.LowStockThreshold)); err != nil {
				log.Warn().Err(err).Msg("Failed to start purchase event consumer")
			}
		}
	}

	scheduler := maintenance.New(db)
	if err := scheduler.Start(cfg.MaintenanceSchedule); err != nil {
		log.Warn().Err(err).Str("schedule", cfg.MaintenanceSchedule).Msg("Failed to schedule database maintenance")
	}
	defer scheduler.Stop()

	app := server.New(cfg, db, server.Options{
		Publisher: publisher,
		AccessLog: c.logOutput,
	})

	addr := listenAddr(cfg.AppPort)
	log.Info().
		Str("version", version).
		Str("addr", addr).
		Str("auth_mode", cfg.AuthMode).
		Str("cors_origins", cfg.CORSAllowOrigins).
		Msg("Starting storefront")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("Error during Fiber shutdown")
	}
	log.Info().Msg("Server gracefully stopped")
	return nil
}

// listenAddr accepts a bare port as well as host:port.
func listenAddr(port string) string {
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func (c *cli) initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create any missing tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.InitSchema(db); err != nil {
				if errors.Is(err, database.ErrLegacySchema) {
					return fmt.Errorf("%w: run 'storefront migrate' first", err)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database schema initialized.")
			return nil
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade a legacy purchases table to purchase_time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			migrated, err := database.MigrateLegacyPurchases(db)
			if err != nil {
				return err
			}
			if migrated {
				fmt.Fprintln(cmd.OutOrStdout(), "Database schema updated successfully.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Database schema already up to date.")
			}
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the sample catalogue into an empty database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.InitSchema(db); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			productService := services.NewProductService(repositories.NewGORMProductRepository(db))
			added, err := productService.SeedProducts(ctx, services.DefaultCatalogue())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products.\n", added)
			return nil
		},
	}
}
