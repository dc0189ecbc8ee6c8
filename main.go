package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands once flags are parsed.
type cli struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logOutput  io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.NewViper()}

	root := &cobra.Command{
		Use:               "storefront",
		Short:             "Storefront - e-commerce backend",
		Long:              `Storefront serves user accounts, product search, stock-limited purchases and per-user chat logs over HTTP.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.prepare,
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: .env in the working directory, if present)")
	root.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	_ = c.v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		c.serveCmd(),
		c.initDBCmd(),
		c.migrateCmd(),
		c.seedCmd(),
		versionCmd(),
	)
	return root
}

// prepare loads configuration and sets up logging before any subcommand runs.
func (c *cli) prepare(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.v, c.configFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logOutput = logging.Setup(cfg.Log)
	return nil
}

// openDB opens the configured database with the fixed-size pool.
func (c *cli) openDB() (*gorm.DB, error) {
	if err := c.cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	db, err := database.Open(c.cfg.Database)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("driver", c.cfg.Database.Driver).
		Int("pool_size", c.cfg.Database.PoolSize).
		Msg("Database connected")
	return db, nil
}

func closeDB(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Printing the version needs no configuration.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "storefront %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
