package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mommydata/pkg/core/config"
	"mommydata/pkg/core/store"
	"mommydata/pkg/logging"
)

var (
	configPath string
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "mommydata",
		Short: "Maintain and query the maternal statistics database",
		Long: `mommydata manages the observation store behind the MommyData API:
schema migration, spreadsheet import and offline trend queries.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			_, err = logging.Setup(logging.Config{
				Level:   cfg.Logging.Level,
				JSON:    cfg.Logging.JSON,
				Service: cfg.Observability.ServiceName,
			})
			return err
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	rootCmd.AddCommand(migrateCmd, importCmd, factorCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// openStore connects the configured store and ensures its schema.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}
