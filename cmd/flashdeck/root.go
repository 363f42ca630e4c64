package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashdeck/internal/config"
	"github.com/conorfennell/flashdeck/internal/stats"
	"github.com/conorfennell/flashdeck/internal/storage"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "flashdeck",
		Short:         "Study vocabulary decks with adaptive random runs",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			})))
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(a),
		newSyncCmd(a),
		newIDsCmd(a),
		newStatsCmd(a),
		newMigrateCmd(a),
	)
	return root
}

// openStore opens the stats database, migrating legacy data on first use.
func (a *app) openStore() (*stats.Store, func() error, error) {
	kv, err := storage.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open stats database: %w", err)
	}
	slog.Info("Database opened successfully", "path", a.cfg.DBPath)
	return stats.New(kv), kv.Close, nil
}
