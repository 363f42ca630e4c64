package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashdeck/internal/deck"
	"github.com/conorfennell/flashdeck/internal/stats"
	"github.com/conorfennell/flashdeck/internal/sync"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Gather decks from the configured sources into the decks directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := sync.RunSync(cmd.Context(), sync.Options{
				Sources:  a.cfg.Sources,
				ReposDir: a.cfg.ReposDir,
				DecksDir: a.cfg.DecksDir,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Synced %d decks from %d sources, %d invalid, %d errors.\n",
				report.Decks, report.Sources, report.Invalid, len(report.Errors))
			if len(report.Errors) > 0 {
				fmt.Fprintln(out, "\nErrors:")
				for _, e := range report.Errors {
					fmt.Fprintf(out, "- %s\n", e)
				}
			}
			return nil
		},
	}
}

func newIDsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "Assign ids to deck cards that lack one and resolve duplicate ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := deck.AssignIDsInDir(a.cfg.DecksDir)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(updated))
			for name := range updated {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated ids in: %s (%d items)\n", name, updated[name])
			}
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var difficultOnly bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-card statistics, weakest cards first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSUCCESS\tFAILURE\tRATIO\tDIFFICULT")
			for _, row := range stats.Rows(store.GetAllRecords()) {
				if difficultOnly && !row.Difficult {
					continue
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%t\n", row.ID, row.Success, row.Failure, row.Ratio, row.Difficult)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&difficultOnly, "difficult", false, "Only list cards flagged difficult")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Fold legacy per-card stats and per-deck difficulty sets into the stats table",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			report := store.Migration()
			if !report.Applied {
				fmt.Fprintln(cmd.OutOrStdout(), "Already migrated; nothing to do.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d legacy stats entries and %d legacy deck difficulty sets into %d records.\n",
				report.LegacyStats, report.LegacyDecks, report.Records)
			return nil
		},
	}
}
