package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/kconfig/pkg/kerr"
	"github.com/openfroyo/kconfig/pkg/store"
)

var historyDB string

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded configuration snapshots",
	}
	cmd.PersistentFlags().StringVar(&historyDB, "db", "kconfig-history.db", "path to the snapshot history database")

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryDiffCommand())
	return cmd
}

func newHistoryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded snapshots, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cmd.Context(), store.Config{Path: historyDB})
			if err != nil {
				return kerr.New(kerr.ClassIO, "store", "opening history store", err)
			}
			defer st.Close()

			snaps, err := st.ListSnapshots(cmd.Context())
			if err != nil {
				return kerr.New(kerr.ClassIO, "store", "listing snapshots", err)
			}
			for _, s := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d symbols\t%s\n", s.ID, s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), s.Label, s.SymbolCount, s.ConfigPath)
			}
			return nil
		},
	}
}

func newHistoryDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <from-id> <to-id>",
		Short: "Show symbols that differ between two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cmd.Context(), store.Config{Path: historyDB})
			if err != nil {
				return kerr.New(kerr.ClassIO, "store", "opening history store", err)
			}
			defer st.Close()

			diffs, err := st.Diff(cmd.Context(), args[0], args[1])
			if err != nil {
				return kerr.New(kerr.ClassIO, "store", "computing diff", err)
			}
			for _, d := range diffs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %q -> %q\n", d.Symbol, d.Before, d.After)
			}
			return nil
		},
	}
}
