package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/kconfig/pkg/kerr"
	"github.com/openfroyo/kconfig/pkg/store"
)

var (
	snapshotDB    string
	snapshotLabel string
)

func newSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [prior-config]",
		Short: "Evaluate a configuration and record it in the history store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				inputConfig = args[0]
			}
			return runSnapshot(cmd)
		},
	}
	cmd.Flags().StringVar(&snapshotDB, "db", "kconfig-history.db", "path to the snapshot history database")
	cmd.Flags().StringVar(&snapshotLabel, "label", "", "human-readable label for this snapshot")
	return cmd
}

func runSnapshot(cmd *cobra.Command) error {
	table, rep, renames, err := buildTable()
	if err != nil {
		return err
	}
	if err := loadPriorConfig(table, renames, rep, inputConfig); err != nil {
		return err
	}
	printDiagnostics(rep)

	st, err := store.Open(cmd.Context(), store.Config{Path: snapshotDB})
	if err != nil {
		return kerr.New(kerr.ClassIO, "store", "opening history store", err)
	}
	defer st.Close()

	var values []store.SymbolValue
	for _, sym := range table.Symbols() {
		if !sym.HasPrompt() {
			continue
		}
		a := sym.UserAssignment()
		values = append(values, store.SymbolValue{
			Symbol:    sym.Name,
			Value:     sym.StrValue().AsString(),
			IsDefault: a == nil || a.IsDefault,
		})
	}

	id, err := st.SaveSnapshot(cmd.Context(), snapshotLabel, inputConfig, values)
	if err != nil {
		return kerr.New(kerr.ClassIO, "store", "saving snapshot", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s saved (%d symbols)\n", id, len(values))
	return nil
}
