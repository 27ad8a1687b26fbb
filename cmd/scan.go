package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagScanJSON bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover and classify instances without git enrichment",
	Long: `Run only the discovery pass: list panes, snapshot processes, attribute
claude processes to panes and classify each pane's status.

This is the fast path the watch UI shows first; git information is reported
as pending.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, "")
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		instances, err := a.discoverer().Discover(ctx)
		if err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
		if flagScanJSON {
			return writeJSON(os.Stdout, instances)
		}
		return writeTable(os.Stdout, instances)
	},
}

func init() {
	scanCmd.Flags().BoolVar(&flagScanJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(scanCmd)
}
