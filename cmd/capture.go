package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagCaptureLines int

var captureCmd = &cobra.Command{
	Use:   "capture <pane>",
	Short: "Print the captured tail of a pane",
	Long: `Capture a tmux pane and print its last non-blank lines, escape sequences
included, exactly as the status classifier sees them.

The pane is a tmux target: a pane id ("%12") or "session:window.pane".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, "")
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		lines := a.cfg.CaptureLines
		if cmd.Flags().Changed("lines") {
			lines = flagCaptureLines
		}
		content, err := a.mux.CapturePane(ctx, args[0], lines)
		if err != nil {
			return fmt.Errorf("failed to capture pane %q: %w", args[0], err)
		}
		fmt.Fprintln(os.Stdout, content)
		return nil
	},
}

func init() {
	captureCmd.Flags().IntVar(&flagCaptureLines, "lines", 0, "trailing non-blank lines to keep, 0 for all (default: capture_lines from config)")
	rootCmd.AddCommand(captureCmd)
}
