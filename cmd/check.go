package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/claude-panes/internal/model"
	"github.com/timvw/claude-panes/internal/status"
)

var flagCheckJSON bool

type checkResult struct {
	Pane   string       `json:"pane"`
	Status model.Status `json:"status"`
	Symbol string       `json:"symbol"`
}

var checkCmd = &cobra.Command{
	Use:   "check <pane>",
	Short: "Classify the status of a single pane",
	Long: `Capture one pane and classify it as working, idle, waiting for input or
unknown. The pane does not have to host a Claude Code instance; no process
attribution is done.

The pane is a tmux target: a pane id ("%12") or "session:window.pane".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, "")
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		content, err := a.mux.CapturePane(ctx, args[0], a.cfg.CaptureLines)
		if err != nil {
			return fmt.Errorf("failed to capture pane %q: %w", args[0], err)
		}
		st := status.Classify(content)
		a.logger.Debug("pane classified", "pane", args[0], "status", st.Label())

		if flagCheckJSON {
			return writeJSON(os.Stdout, checkResult{Pane: args[0], Status: st, Symbol: st.Symbol()})
		}
		fmt.Fprintf(os.Stdout, "%s %s\n", st.Symbol(), st.Label())
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&flagCheckJSON, "json", false, "print JSON")
	rootCmd.AddCommand(checkCmd)
}
