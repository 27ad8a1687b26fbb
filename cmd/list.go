package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/timvw/claude-panes/internal/loader"
	"github.com/timvw/claude-panes/internal/model"
	"github.com/timvw/claude-panes/internal/registry"
)

var flagListJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List Claude Code instances with status and git context",
	Long: `Run one full discovery cycle, wait for git enrichment to finish and print
every Claude Code instance.

The table shows the pane target, pane id, status, branch and working directory.
Use --json for machine-readable output including the full git context.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx, "")
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		instances, err := collect(ctx, a.loader())
		if err != nil {
			return fmt.Errorf("discovery failed: %w", err)
		}
		if flagListJSON {
			return writeJSON(os.Stdout, instances)
		}
		return writeTable(os.Stdout, instances)
	},
}

func init() {
	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(listCmd)
}

// collect runs one cycle to completion and merges its messages the same way
// the watch UI does.
func collect(ctx context.Context, l *loader.Loader) ([]model.Instance, error) {
	msgs, err := l.Run(ctx)
	if err != nil {
		return nil, err
	}
	reg := registry.New()
	for _, msg := range msgs {
		reg.Apply(msg)
	}
	if err := reg.Err(); err != nil {
		return nil, err
	}
	return reg.Instances(), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, instances []model.Instance) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tPANE\tSTATUS\tBRANCH\tPATH")
	for _, inst := range instances {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\n",
			inst.Target(), inst.PaneID, inst.Status.Symbol(), inst.Status.Label(), branchLabel(inst.Git), inst.Path)
	}
	return tw.Flush()
}

// branchLabel is the plain-text branch column: branch with "*" when dirty
// and "(worktree)" for linked worktrees, "-" outside a repository.
func branchLabel(g model.GitInfo) string {
	switch g.State() {
	case model.GitPending:
		return "?"
	case model.GitNotRepo:
		return "-"
	}
	c, _ := g.Context()
	label := c.Branch
	if c.Dirty() {
		label += "*"
	}
	if c.IsWorktree {
		label += " (worktree)"
	}
	return label
}
