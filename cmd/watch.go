package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/timvw/claude-panes/internal/logging"
	"github.com/timvw/claude-panes/internal/tui"
)

var (
	flagNoEmbed bool
	flagTheme   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive view of all Claude Code instances",
	Long: `Launch an interactive terminal UI listing every Claude Code instance with
its status, branch and working directory. The list appears as soon as panes
are classified; git information fills in as it loads, and the list refreshes
on an interval.

Enter jumps to the selected pane. The action menu (a or tab) offers rename,
kill, new session and worktree deletion; these print the equivalent command
instead of running it.

If not already running inside tmux, watch re-launches itself in a new tmux
session so that jumping to a pane works. Use --no-embed to disable this.

Logs go to ~/.local/state/claude-panes/claude-panes.log unless log_file or
--log-file says otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().BoolVar(&flagNoEmbed, "no-embed", false,
		"Do not auto-embed in a tmux session (jumping to panes will not work outside tmux)")
	watchCmd.Flags().StringVar(&flagTheme, "theme", "",
		"Color theme: dark, light (default: theme from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(ctx context.Context) error {
	// Navigation (switch-client) requires an active tmux client, so re-exec
	// inside a new tmux session when there is none.
	if !flagNoEmbed {
		autoEmbedInTmux()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel() // stops in-flight cycles when the UI exits

	a, err := setup(ctx, logging.DefaultFile())
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	// The session running this UI is not worth listing.
	if self := resolveSelfSession(ctx); self != "" {
		a.cfg.ExcludeSessions = append(a.cfg.ExcludeSessions, self)
		a.logger.Info("excluding own session", "session", self)
	}

	theme := a.cfg.Theme
	if flagTheme != "" {
		theme = flagTheme
	}

	a.logger.Info("watch started",
		"mux", a.mux.Name(),
		"tool", a.cfg.Tool,
		"refresh", a.cfg.RefreshDuration.String(),
		"git_cache_ttl", a.cfg.GitCacheTTLDuration.String(),
		"telemetry", a.tel.Enabled())

	t := &tui.TUI{
		Source:          a.loader(),
		Navigator:       a.mux,
		Handler:         tui.CommandReporter{},
		RefreshInterval: a.cfg.RefreshDuration,
		Theme:           tui.ThemeByName(theme),
		Metrics:         a.metrics,
		Logger:          a.logger,
	}
	if err := t.Run(ctx); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// autoEmbedInTmux re-launches the current process inside a tmux session
// when not already running under tmux. On success the process is replaced
// and this function never returns. On failure it prints a warning and
// returns so the UI can run without navigation.
func autoEmbedInTmux() {
	if os.Getenv("TMUX") != "" {
		return
	}

	tmuxPath, err := exec.LookPath("tmux")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: tmux not found in PATH, jumping to panes will not work\n")
		return
	}

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not resolve executable path: %v\n", err)
		return
	}

	wd, err := os.Getwd()
	if err != nil {
		wd = "/"
	}

	// Let tmux pick a name when ours is taken.
	sessionName := "claude-panes"
	if exec.Command(tmuxPath, "has-session", "-t", sessionName).Run() == nil {
		sessionName = ""
	}

	tmuxArgs := []string{"tmux", "new-session"}
	if sessionName != "" {
		tmuxArgs = append(tmuxArgs, "-s", sessionName)
	}
	tmuxArgs = append(tmuxArgs, "-c", wd, exe)
	tmuxArgs = append(tmuxArgs, os.Args[1:]...)

	if err := syscall.Exec(tmuxPath, tmuxArgs, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not auto-embed in tmux: %v\n", err)
		fmt.Fprintf(os.Stderr, "use --no-embed to suppress this warning\n")
	}
}

// resolveSelfSession returns the tmux session holding this process's pane,
// or "" outside tmux.
func resolveSelfSession(ctx context.Context) string {
	paneID := os.Getenv("TMUX_PANE")
	if paneID == "" {
		return ""
	}
	out, err := exec.CommandContext(ctx, "tmux", "display-message", "-t", paneID, "-p", "#{session_name}").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
