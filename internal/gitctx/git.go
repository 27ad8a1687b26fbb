// Package gitctx resolves the git context of an instance's working directory
// using the git CLI.
package gitctx

import (
	"bufio"
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/timvw/claude-panes/internal/model"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes name with args in dir and returns stdout.
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// CLIExecutor executes commands using os/exec.
type CLIExecutor struct{}

// Run executes a command and returns its stdout.
func (CLIExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// Enricher resolves git information for a path. It never fails: any problem
// reading the repository yields the not-a-repository state.
type Enricher interface {
	Enrich(ctx context.Context, path string) model.GitInfo
}

// CLI implements Enricher with the git binary.
type CLI struct {
	exec Executor
	bin  string
}

// NewCLI creates an enricher that runs "git" on PATH.
func NewCLI() *CLI {
	return NewCLIWithExecutor(CLIExecutor{})
}

// NewCLIWithExecutor creates an enricher using a custom executor.
func NewCLIWithExecutor(e Executor) *CLI {
	return &CLI{exec: e, bin: "git"}
}

func (g *CLI) git(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := g.exec.Run(ctx, dir, g.bin, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Enrich detects the git context for path.
func (g *CLI) Enrich(ctx context.Context, path string) model.GitInfo {
	if path == "" {
		return model.GitNotRepoInfo()
	}

	out, err := g.git(ctx, path, "rev-parse", "--is-inside-work-tree", "--git-dir", "--git-common-dir")
	if err != nil {
		return model.GitNotRepoInfo()
	}
	fields := strings.Split(out, "\n")
	// Bare repositories report "false" and have no working tree to describe.
	if len(fields) != 3 || strings.TrimSpace(fields[0]) != "true" {
		return model.GitNotRepoInfo()
	}

	gitDir := absUnder(path, strings.TrimSpace(fields[1]))
	commonDir := absUnder(path, strings.TrimSpace(fields[2]))

	c := model.GitContext{
		Branch: g.branch(ctx, path),
	}
	if gitDir != commonDir {
		c.IsWorktree = true
		c.MainRepoPath = mainCheckout(commonDir)
	}

	if status, err := g.git(ctx, path, "status", "--porcelain=v1", "--ignore-submodules"); err == nil {
		c.HasStaged, c.HasUnstaged = parsePorcelain(status)
	}

	if remotes, err := g.git(ctx, path, "remote"); err == nil {
		c.HasRemote = remotes != ""
	}

	if counts, err := g.git(ctx, path, "rev-list", "--left-right", "--count", "HEAD...@{upstream}"); err == nil {
		if ahead, behind, ok := parseAheadBehind(counts); ok {
			c.HasUpstream = true
			c.Ahead, c.Behind = ahead, behind
		}
	}

	return model.GitResolvedInfo(c)
}

// branch returns the current branch, a 7-character hash when detached, or
// "HEAD" for an empty repository.
func (g *CLI) branch(ctx context.Context, path string) string {
	if name, err := g.git(ctx, path, "symbolic-ref", "--short", "-q", "HEAD"); err == nil && name != "" {
		return name
	}
	if hash, err := g.git(ctx, path, "rev-parse", "--short=7", "HEAD"); err == nil && hash != "" {
		return hash
	}
	return "HEAD"
}

// absUnder resolves a git-reported directory against the working directory.
func absUnder(base, dir string) string {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(base, dir)
	}
	return filepath.Clean(dir)
}

// mainCheckout maps a common git dir to the checkout that owns it.
func mainCheckout(commonDir string) string {
	if filepath.Base(commonDir) == ".git" {
		return filepath.Dir(commonDir)
	}
	return commonDir
}

// parsePorcelain reads "git status --porcelain=v1" output. X is the index
// column, Y the worktree column. Untracked files count as unstaged.
func parsePorcelain(out string) (staged, unstaged bool) {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if len(line) < 2 {
			continue
		}
		x, y := line[0], line[1]
		if x == '?' && y == '?' {
			unstaged = true
			continue
		}
		if x != ' ' && x != '!' {
			staged = true
		}
		if y != ' ' && y != '!' {
			unstaged = true
		}
	}
	return staged, unstaged
}

// parseAheadBehind reads "rev-list --left-right --count" output: "<ahead>\t<behind>".
func parseAheadBehind(out string) (ahead, behind int, ok bool) {
	f := strings.Fields(out)
	if len(f) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(f[0])
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(f[1])
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
