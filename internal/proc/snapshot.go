// Package proc takes system process snapshots and attributes matching
// processes to multiplexer panes by walking their parent chain.
package proc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/timvw/claude-panes/internal/model"
)

// Snapshotter returns every visible process on the host in one call.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]model.ProcessFact, error)
}

// PS snapshots processes with a single "ps" invocation.
type PS struct {
	// Bin is the ps binary. Defaults to "ps" on PATH.
	Bin string
}

// NewPS creates a ps-backed Snapshotter.
func NewPS() *PS {
	return &PS{Bin: "ps"}
}

// Snapshot runs "ps -axo pid=,ppid=,args=" and parses every process.
// Any failure is returned: a partial process table would turn into silent
// false negatives during ancestry resolution.
func (p *PS) Snapshot(ctx context.Context) ([]model.ProcessFact, error) {
	bin := p.Bin
	if bin == "" {
		bin = "ps"
	}
	// "pid=" and "ppid=" suppress the header; "args=" gives the full command line.
	out, err := exec.CommandContext(ctx, bin, "-axo", "pid=,ppid=,args=").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ps: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ps: %w", err)
	}
	procs := parsePS(string(out))
	if len(procs) == 0 {
		return nil, fmt.Errorf("ps: no processes in output")
	}
	return procs, nil
}

// parsePS parses "pid ppid args..." lines with variable whitespace.
func parsePS(out string) []model.ProcessFact {
	var procs []model.ProcessFact
	for _, line := range strings.Split(out, "\n") {
		pidField, rest := cutField(line)
		ppidField, args := cutField(rest)
		pid, err1 := strconv.Atoi(pidField)
		ppid, err2 := strconv.Atoi(ppidField)
		if err1 != nil || err2 != nil {
			continue
		}
		args = strings.TrimSpace(args)
		procs = append(procs, model.ProcessFact{
			PID:     pid,
			PPID:    ppid,
			Command: commandName(args),
			Args:    args,
		})
	}
	return procs
}

// cutField splits off the first whitespace-delimited field.
func cutField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// commandName returns the basename of argv[0]. Kernel threads ("[kworker/0:1]")
// are returned unchanged.
func commandName(args string) string {
	first, _ := cutField(args)
	if first == "" || strings.HasPrefix(first, "[") {
		return first
	}
	return filepath.Base(first)
}
