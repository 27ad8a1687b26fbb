package proc

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/timvw/claude-panes/internal/model"
)

// DefaultMaxHops bounds the parent-chain walk. Real pane-to-tool chains are
// a handful of hops (shell, wrapper, node); anything longer is malformed.
const DefaultMaxHops = 64

// interpreters may launch the tool as a script argument.
var interpreters = map[string]bool{
	"node": true,
	"bun":  true,
	"deno": true,
}

// Matcher decides whether a process is an instance of the target tool.
type Matcher struct {
	// Name is the tool's command name (e.g., "claude").
	Name string
	// SelfPID is never matched. NewMatcher sets it to this process.
	SelfPID int
}

// NewMatcher returns a matcher for the named tool.
func NewMatcher(name string) Matcher {
	return Matcher{Name: name, SelfPID: os.Getpid()}
}

// Match reports whether p runs the tool, either directly ("claude ...") or
// through an interpreter ("node /usr/local/bin/claude ...").
func (m Matcher) Match(p model.ProcessFact) bool {
	if m.Name == "" || p.PID == m.SelfPID {
		return false
	}
	if p.Command == m.Name {
		return true
	}
	if !interpreters[p.Command] {
		return false
	}
	_, rest := cutField(p.Args)
	for {
		var arg string
		arg, rest = cutField(rest)
		if arg == "" {
			return false
		}
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return filepath.Base(arg) == m.Name
	}
}

// Match is a tool process attributed to a pane.
type Match struct {
	Pane    model.PaneFact
	Process model.ProcessFact
}

// Resolve attributes every process accepted by match to the pane whose leaf
// process is the process itself or one of its ancestors.
//
// The parent chain is walked iteratively over a pid index. A walk stops
// without a match when the parent is unknown, when it revisits a pid, or
// after maxHops parent steps. Processes are visited in ascending pid order and
// the first match for a pane wins, so the result is deterministic.
func Resolve(panes []model.PaneFact, procs []model.ProcessFact, match func(model.ProcessFact) bool, maxHops int) []Match {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	byPID := make(map[int]model.ProcessFact, len(procs))
	for _, p := range procs {
		byPID[p.PID] = p
	}
	paneByPID := make(map[int]int, len(panes))
	for i, p := range panes {
		if p.PID <= 0 {
			continue
		}
		if _, dup := paneByPID[p.PID]; !dup {
			paneByPID[p.PID] = i
		}
	}

	candidates := make([]model.ProcessFact, 0)
	for _, p := range procs {
		if match(p) {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].PID < candidates[j].PID })

	var matches []Match
	claimed := make(map[string]bool)
	for _, c := range candidates {
		idx, ok := owningPane(c.PID, byPID, paneByPID, maxHops)
		if !ok {
			continue
		}
		pane := panes[idx]
		if claimed[pane.PaneID] {
			continue
		}
		claimed[pane.PaneID] = true
		matches = append(matches, Match{Pane: pane, Process: c})
	}
	return matches
}

// owningPane walks from pid toward the root and returns the index of the
// first pane whose leaf pid is on the chain.
func owningPane(pid int, byPID map[int]model.ProcessFact, paneByPID map[int]int, maxHops int) (int, bool) {
	visited := make(map[int]bool)
	cur := pid
	for hops := 0; hops <= maxHops; hops++ {
		if idx, ok := paneByPID[cur]; ok {
			return idx, true
		}
		if visited[cur] {
			return 0, false
		}
		visited[cur] = true

		p, ok := byPID[cur]
		if !ok || p.PPID <= 0 || p.PPID == cur {
			return 0, false
		}
		cur = p.PPID
	}
	return 0, false
}
