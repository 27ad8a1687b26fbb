package proc

import (
	"testing"

	"github.com/timvw/claude-panes/internal/model"
)

func TestParsePS(t *testing.T) {
	out := `    1     0 /sbin/init splash
   50     1 -zsh
  100    50 claude --resume
  101    50 node /usr/local/bin/claude
  102     2 [kworker/0:1]
garbage line
   103   x bad ppid
`
	procs := parsePS(out)
	if len(procs) != 5 {
		t.Fatalf("got %d processes, want 5: %+v", len(procs), procs)
	}

	tests := []struct {
		idx     int
		pid     int
		ppid    int
		command string
		args    string
	}{
		{0, 1, 0, "init", "/sbin/init splash"},
		{1, 50, 1, "-zsh", "-zsh"},
		{2, 100, 50, "claude", "claude --resume"},
		{3, 101, 50, "node", "node /usr/local/bin/claude"},
		{4, 102, 2, "[kworker/0:1]", "[kworker/0:1]"},
	}
	for _, tt := range tests {
		p := procs[tt.idx]
		if p.PID != tt.pid || p.PPID != tt.ppid || p.Command != tt.command || p.Args != tt.args {
			t.Errorf("proc %d: got %+v, want pid=%d ppid=%d command=%q args=%q",
				tt.idx, p, tt.pid, tt.ppid, tt.command, tt.args)
		}
	}
}

func TestMatcher(t *testing.T) {
	m := Matcher{Name: "claude", SelfPID: 999}
	tests := []struct {
		name string
		p    model.ProcessFact
		want bool
	}{
		{name: "direct binary", p: model.ProcessFact{PID: 1, Command: "claude", Args: "claude"}, want: true},
		{name: "absolute path", p: model.ProcessFact{PID: 1, Command: "claude", Args: "/opt/bin/claude -c"}, want: true},
		{name: "node wrapper", p: model.ProcessFact{PID: 1, Command: "node", Args: "node /usr/local/bin/claude"}, want: true},
		{name: "node wrapper with flags", p: model.ProcessFact{PID: 1, Command: "node", Args: "node --no-warnings /home/u/.npm/bin/claude --resume"}, want: true},
		{name: "node other script", p: model.ProcessFact{PID: 1, Command: "node", Args: "node server.js claude"}, want: false},
		{name: "bare node", p: model.ProcessFact{PID: 1, Command: "node", Args: "node"}, want: false},
		{name: "name in args only", p: model.ProcessFact{PID: 1, Command: "grep", Args: "grep claude"}, want: false},
		{name: "similar name", p: model.ProcessFact{PID: 1, Command: "claude-panes", Args: "claude-panes watch"}, want: false},
		{name: "self", p: model.ProcessFact{PID: 999, Command: "claude", Args: "claude"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.p); got != tt.want {
				t.Errorf("Match(%+v): got %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func isClaude(p model.ProcessFact) bool { return p.Command == "claude" }

func TestResolve_DirectParent(t *testing.T) {
	panes := []model.PaneFact{{PaneID: "%1", Session: "dev", PID: 50}}
	procs := []model.ProcessFact{
		{PID: 1, PPID: 0, Command: "init"},
		{PID: 50, PPID: 1, Command: "zsh"},
		{PID: 100, PPID: 50, Command: "claude"},
	}

	matches := Resolve(panes, procs, isClaude, 0)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Pane.PaneID != "%1" || matches[0].Process.PID != 100 {
		t.Errorf("unexpected match: %+v", matches[0])
	}
}

func TestResolve_DeepChain(t *testing.T) {
	panes := []model.PaneFact{{PaneID: "%2", PID: 10}}
	procs := []model.ProcessFact{
		{PID: 10, PPID: 1, Command: "bash"},
		{PID: 11, PPID: 10, Command: "npx"},
		{PID: 12, PPID: 11, Command: "sh"},
		{PID: 13, PPID: 12, Command: "claude"},
	}
	matches := Resolve(panes, procs, isClaude, 0)
	if len(matches) != 1 || matches[0].Pane.PaneID != "%2" {
		t.Fatalf("expected match to %%2, got %+v", matches)
	}
}

func TestResolve_ToolIsPaneLeaf(t *testing.T) {
	panes := []model.PaneFact{{PaneID: "%3", PID: 77}}
	procs := []model.ProcessFact{{PID: 77, PPID: 1, Command: "claude"}}
	if matches := Resolve(panes, procs, isClaude, 0); len(matches) != 1 {
		t.Fatalf("expected tool running as the pane leaf to match, got %+v", matches)
	}
}

func TestResolve_NoMatchOutsidePanes(t *testing.T) {
	panes := []model.PaneFact{{PaneID: "%1", PID: 50}}
	procs := []model.ProcessFact{
		{PID: 1, PPID: 0, Command: "init"},
		{PID: 50, PPID: 1, Command: "zsh"},
		{PID: 60, PPID: 1, Command: "sshd"},
		{PID: 200, PPID: 60, Command: "claude"},
	}
	if matches := Resolve(panes, procs, isClaude, 0); len(matches) != 0 {
		t.Fatalf("expected no matches, got %+v", matches)
	}
}

func TestResolve_CycleTerminates(t *testing.T) {
	panes := []model.PaneFact{{PaneID: "%1", PID: 50}}
	procs := []model.ProcessFact{
		{PID: 100, PPID: 101, Command: "claude"},
		{PID: 101, PPID: 102, Command: "x"},
		{PID: 102, PPID: 100, Command: "y"},
	}
	if matches := Resolve(panes, procs, isClaude, 0); len(matches) != 0 {
		t.Fatalf("expected cyclic ancestry to resolve to nothing, got %+v", matches)
	}
}

func TestResolve_SelfLoopTerminates(t *testing.T) {
	panes := []model.PaneFact{{PaneID: "%1", PID: 50}}
	procs := []model.ProcessFact{{PID: 100, PPID: 100, Command: "claude"}}
	if matches := Resolve(panes, procs, isClaude, 0); len(matches) != 0 {
		t.Fatalf("expected self-loop to resolve to nothing, got %+v", matches)
	}
}

func TestResolve_HopBound(t *testing.T) {
	// Chain: 100 -> 99 -> ... -> 90 (pane leaf), ten hops.
	panes := []model.PaneFact{{PaneID: "%1", PID: 90}}
	var procs []model.ProcessFact
	for pid := 91; pid <= 100; pid++ {
		cmd := "sh"
		if pid == 100 {
			cmd = "claude"
		}
		procs = append(procs, model.ProcessFact{PID: pid, PPID: pid - 1, Command: cmd})
	}

	if matches := Resolve(panes, procs, isClaude, 9); len(matches) != 0 {
		t.Errorf("maxHops=9: expected no match, got %+v", matches)
	}
	if matches := Resolve(panes, procs, isClaude, 10); len(matches) != 1 {
		t.Errorf("maxHops=10: expected a match, got %+v", matches)
	}
}

func TestResolve_MultiplePanesSameSession(t *testing.T) {
	panes := []model.PaneFact{
		{PaneID: "%1", Session: "dev", PID: 50},
		{PaneID: "%2", Session: "dev", PID: 60},
	}
	procs := []model.ProcessFact{
		{PID: 50, PPID: 1, Command: "zsh"},
		{PID: 60, PPID: 1, Command: "zsh"},
		{PID: 100, PPID: 50, Command: "claude"},
		{PID: 200, PPID: 60, Command: "claude"},
	}
	matches := Resolve(panes, procs, isClaude, 0)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
}

func TestResolve_FirstMatchWinsPerPane(t *testing.T) {
	panes := []model.PaneFact{{PaneID: "%1", PID: 50}}
	procs := []model.ProcessFact{
		{PID: 50, PPID: 1, Command: "zsh"},
		{PID: 300, PPID: 50, Command: "claude"},
		{PID: 100, PPID: 50, Command: "claude"},
	}
	matches := Resolve(panes, procs, isClaude, 0)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Process.PID != 100 {
		t.Errorf("expected lowest pid to win, got %d", matches[0].Process.PID)
	}
}

func TestResolve_IgnoresDeadPanes(t *testing.T) {
	panes := []model.PaneFact{{PaneID: "%1", PID: 0}}
	procs := []model.ProcessFact{{PID: 100, PPID: 0, Command: "claude"}}
	if matches := Resolve(panes, procs, isClaude, 0); len(matches) != 0 {
		t.Fatalf("expected no match for pane without pid, got %+v", matches)
	}
}
