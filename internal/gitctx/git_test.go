package gitctx

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timvw/claude-panes/internal/model"
)

// fakeExecutor returns canned output keyed by the joined git arguments.
// Unknown commands fail.
type fakeExecutor struct {
	mu      sync.Mutex
	outputs map[string]string
	calls   []string
}

func (f *fakeExecutor) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, dir+": "+name+" "+key)
	f.mu.Unlock()
	if out, ok := f.outputs[key]; ok {
		return []byte(out), nil
	}
	return nil, errors.New("exit status 128")
}

const revParseKey = "rev-parse --is-inside-work-tree --git-dir --git-common-dir"

func TestEnrich_NotARepository(t *testing.T) {
	e := NewCLIWithExecutor(&fakeExecutor{outputs: map[string]string{}})

	info := e.Enrich(context.Background(), "/tmp/scratch")
	if info.State() != model.GitNotRepo {
		t.Fatalf("state: got %v, want not_repo", info.State())
	}
	if info == (model.GitInfo{}) {
		t.Error("not-repo result must differ from pending")
	}
}

func TestEnrich_EmptyPath(t *testing.T) {
	fake := &fakeExecutor{}
	info := NewCLIWithExecutor(fake).Enrich(context.Background(), "")
	if info.State() != model.GitNotRepo {
		t.Errorf("state: got %v, want not_repo", info.State())
	}
	if len(fake.calls) != 0 {
		t.Errorf("expected no git calls, got %v", fake.calls)
	}
}

func TestEnrich_BareRepository(t *testing.T) {
	fake := &fakeExecutor{outputs: map[string]string{
		revParseKey: "false\n.\n.\n",
	}}
	info := NewCLIWithExecutor(fake).Enrich(context.Background(), "/srv/repo.git")
	if info.State() != model.GitNotRepo {
		t.Errorf("state: got %v, want not_repo", info.State())
	}
}

func TestEnrich_MainCheckout(t *testing.T) {
	fake := &fakeExecutor{outputs: map[string]string{
		revParseKey:                                 "true\n.git\n.git\n",
		"symbolic-ref --short -q HEAD":              "main\n",
		"status --porcelain=v1 --ignore-submodules": "M  staged.go\n",
		"remote": "origin\n",
		"rev-list --left-right --count HEAD...@{upstream}": "2\t1\n",
	}}
	info := NewCLIWithExecutor(fake).Enrich(context.Background(), "/src/app")

	c, ok := info.Context()
	if !ok {
		t.Fatalf("expected resolved, got %v", info.State())
	}
	want := model.GitContext{
		Branch:      "main",
		HasStaged:   true,
		HasUpstream: true,
		HasRemote:   true,
		Ahead:       2,
		Behind:      1,
	}
	if c != want {
		t.Errorf("context:\n got %+v\nwant %+v", c, want)
	}
}

func TestEnrich_LinkedWorktree(t *testing.T) {
	fake := &fakeExecutor{outputs: map[string]string{
		revParseKey:                                 "true\n/src/app/.git/worktrees/feat\n/src/app/.git\n",
		"symbolic-ref --short -q HEAD":              "feat\n",
		"status --porcelain=v1 --ignore-submodules": "?? new.txt\n",
		"remote": "",
	}}
	info := NewCLIWithExecutor(fake).Enrich(context.Background(), "/src/app-feat")

	c, ok := info.Context()
	if !ok {
		t.Fatalf("expected resolved, got %v", info.State())
	}
	if !c.IsWorktree {
		t.Error("expected IsWorktree")
	}
	if c.MainRepoPath != "/src/app" {
		t.Errorf("MainRepoPath: got %q, want /src/app", c.MainRepoPath)
	}
	if !c.HasUnstaged || c.HasStaged {
		t.Errorf("untracked file should be unstaged only: %+v", c)
	}
	if c.HasRemote || c.HasUpstream {
		t.Errorf("expected no remote and no upstream: %+v", c)
	}
}

func TestEnrich_DetachedHead(t *testing.T) {
	fake := &fakeExecutor{outputs: map[string]string{
		revParseKey:                "true\n.git\n.git\n",
		"rev-parse --short=7 HEAD": "abc1234\n",
	}}
	c, ok := NewCLIWithExecutor(fake).Enrich(context.Background(), "/src/app").Context()
	if !ok {
		t.Fatal("expected resolved")
	}
	if c.Branch != "abc1234" {
		t.Errorf("Branch: got %q, want abc1234", c.Branch)
	}
}

func TestEnrich_EmptyRepositoryBranchIsHEAD(t *testing.T) {
	fake := &fakeExecutor{outputs: map[string]string{
		revParseKey: "true\n.git\n.git\n",
	}}
	c, ok := NewCLIWithExecutor(fake).Enrich(context.Background(), "/src/new").Context()
	if !ok {
		t.Fatal("expected resolved")
	}
	if c.Branch != "HEAD" {
		t.Errorf("Branch: got %q, want HEAD", c.Branch)
	}
}

func TestParsePorcelain(t *testing.T) {
	tests := []struct {
		name                     string
		out                      string
		wantStaged, wantUnstaged bool
	}{
		{name: "clean", out: ""},
		{name: "staged add", out: "A  x.go", wantStaged: true},
		{name: "unstaged modify", out: " M x.go", wantUnstaged: true},
		{name: "both", out: "MM x.go", wantStaged: true, wantUnstaged: true},
		{name: "untracked", out: "?? x.go", wantUnstaged: true},
		{name: "rename staged", out: "R  a.go -> b.go", wantStaged: true},
		{name: "ignored", out: "!! build/"},
		{name: "mixed lines", out: "A  a.go\n D b.go", wantStaged: true, wantUnstaged: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, u := parsePorcelain(tt.out)
			if s != tt.wantStaged || u != tt.wantUnstaged {
				t.Errorf("got staged=%v unstaged=%v, want %v %v", s, u, tt.wantStaged, tt.wantUnstaged)
			}
		})
	}
}

func TestParseAheadBehind(t *testing.T) {
	if a, b, ok := parseAheadBehind("3\t0"); !ok || a != 3 || b != 0 {
		t.Errorf("got %d %d %v", a, b, ok)
	}
	for _, bad := range []string{"", "3", "x\t1", "1\ty", "1 2 3"} {
		if _, _, ok := parseAheadBehind(bad); ok {
			t.Errorf("parseAheadBehind(%q): expected failure", bad)
		}
	}
}

func TestMainCheckout(t *testing.T) {
	if got := mainCheckout("/src/app/.git"); got != "/src/app" {
		t.Errorf("got %q", got)
	}
	if got := mainCheckout("/srv/app.git"); got != "/srv/app.git" {
		t.Errorf("got %q", got)
	}
}

type countingEnricher struct {
	mu    sync.Mutex
	calls map[string]int
	info  model.GitInfo
}

func (c *countingEnricher) Enrich(_ context.Context, path string) model.GitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[path]++
	return c.info
}

func TestCachedEnricher_SharesPath(t *testing.T) {
	next := &countingEnricher{info: model.GitResolvedInfo(model.GitContext{Branch: "main"})}
	e := NewCachedEnricher(next, time.Minute)

	for i := 0; i < 3; i++ {
		info := e.Enrich(context.Background(), "/src/app")
		if info.State() != model.GitResolved {
			t.Fatalf("state: got %v", info.State())
		}
	}
	if next.calls["/src/app"] != 1 {
		t.Errorf("expected one underlying call, got %d", next.calls["/src/app"])
	}

	e.Invalidate("/src/app")
	e.Enrich(context.Background(), "/src/app")
	if next.calls["/src/app"] != 2 {
		t.Errorf("expected re-resolve after invalidate, got %d calls", next.calls["/src/app"])
	}
}

func TestCachedEnricher_CachesNotRepo(t *testing.T) {
	next := &countingEnricher{info: model.GitNotRepoInfo()}
	e := NewCachedEnricher(next, time.Minute)
	e.Enrich(context.Background(), "/tmp")
	if got := e.Enrich(context.Background(), "/tmp"); got.State() != model.GitNotRepo {
		t.Errorf("state: got %v", got.State())
	}
	if next.calls["/tmp"] != 1 {
		t.Errorf("expected one call, got %d", next.calls["/tmp"])
	}
}

func TestCachedEnricher_SkipsCancelled(t *testing.T) {
	next := &countingEnricher{info: model.GitNotRepoInfo()}
	e := NewCachedEnricher(next, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.Enrich(ctx, "/src/app")
	if e.cache.Len() != 0 {
		t.Error("cancelled result should not be cached")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Store("/src", model.GitNotRepoInfo())
	if _, ok := c.Lookup("/src"); !ok {
		t.Fatal("expected hit before expiry")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Lookup("/src"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestCache_Disabled(t *testing.T) {
	c := NewCache(0)
	c.Store("/src", model.GitNotRepoInfo())
	if _, ok := c.Lookup("/src"); ok {
		t.Error("zero TTL should disable caching")
	}
}

func TestCache_IgnoresPending(t *testing.T) {
	c := NewCache(time.Minute)
	c.Store("/src", model.GitInfo{})
	if c.Len() != 0 {
		t.Error("pending results must not be cached")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := []string{"/a", "/b", "/c"}[i%3]
			c.Store(path, model.GitNotRepoInfo())
			c.Lookup(path)
		}(i)
	}
	wg.Wait()
	if c.Len() != 3 {
		t.Errorf("Len: got %d, want 3", c.Len())
	}
}
