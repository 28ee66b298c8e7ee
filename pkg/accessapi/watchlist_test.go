package accessapi

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeWatchlistFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadWatchlistYAML(t *testing.T) {
	path := writeWatchlistFile(t, "pools.yaml", `
pools:
  - address: pool-1
    name: Creator One
  - address: pool-2
    name: Creator Two
    poll_delay_ms: 1200
discovery:
  enabled: true
  url: https://explorer.example.com/pools
`)

	wl, err := LoadWatchlist(path)
	if err != nil {
		t.Fatalf("LoadWatchlist: %v", err)
	}

	pools := wl.All()
	if len(pools) != 2 {
		t.Fatalf("pools = %d, want 2", len(pools))
	}
	if pools[0].PollDelay() != 500*time.Millisecond {
		t.Fatalf("default poll delay = %v", pools[0].PollDelay())
	}
	if pools[1].PollDelay() != 1200*time.Millisecond {
		t.Fatalf("explicit poll delay = %v", pools[1].PollDelay())
	}

	if _, ok := wl.ByAddress("pool-2"); !ok {
		t.Fatalf("pool-2 missing from index")
	}

	d := wl.Discovery()
	if d == nil || !d.Enabled || d.URL != "https://explorer.example.com/pools" {
		t.Fatalf("discovery = %+v", d)
	}
}

func TestLoadWatchlistRejectsDuplicates(t *testing.T) {
	path := writeWatchlistFile(t, "pools.yaml", `
pools:
  - address: pool-1
    name: One
  - address: pool-1
    name: Dup
`)

	if _, err := LoadWatchlist(path); err == nil {
		t.Fatalf("expected duplicate address error")
	}
}

func TestLoadWatchlistRejectsEmpty(t *testing.T) {
	path := writeWatchlistFile(t, "pools.yaml", "pools: []\n")
	if _, err := LoadWatchlist(path); err == nil {
		t.Fatalf("expected error for empty watch list")
	}
}

func TestMergeSkipsKnownPools(t *testing.T) {
	path := writeWatchlistFile(t, "pools.yaml", `
pools:
  - address: pool-1
    name: One
`)

	wl, err := LoadWatchlist(path)
	if err != nil {
		t.Fatalf("LoadWatchlist: %v", err)
	}

	added := wl.Merge([]WatchedPool{
		{Address: "pool-1"},
		{Address: "pool-9"},
		{Address: "  "},
	})
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}

	p, ok := wl.ByAddress("pool-9")
	if !ok {
		t.Fatalf("pool-9 not merged")
	}
	if p.Name != "pool-9" {
		t.Fatalf("discovered pool name = %q, want address fallback", p.Name)
	}
}
