package accessapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// WatchedPool is a single pool entry declared in the watch-list file.
type WatchedPool struct {
	Address     string `json:"address" yaml:"address"`
	Name        string `json:"name" yaml:"name"`
	PollDelayMs int    `json:"poll_delay_ms" yaml:"poll_delay_ms"`
}

// DiscoveryConfig points the watcher at an explorer directory page to
// discover pools beyond the static watch list.
type DiscoveryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	URL     string `json:"url" yaml:"url"`
}

// watchlistFile represents the structure of the pools configuration file.
type watchlistFile struct {
	Pools     []WatchedPool    `json:"pools" yaml:"pools"`
	Discovery *DiscoveryConfig `json:"discovery" yaml:"discovery"`
}

const defaultPollDelayMs = 500

// Watchlist materializes pool entries loaded from config files.
type Watchlist struct {
	mu        sync.RWMutex
	pools     []WatchedPool
	idx       map[string]WatchedPool
	discovery *DiscoveryConfig
}

// LoadWatchlist loads the pool watch list from a YAML/JSON file.
func LoadWatchlist(path string) (*Watchlist, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("pools file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pools file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read pools file: %w", err)
	}

	parsed, err := parseWatchlist(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Pools) == 0 && (parsed.Discovery == nil || !parsed.Discovery.Enabled) {
		return nil, errors.New("pools file declares no pools and no discovery source")
	}

	wl := &Watchlist{
		pools:     make([]WatchedPool, len(parsed.Pools)),
		idx:       make(map[string]WatchedPool, len(parsed.Pools)),
		discovery: sanitizeDiscovery(parsed.Discovery),
	}

	for i := range parsed.Pools {
		p := sanitizePool(parsed.Pools[i])
		if err := validatePool(p); err != nil {
			return nil, fmt.Errorf("pools[%d]: %w", i, err)
		}
		if _, exists := wl.idx[p.Address]; exists {
			return nil, fmt.Errorf("duplicate pool address %q", p.Address)
		}
		wl.pools[i] = p
		wl.idx[p.Address] = p
	}

	if wl.discovery != nil && wl.discovery.Enabled && wl.discovery.URL == "" {
		return nil, errors.New("discovery.url is required when discovery is enabled")
	}

	return wl, nil
}

// parseWatchlist attempts to decode the pools file content.
func parseWatchlist(data []byte, ext string) (watchlistFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var parsed watchlistFile
		if err := d.fn(data, &parsed); err == nil {
			return parsed, nil
		}
	}

	return watchlistFile{}, errors.New("pools file format not recognized (expected YAML or JSON)")
}

func sanitizePool(p WatchedPool) WatchedPool {
	p.Address = strings.TrimSpace(p.Address)
	p.Name = strings.TrimSpace(p.Name)
	if p.PollDelayMs <= 0 {
		p.PollDelayMs = defaultPollDelayMs
	}
	return p
}

func sanitizeDiscovery(d *DiscoveryConfig) *DiscoveryConfig {
	if d == nil {
		return nil
	}
	c := *d
	c.URL = strings.TrimSpace(c.URL)
	return &c
}

func validatePool(p WatchedPool) error {
	if p.Address == "" {
		return errors.New("address is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required for pool %q", p.Address)
	}
	return nil
}

// All returns a copy of the configured pools.
func (w *Watchlist) All() []WatchedPool {
	if w == nil {
		return nil
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]WatchedPool, len(w.pools))
	copy(out, w.pools)
	return out
}

// ByAddress returns the watch-list entry for the given pool address.
func (w *Watchlist) ByAddress(address string) (WatchedPool, bool) {
	if w == nil {
		return WatchedPool{}, false
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return WatchedPool{}, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.idx[address]
	return p, ok
}

// Discovery returns the discovery config, or nil when none is declared.
func (w *Watchlist) Discovery() *DiscoveryConfig {
	if w == nil {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.discovery
}

// Merge adds discovered pools that are not already present, returning the
// number added. Discovered entries keep the default poll delay.
func (w *Watchlist) Merge(discovered []WatchedPool) int {
	if w == nil || len(discovered) == 0 {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	added := 0
	for _, p := range discovered {
		p = sanitizePool(p)
		if p.Address == "" {
			continue
		}
		if _, exists := w.idx[p.Address]; exists {
			continue
		}
		if p.Name == "" {
			p.Name = p.Address
		}
		w.pools = append(w.pools, p)
		w.idx[p.Address] = p
		added++
	}
	return added
}

// PollDelay returns the per-request throttle duration for the pool.
func (p WatchedPool) PollDelay() time.Duration {
	if p.PollDelayMs <= 0 {
		return time.Duration(defaultPollDelayMs) * time.Millisecond
	}
	return time.Duration(p.PollDelayMs) * time.Millisecond
}
