package app

import (
	"context"
	"fmt"
	"time"

	"github.com/accesshq/access-console/internal/config"
	"github.com/accesshq/access-console/internal/logger"
	"github.com/accesshq/access-console/internal/store"
	"github.com/accesshq/access-console/internal/watcher"
	"github.com/accesshq/access-console/pkg/accessapi"
	"github.com/accesshq/access-console/pkg/apiclient"
	"github.com/accesshq/access-console/pkg/httpclient"
	"github.com/accesshq/access-console/pkg/publishers"
)

// Watcher represents the pool watcher runtime. It manages the watch loop,
// coordinating between the backend API, the snapshot store, and publishers.
type Watcher struct {
	cfg           *config.Config
	watchlist     *accessapi.Watchlist
	fanout        *publishers.Fanout
	watchService  *watcher.Service
	httpClient    httpclient.Client
	watchInterval time.Duration
	log           logger.Logger
	store         store.Store
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	watchlist, err := accessapi.LoadWatchlist(cfg.PoolsFile)
	if err != nil {
		return nil, fmt.Errorf("load pool watch list: %w", err)
	}
	pools := watchlist.All()
	poolAddrs := make([]string, 0, len(pools))
	for _, p := range pools {
		poolAddrs = append(poolAddrs, p.Address)
	}
	log.InfoObj("pool watch list loaded", "watchlist_meta", map[string]any{
		"count":     len(poolAddrs),
		"addresses": poolAddrs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubRegistry := publishers.DefaultRegistry()
	pubClients, err := publishers.BuildAll(ctx, pubRegistry, enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := store.Options{
		SnapshotTTL:     cfg.SnapshotTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	st, err := store.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.SnapshotTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	httpClient := httpclient.NewRestyClient(cfg.HTTPTimeout)
	api := accessapi.New(apiclient.New(cfg.APIBaseURL, httpClient, st))
	watchService := watcher.NewService(api, fanout, st, log)

	return &Watcher{
		cfg:           cfg,
		watchlist:     watchlist,
		fanout:        fanout,
		watchService:  watchService,
		httpClient:    httpClient,
		watchInterval: cfg.WatchInterval,
		log:           log,
		store:         st,
	}, nil
}

// Run starts the watch loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.watchService == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.closeStore()

	w.discoverPools(ctx)

	pools := w.watchlist.All()
	if len(pools) == 0 {
		w.log.WarnObj("no pools configured; watcher idle", "pools_file", w.cfg.PoolsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"pools_count":      len(pools),
		"publishers_count": w.fanout.Size(),
		"watch_interval":   w.watchInterval.String(),
	})

	if err := w.runOnce(ctx, pools); err != nil {
		w.log.ErrorObj("initial watch pass failed", "error", err)
	}

	ticker := time.NewTicker(w.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			w.discoverPools(ctx)
			if err := w.runOnce(ctx, w.watchlist.All()); err != nil {
				w.log.ErrorObj("scheduled watch pass failed", "error", err)
			}
		}
	}
}

// discoverPools merges pools found on the explorer directory page, when
// discovery is enabled. Failures are logged and the static list stands.
func (w *Watcher) discoverPools(ctx context.Context) {
	d := w.watchlist.Discovery()
	if d == nil || !d.Enabled {
		return
	}

	found, err := watcher.DiscoverPools(ctx, w.httpClient, d.URL)
	if err != nil {
		w.log.WarnObj("pool discovery failed", "discovery_error", map[string]any{
			"url":   d.URL,
			"error": err.Error(),
		})
		return
	}

	if added := w.watchlist.Merge(found); added > 0 {
		w.log.InfoObj("pools discovered", "discovery_result", map[string]any{
			"url":   d.URL,
			"found": len(found),
			"added": added,
		})
	}
}

// runOnce performs a single watch pass across all pools.
func (w *Watcher) runOnce(ctx context.Context, pools []accessapi.WatchedPool) error {
	start := time.Now()
	w.log.InfoObj("watch pass started", "watch_meta", map[string]any{
		"pools_count": len(pools),
		"started_at":  start.UTC(),
	})
	if err := w.watchService.Run(ctx, pools); err != nil {
		return err
	}
	w.log.InfoObj("watch pass completed", "watch_meta", map[string]any{
		"pools_count": len(pools),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (w *Watcher) closeStore() {
	if w == nil || w.store == nil {
		return
	}
	if err := w.store.Close(); err != nil {
		w.log.ErrorObj("storage close failed", "error", err)
	}
}
