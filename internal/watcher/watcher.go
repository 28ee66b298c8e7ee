package watcher

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic change detection
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/accesshq/access-console/internal/logger"
	"github.com/accesshq/access-console/pkg/accessapi"
	"github.com/accesshq/access-console/pkg/publishers"
)

// Service coordinates a watch pass across the configured pools: fetch the
// pool state, compare its digest against the last recorded one, and publish
// an event when it changed.
type Service struct {
	api       PoolFetcher
	fanout    EventPublisher
	snapshots SnapshotStore
	log       logger.Logger
}

// NewService wires a watcher service.
func NewService(api PoolFetcher, fanout EventPublisher, snapshots SnapshotStore, log logger.Logger) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		api:       api,
		fanout:    fanout,
		snapshots: snapshots,
		log:       log,
	}
}

// Run executes a watch pass for all configured pools.
func (s *Service) Run(ctx context.Context, pools []accessapi.WatchedPool) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(pools) == 0 {
		return fmt.Errorf("no pools configured for watching")
	}

	errs := make([]error, 0, len(pools))
	for i, pool := range pools {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.runPool(ctx, pool); err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("pool watch failed", "pool_error", map[string]any{
				"pool_address": pool.Address,
				"error":        err.Error(),
			})
		}

		if delay := pool.PollDelay(); delay > 0 && i < len(pools)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runPool(ctx context.Context, cfg accessapi.WatchedPool) error {
	pool, err := s.api.StakePool(ctx, cfg.Address)
	if err != nil {
		return fmt.Errorf("fetch pool %s: %w", cfg.Address, err)
	}

	digest, err := snapshotDigest(pool)
	if err != nil {
		return fmt.Errorf("digest pool %s: %w", cfg.Address, err)
	}

	previous := ""
	if s.snapshots != nil {
		previous, err = s.snapshots.LastDigest(cfg.Address)
		if err != nil {
			return fmt.Errorf("read snapshot for pool %s: %w", cfg.Address, err)
		}
	}

	if previous == digest {
		s.log.DebugObj("pool unchanged", "pool_state", map[string]any{
			"pool_address": cfg.Address,
		})
		return nil
	}

	kind := publishers.KindPoolUpdated
	if previous == "" {
		kind = publishers.KindPoolDiscovered
	}

	if s.fanout != nil {
		evt := publishers.NewEvent(kind, cfg.Address, cfg.Name, pool)
		delivered, err := s.fanout.Publish(ctx, evt)
		if err != nil {
			return fmt.Errorf("publish event for pool %s: %w", cfg.Address, err)
		}
		s.log.InfoObj("pool event published", "pool_event", map[string]any{
			"pool_address": cfg.Address,
			"kind":         kind,
			"delivered":    delivered,
		})
	}

	if s.snapshots != nil {
		if err := s.snapshots.PutDigest(cfg.Address, digest); err != nil {
			return fmt.Errorf("record snapshot for pool %s: %w", cfg.Address, err)
		}
	}
	return nil
}

// snapshotDigest produces a stable fingerprint of the pool state.
func snapshotDigest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}
