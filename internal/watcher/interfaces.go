package watcher

import (
	"context"

	"github.com/accesshq/access-console/internal/domain"
	"github.com/accesshq/access-console/pkg/publishers"
)

// PoolFetcher retrieves the current state of a stake pool from the backend.
type PoolFetcher interface {
	StakePool(ctx context.Context, address string) (domain.StakePool, error)
}

// EventPublisher fans a pool event out to the configured sinks.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// SnapshotStore persists the last observed digest per pool.
type SnapshotStore interface {
	LastDigest(pool string) (string, error)
	PutDigest(pool, digest string) error
}
