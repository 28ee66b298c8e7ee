package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Package store provides the local credential and snapshot persistence layer.
// It plays the role client-side storage plays for the web console: the bearer
// token lives here between invocations, and the watcher keeps its last
// observed pool digests alongside it.

// Store persists the bearer credential and per-pool snapshot digests.
type Store interface {
	Close() error

	// Token returns the stored bearer token. The second return is false when
	// no valid (unexpired) token is present.
	Token() (string, bool, error)
	PutToken(token string, expiry time.Time) error
	DeleteToken() error

	// LastDigest returns the last recorded digest for a pool, or "" when none.
	LastDigest(pool string) (string, error)
	PutDigest(pool, digest string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SnapshotTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSnapshotTTL     = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// ErrStorageDisabled is returned when a write is attempted on the noop store.
var ErrStorageDisabled = errors.New("local storage is disabled")

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore keeps nothing; every request it feeds goes out unauthenticated.
type noopStore struct{}

func (noopStore) Close() error                      { return nil }
func (noopStore) Token() (string, bool, error)      { return "", false, nil }
func (noopStore) PutToken(string, time.Time) error  { return ErrStorageDisabled }
func (noopStore) DeleteToken() error                { return nil }
func (noopStore) LastDigest(string) (string, error) { return "", nil }
func (noopStore) PutDigest(string, string) error    { return nil }
