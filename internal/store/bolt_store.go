package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	credentialBucket = "credentials"
	snapshotBucket   = "pool_snapshots"

	tokenKey = "bearer_token"

	expiryPrefixBytes = 8
)

// boltStore implements Store backed by BoltDB. Every value carries an 8-byte
// big-endian unix expiry prefix followed by the payload.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	snapshotTTL     time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(credentialBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		snapshotTTL:     opts.SnapshotTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Token returns the stored bearer token if present and unexpired. An expired
// token is deleted on read so the next request goes out unauthenticated.
func (b *boltStore) Token() (string, bool, error) {
	if b == nil || b.db == nil {
		return "", false, nil
	}

	var token string
	var ok bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}

		key := []byte(tokenKey)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, payload, valid := decodeValue(value)
		if !valid || !expiry.After(time.Now()) {
			return bucket.Delete(key)
		}

		token = string(payload)
		ok = token != ""
		return nil
	})
	return token, ok, err
}

// PutToken stores the bearer token with the given expiry.
func (b *boltStore) PutToken(token string, expiry time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}
	if token == "" {
		return fmt.Errorf("token is empty")
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Put([]byte(tokenKey), encodeValue(expiry, []byte(token)))
	})
}

// DeleteToken removes the stored bearer token, if any.
func (b *boltStore) DeleteToken() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucket))
		if bucket == nil {
			return fmt.Errorf("credential bucket missing")
		}
		return bucket.Delete([]byte(tokenKey))
	})
}

// LastDigest returns the last recorded snapshot digest for a pool.
func (b *boltStore) LastDigest(pool string) (string, error) {
	if b == nil || b.db == nil {
		return "", nil
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return "", err
	}

	var digest string
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("snapshot bucket missing")
		}

		key := []byte(pool)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, payload, valid := decodeValue(value)
		if !valid || !expiry.After(time.Now()) {
			return bucket.Delete(key)
		}

		digest = string(payload)
		return nil
	})
	return digest, err
}

// PutDigest records the snapshot digest for a pool.
func (b *boltStore) PutDigest(pool, digest string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("snapshot bucket missing")
		}
		return bucket.Put([]byte(pool), encodeValue(now.Add(b.snapshotTTL), []byte(digest)))
	})
}

// maybeCleanupExpired removes expired snapshot digests on a fixed cadence to
// avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("snapshot bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, valid := decodeValue(v)
			if !valid || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// encodeValue prefixes payload with the expiry as big-endian unix seconds.
func encodeValue(expiry time.Time, payload []byte) []byte {
	buf := make([]byte, expiryPrefixBytes+len(payload))
	binary.BigEndian.PutUint64(buf, uint64(expiry.Unix()))
	copy(buf[expiryPrefixBytes:], payload)
	return buf
}

// decodeValue splits a stored value into expiry and payload.
func decodeValue(value []byte) (time.Time, []byte, bool) {
	if len(value) < expiryPrefixBytes {
		return time.Time{}, nil, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryPrefixBytes]))
	if unix <= 0 {
		return time.Time{}, nil, false
	}
	return time.Unix(unix, 0), value[expiryPrefixBytes:], true
}
