package publishers

import (
	"time"

	"github.com/accesshq/access-console/internal/domain"
)

// Event kinds emitted by the watcher.
const (
	KindPoolUpdated    = "pool_updated"
	KindPoolDiscovered = "pool_discovered"
)

// Event represents the payload published downstream when a watched pool changes.
type Event struct {
	PoolAddress string           `json:"pool_address"`
	PoolName    string           `json:"pool_name"`
	Kind        string           `json:"kind"`
	Pool        domain.StakePool `json:"pool"`
	ObservedAt  time.Time        `json:"observed_at"`
}

// NewEvent constructs an Event for the given pool snapshot.
func NewEvent(kind, address, name string, pool domain.StakePool) Event {
	return Event{
		PoolAddress: address,
		PoolName:    name,
		Kind:        kind,
		Pool:        pool,
		ObservedAt:  time.Now().UTC(),
	}
}
