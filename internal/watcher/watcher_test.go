package watcher

import (
	"context"
	"errors"
	"testing"

	"github.com/accesshq/access-console/internal/domain"
	"github.com/accesshq/access-console/pkg/accessapi"
	"github.com/accesshq/access-console/pkg/publishers"
)

type fakeFetcher struct {
	pools map[string]domain.StakePool
	err   error
}

func (f *fakeFetcher) StakePool(_ context.Context, address string) (domain.StakePool, error) {
	if f.err != nil {
		return domain.StakePool{}, f.err
	}
	return f.pools[address], nil
}

type recordingPublisher struct {
	events []publishers.Event
}

func (r *recordingPublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	r.events = append(r.events, evt)
	return 1, nil
}

type memSnapshots struct {
	digests map[string]string
}

func (m *memSnapshots) LastDigest(pool string) (string, error) { return m.digests[pool], nil }
func (m *memSnapshots) PutDigest(pool, digest string) error {
	m.digests[pool] = digest
	return nil
}

func watchedPool(address string) accessapi.WatchedPool {
	return accessapi.WatchedPool{Address: address, Name: address, PollDelayMs: 1}
}

func TestRunPublishesDiscoveryThenUpdate(t *testing.T) {
	fetcher := &fakeFetcher{pools: map[string]domain.StakePool{
		"pool-1": {Address: "pool-1", TotalStaked: 100},
	}}
	sink := &recordingPublisher{}
	snaps := &memSnapshots{digests: map[string]string{}}
	svc := NewService(fetcher, sink, snaps, nil)

	pools := []accessapi.WatchedPool{watchedPool("pool-1")}

	if err := svc.Run(context.Background(), pools); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].Kind != publishers.KindPoolDiscovered {
		t.Fatalf("expected one discovery event, got %+v", sink.events)
	}

	// Unchanged state publishes nothing.
	if err := svc.Run(context.Background(), pools); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("unchanged pool must not publish, got %d events", len(sink.events))
	}

	// A stake change produces an update event.
	fetcher.pools["pool-1"] = domain.StakePool{Address: "pool-1", TotalStaked: 250}
	if err := svc.Run(context.Background(), pools); err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if len(sink.events) != 2 || sink.events[1].Kind != publishers.KindPoolUpdated {
		t.Fatalf("expected update event, got %+v", sink.events)
	}
	if sink.events[1].Pool.TotalStaked != 250 {
		t.Fatalf("event carries stale pool state: %+v", sink.events[1].Pool)
	}
}

func TestRunAggregatesPerPoolErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("backend down")}
	svc := NewService(fetcher, &recordingPublisher{}, &memSnapshots{digests: map[string]string{}}, nil)

	err := svc.Run(context.Background(), []accessapi.WatchedPool{
		watchedPool("pool-1"),
		watchedPool("pool-2"),
	})
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestRunRequiresPools(t *testing.T) {
	svc := NewService(&fakeFetcher{}, nil, nil, nil)
	if err := svc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error when no pools configured")
	}
}
