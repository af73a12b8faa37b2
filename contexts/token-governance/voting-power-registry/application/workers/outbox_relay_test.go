package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wct/contexts/token-governance/voting-power-registry/adapters/memory"
	"wct/contexts/token-governance/voting-power-registry/ports"
)

type publisherStub struct {
	published int
	fail      error
}

func (p *publisherStub) Publish(context.Context, string, ports.EventEnvelope) error {
	if p.fail != nil {
		return p.fail
	}
	p.published++
	return nil
}

func TestRegistryOutboxRelayRoundTrip(t *testing.T) {
	store := memory.NewStore()
	payload, _ := json.Marshal(map[string]any{"voter": "alice", "new_power": 7})
	if err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       "evt-1",
		EventType:     "registry.power_updated",
		OccurredAt:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		SourceService: "voting-power-registry",
		SchemaVersion: 1,
		PartitionKey:  "alice",
		Data:          payload,
	}); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}

	publisher := &publisherStub{fail: errors.New("broker down")}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}
	if store.PendingOutboxCount() != 1 {
		t.Fatalf("failed publish must leave the row pending")
	}

	publisher.fail = nil
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry run failed: %v", err)
	}
	if publisher.published != 1 || store.PendingOutboxCount() != 0 {
		t.Fatalf("expected one published row, got published=%d pending=%d", publisher.published, store.PendingOutboxCount())
	}
}
