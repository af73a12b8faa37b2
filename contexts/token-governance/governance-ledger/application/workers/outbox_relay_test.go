package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wct/contexts/token-governance/governance-ledger/adapters/memory"
	"wct/contexts/token-governance/governance-ledger/ports"
)

type publisherStub struct {
	topics []string
	fail   error
}

func (p *publisherStub) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	if p.fail != nil {
		return p.fail
	}
	p.topics = append(p.topics, topic)
	return nil
}

func TestGovernanceOutboxRelayRoundTrip(t *testing.T) {
	store := memory.NewStore()
	payload, _ := json.Marshal(map[string]any{"proposal_id": uint64(1), "proposer": "alice"})
	if err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       "evt-1",
		EventType:     "governance.proposal_created",
		OccurredAt:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		SourceService: "governance-ledger",
		SchemaVersion: 1,
		PartitionKey:  "1",
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
	if len(publisher.topics) != 1 || publisher.topics[0] != "governance.proposal_created" {
		t.Fatalf("expected topic governance.proposal_created, got %v", publisher.topics)
	}
	if store.PendingOutboxCount() != 0 {
		t.Fatalf("published row must leave the pending set")
	}
}
