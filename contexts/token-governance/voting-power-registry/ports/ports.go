package ports

import (
	"context"
	"time"

	"wct/contexts/token-governance/voting-power-registry/domain/entities"
	contractsv1 "wct/contracts/gen/events/v1"
)

// PowerRepository persists the registry singleton and per-voter power slots.
// ApplyPowerUpdate commits the retotaled registry and the voter slot
// together or not at all.
type PowerRepository interface {
	GetRegistry(ctx context.Context, governanceID string) (entities.Registry, error)
	SaveRegistry(ctx context.Context, registry entities.Registry) error
	GetVoterPower(ctx context.Context, governanceID string, voter string) (entities.VoterPower, bool, error)
	ListVoterPowers(ctx context.Context, governanceID string) ([]entities.VoterPower, error)
	ApplyPowerUpdate(ctx context.Context, registry entities.Registry, power entities.VoterPower) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
