package ports

import (
	"context"
	"time"

	"wct/contexts/token-governance/staking-ledger/domain/entities"
	contractsv1 "wct/contracts/gen/events/v1"
)

// StakeRepository persists the staking ledger. Apply* methods commit every
// record they receive atomically: either all rows land or none do.
type StakeRepository interface {
	GetPool(ctx context.Context, poolID string) (entities.StakingPool, error)
	SavePool(ctx context.Context, pool entities.StakingPool) error
	GetStake(ctx context.Context, poolID string, owner string) (entities.UserStake, bool, error)
	ListStakesByPool(ctx context.Context, poolID string) ([]entities.UserStake, error)

	ApplyStake(ctx context.Context, pool entities.StakingPool, stake entities.UserStake) error
	ApplyClaim(ctx context.Context, stake entities.UserStake) error
	ApplyUnstake(ctx context.Context, pool entities.StakingPool, stake entities.UserStake) error
}

// TokenCustody is the external token collaborator: transfers are atomic and
// fail cleanly with no partial movement.
type TokenCustody interface {
	Transfer(ctx context.Context, from string, to string, amount uint64) error
	BalanceOf(ctx context.Context, account string) (uint64, error)
}

// VotingPowerRegistrar pushes derived voting power downstream. Data flows one
// direction only; the registry never writes back into the staking ledger.
type VotingPowerRegistrar interface {
	RegisterVotingPower(ctx context.Context, voter string, power uint64) error
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
