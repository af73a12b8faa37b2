package ports

import (
	"context"
	"time"

	"wct/contexts/token-governance/governance-ledger/domain/entities"
	contractsv1 "wct/contracts/gen/events/v1"
)

// GovernanceRepository persists the governance ledger. Apply* methods commit
// every record they receive atomically: either all rows land or none do.
type GovernanceRepository interface {
	GetGovernance(ctx context.Context, governanceID string) (entities.GovernanceConfig, error)
	SaveGovernance(ctx context.Context, config entities.GovernanceConfig) error
	GetProposal(ctx context.Context, governanceID string, proposalID uint64) (entities.Proposal, error)
	ListProposals(ctx context.Context, governanceID string) ([]entities.Proposal, error)
	GetVote(ctx context.Context, governanceID string, proposalID uint64, voter string) (entities.VoteRecord, bool, error)
	ListVotes(ctx context.Context, governanceID string, proposalID uint64) ([]entities.VoteRecord, error)

	ApplyProposalCreation(ctx context.Context, config entities.GovernanceConfig, proposal entities.Proposal) error
	ApplyVote(ctx context.Context, proposal entities.Proposal, vote entities.VoteRecord) error
	ApplyProposalStatus(ctx context.Context, proposal entities.Proposal) error
}

// VotingPowerSource reads a voter's current registered power and the running
// total. Backed by the voting-power registry; governance never writes it.
type VotingPowerSource interface {
	VoterPower(ctx context.Context, voter string) (uint64, error)
	TotalPower(ctx context.Context) (uint64, error)
}

// TokenBalanceReader gates proposal creation on the proposer's balance.
type TokenBalanceReader interface {
	BalanceOf(ctx context.Context, account string) (uint64, error)
}

// ProposalExecutor dispatches the external effect of a passed proposal by
// type. The ledger only decides whether dispatch is permitted, exactly once.
type ProposalExecutor interface {
	Execute(ctx context.Context, proposal entities.Proposal) error
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
