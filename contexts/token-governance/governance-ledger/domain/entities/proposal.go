package entities

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	domainerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
)

// ProposalStatus is a single tagged state replacing the executed/cancelled
// boolean pair. The terminal states are mutually exclusive by construction
// and each transition out of active is a one-way latch.
type ProposalStatus string

const (
	ProposalStatusActive    ProposalStatus = "active"
	ProposalStatusExecuted  ProposalStatus = "executed"
	ProposalStatusCancelled ProposalStatus = "cancelled"
)

type ProposalType string

const (
	ProposalTypeTreasuryWithdrawal ProposalType = "treasury_withdrawal"
	ProposalTypeParameterChange    ProposalType = "parameter_change"
	ProposalTypeOther              ProposalType = "other"
)

// ParseProposalType validates external input against the closed enum.
func ParseProposalType(raw string) (ProposalType, error) {
	switch ProposalType(raw) {
	case ProposalTypeTreasuryWithdrawal, ProposalTypeParameterChange, ProposalTypeOther:
		return ProposalType(raw), nil
	default:
		return "", domainerrors.ErrInvalidProposalType
	}
}

type VoteChoice string

const (
	VoteChoiceYes     VoteChoice = "yes"
	VoteChoiceNo      VoteChoice = "no"
	VoteChoiceAbstain VoteChoice = "abstain"
)

func ParseVoteChoice(raw string) (VoteChoice, error) {
	switch VoteChoice(raw) {
	case VoteChoiceYes, VoteChoiceNo, VoteChoiceAbstain:
		return VoteChoice(raw), nil
	default:
		return "", domainerrors.ErrInvalidVoteChoice
	}
}

// ProposalPhase is the derived read-model state: status plus the voting and
// execution-delay windows evaluated against a point in time.
type ProposalPhase string

const (
	PhaseVotingOpen       ProposalPhase = "voting_open"
	PhasePendingExecution ProposalPhase = "pending_execution"
	PhaseExecuted         ProposalPhase = "executed"
	PhaseCancelled        ProposalPhase = "cancelled"
)

// GovernanceConfig is the singleton per-token governance record. Created
// once, mutated only by the authority, never deleted.
type GovernanceConfig struct {
	GovernanceID          string
	Authority             string
	TokenMint             string
	Treasury              string
	MinProposalTokens     uint64
	VotingPeriodSeconds   int64
	ExecutionDelaySeconds int64
	QuorumPercentage      uint64
	ProposalCount         uint64
	CreatedAt             int64
	UpdatedAt             int64
}

// Proposal is keyed by (governance, proposalID); proposalID is monotonic and
// never reused. Tallies only ever move through checked arithmetic.
type Proposal struct {
	GovernanceID     string
	ProposalID       uint64
	Proposer         string
	Title            string
	Description      string
	ProposalType     ProposalType
	ExecutionPayload []byte
	CreatedAt        int64
	VotingEndsAt     int64
	YesVotes         uint64
	NoVotes          uint64
	Status           ProposalStatus
	ExecutedAt       int64
	CancelledAt      int64
}

func (p Proposal) Executed() bool {
	return p.Status == ProposalStatusExecuted
}

func (p Proposal) Cancelled() bool {
	return p.Status == ProposalStatusCancelled
}

// VotingOpen reports whether votes may still be cast at the given time.
func (p Proposal) VotingOpen(now int64) bool {
	return p.Status == ProposalStatusActive && now < p.VotingEndsAt
}

// Phase derives the read-model phase at the given time.
func (p Proposal) Phase(now int64) ProposalPhase {
	switch p.Status {
	case ProposalStatusExecuted:
		return PhaseExecuted
	case ProposalStatusCancelled:
		return PhaseCancelled
	}
	if now < p.VotingEndsAt {
		return PhaseVotingOpen
	}
	return PhasePendingExecution
}

// VoteRecord is the single slot per (proposal, voter) pair. A revote
// overwrites it; the snapshot power is whatever the registry held at the
// most recent cast.
type VoteRecord struct {
	GovernanceID      string
	ProposalID        uint64
	Voter             string
	Choice            VoteChoice
	VotingPowerAtCast uint64
	CastAt            int64
}

// GovernanceKey derives the deterministic record key for a token mint.
func GovernanceKey(tokenMint string) string {
	return "governance:" + tokenMint
}

// ProposalKey derives the deterministic record key for (governance, id).
func ProposalKey(governanceID string, proposalID uint64) string {
	return fmt.Sprintf("proposal:%s:%d", governanceID, proposalID)
}

// VoteKey derives the deterministic record key for (proposal, voter).
func VoteKey(governanceID string, proposalID uint64, voter string) string {
	return fmt.Sprintf("vote:%s:%d:%s", governanceID, proposalID, voter)
}

// QuorumThreshold computes floor(totalVotingPower * quorumPercentage / 100).
// The product is taken in 256-bit space so totals near the u64 ceiling do
// not overflow before the division.
func QuorumThreshold(totalVotingPower uint64, quorumPercentage uint64) (uint64, error) {
	product := new(uint256.Int).Mul(
		uint256.NewInt(totalVotingPower),
		uint256.NewInt(quorumPercentage),
	)
	threshold, overflow := product.Div(product, uint256.NewInt(100)).Uint64WithOverflow()
	if overflow {
		return 0, domainerrors.ErrArithmeticOverflow
	}
	return threshold, nil
}

// ApplyVoteDelta removes the prior contribution and adds the new one. Both
// legs use checked arithmetic; abstain contributes to neither tally but the
// record slot is still overwritten by the caller.
func (p *Proposal) ApplyVoteDelta(prior *VoteRecord, choice VoteChoice, power uint64) error {
	if prior != nil {
		var err error
		switch prior.Choice {
		case VoteChoiceYes:
			p.YesVotes, err = CheckedSub(p.YesVotes, prior.VotingPowerAtCast)
		case VoteChoiceNo:
			p.NoVotes, err = CheckedSub(p.NoVotes, prior.VotingPowerAtCast)
		}
		if err != nil {
			return err
		}
	}
	var err error
	switch choice {
	case VoteChoiceYes:
		p.YesVotes, err = CheckedAdd(p.YesVotes, power)
	case VoteChoiceNo:
		p.NoVotes, err = CheckedAdd(p.NoVotes, power)
	}
	return err
}

// CheckedAdd fails on u64 overflow instead of wrapping; a wrapped tally
// would corrupt the quorum arithmetic silently.
func CheckedAdd(a uint64, b uint64) (uint64, error) {
	if b > math.MaxUint64-a {
		return 0, domainerrors.ErrArithmeticOverflow
	}
	return a + b, nil
}

// CheckedSub fails on underflow; an underflowing tally subtraction means a
// vote record claims power the tally never received.
func CheckedSub(a uint64, b uint64) (uint64, error) {
	if b > a {
		return 0, domainerrors.ErrArithmeticUnderflow
	}
	return a - b, nil
}
