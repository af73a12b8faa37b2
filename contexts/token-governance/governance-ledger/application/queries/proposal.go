package queries

import (
	"context"
	"sort"
	"time"

	"wct/contexts/token-governance/governance-ledger/domain/entities"
	"wct/contexts/token-governance/governance-ledger/ports"
)

// ProposalView is the read model: the proposal plus its derived phase at
// query time.
type ProposalView struct {
	Proposal entities.Proposal
	Phase    entities.ProposalPhase
}

// TallySummary reports a proposal's standing against the current quorum
// threshold without mutating anything.
type TallySummary struct {
	ProposalID       uint64
	YesVotes         uint64
	NoVotes          uint64
	TotalVotes       uint64
	TotalVotingPower uint64
	QuorumThreshold  uint64
	QuorumReached    bool
	MajorityReached  bool
}

type ProposalUseCase struct {
	Repo         ports.GovernanceRepository
	Powers       ports.VotingPowerSource
	Clock        ports.Clock
	GovernanceID string
}

func (uc ProposalUseCase) GovernanceSummary(ctx context.Context) (entities.GovernanceConfig, error) {
	return uc.Repo.GetGovernance(ctx, uc.GovernanceID)
}

func (uc ProposalUseCase) Proposal(ctx context.Context, proposalID uint64) (ProposalView, error) {
	proposal, err := uc.Repo.GetProposal(ctx, uc.GovernanceID, proposalID)
	if err != nil {
		return ProposalView{}, err
	}
	return ProposalView{
		Proposal: proposal,
		Phase:    proposal.Phase(uc.now().Unix()),
	}, nil
}

func (uc ProposalUseCase) Proposals(ctx context.Context) ([]ProposalView, error) {
	proposals, err := uc.Repo.ListProposals(ctx, uc.GovernanceID)
	if err != nil {
		return nil, err
	}
	sort.Slice(proposals, func(i, j int) bool {
		return proposals[i].ProposalID < proposals[j].ProposalID
	})
	now := uc.now().Unix()
	views := make([]ProposalView, 0, len(proposals))
	for _, proposal := range proposals {
		views = append(views, ProposalView{
			Proposal: proposal,
			Phase:    proposal.Phase(now),
		})
	}
	return views, nil
}

func (uc ProposalUseCase) Votes(ctx context.Context, proposalID uint64) ([]entities.VoteRecord, error) {
	votes, err := uc.Repo.ListVotes(ctx, uc.GovernanceID, proposalID)
	if err != nil {
		return nil, err
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].Voter < votes[j].Voter
	})
	return votes, nil
}

// Tally computes the proposal's current standing. A proposal can drift in
// and out of quorum as the registry total moves, so the summary is a point
// in time, not a stored fact.
func (uc ProposalUseCase) Tally(ctx context.Context, proposalID uint64) (TallySummary, error) {
	config, err := uc.Repo.GetGovernance(ctx, uc.GovernanceID)
	if err != nil {
		return TallySummary{}, err
	}
	proposal, err := uc.Repo.GetProposal(ctx, uc.GovernanceID, proposalID)
	if err != nil {
		return TallySummary{}, err
	}
	totalPower, err := uc.Powers.TotalPower(ctx)
	if err != nil {
		return TallySummary{}, err
	}
	threshold, err := entities.QuorumThreshold(totalPower, config.QuorumPercentage)
	if err != nil {
		return TallySummary{}, err
	}
	totalVotes, err := entities.CheckedAdd(proposal.YesVotes, proposal.NoVotes)
	if err != nil {
		return TallySummary{}, err
	}
	return TallySummary{
		ProposalID:       proposal.ProposalID,
		YesVotes:         proposal.YesVotes,
		NoVotes:          proposal.NoVotes,
		TotalVotes:       totalVotes,
		TotalVotingPower: totalPower,
		QuorumThreshold:  threshold,
		QuorumReached:    totalVotes >= threshold,
		MajorityReached:  proposal.YesVotes > proposal.NoVotes,
	}, nil
}

func (uc ProposalUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
