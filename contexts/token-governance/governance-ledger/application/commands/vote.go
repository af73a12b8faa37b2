package commands

import (
	"context"
	"strings"

	application "wct/contexts/token-governance/governance-ledger/application"
	"wct/contexts/token-governance/governance-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
)

type CastVoteCommand struct {
	Voter      string
	ProposalID uint64
	Choice     string
}

type CastVoteResult struct {
	Proposal entities.Proposal
	Vote     entities.VoteRecord
	Revote   bool
}

// CastVote records or overwrites the voter's single slot on a proposal. A
// revote first subtracts the prior record's snapshot power from its old
// tally, then re-reads the registry and adds the current power to the new
// tally, so power changes between casts are picked up rather than cached.
// Abstain touches neither tally but still occupies the slot.
func (uc GovernanceUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	voter := strings.TrimSpace(cmd.Voter)
	if voter == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidProposalInput
	}
	choice, err := entities.ParseVoteChoice(strings.TrimSpace(cmd.Choice))
	if err != nil {
		return CastVoteResult{}, err
	}

	proposal, err := uc.Repo.GetProposal(ctx, uc.GovernanceID, cmd.ProposalID)
	if err != nil {
		return CastVoteResult{}, err
	}
	now := uc.now().Unix()
	if proposal.Cancelled() {
		return CastVoteResult{}, domainerrors.ErrProposalCancelled
	}
	if proposal.Executed() {
		return CastVoteResult{}, domainerrors.ErrProposalAlreadyExecuted
	}
	if now >= proposal.VotingEndsAt {
		return CastVoteResult{}, domainerrors.ErrVotingClosed
	}

	power, err := uc.Powers.VoterPower(ctx, voter)
	if err != nil {
		return CastVoteResult{}, err
	}
	if power == 0 {
		return CastVoteResult{}, domainerrors.ErrNoVotingPower
	}

	var prior *entities.VoteRecord
	if existing, found, err := uc.Repo.GetVote(ctx, uc.GovernanceID, cmd.ProposalID, voter); err != nil {
		return CastVoteResult{}, err
	} else if found {
		prior = &existing
	}

	if err := proposal.ApplyVoteDelta(prior, choice, power); err != nil {
		logger.Error("vote tally delta failed",
			"event", "governance_tally_delta_failed",
			"module", "token-governance/governance-ledger",
			"layer", "application",
			"governance_id", uc.GovernanceID,
			"proposal_id", proposal.ProposalID,
			"voter", voter,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}

	vote := entities.VoteRecord{
		GovernanceID:      uc.GovernanceID,
		ProposalID:        proposal.ProposalID,
		Voter:             voter,
		Choice:            choice,
		VotingPowerAtCast: power,
		CastAt:            now,
	}
	if err := uc.Repo.ApplyVote(ctx, proposal, vote); err != nil {
		return CastVoteResult{}, err
	}
	if err := uc.appendGovernanceEvent(ctx, "governance.vote_cast", uc.GovernanceID, map[string]any{
		"governance_id": uc.GovernanceID,
		"proposal_id":   proposal.ProposalID,
		"voter":         voter,
		"choice":        string(choice),
		"voting_power":  power,
		"revote":        prior != nil,
	}); err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("vote cast",
		"event", "governance_vote_cast",
		"module", "token-governance/governance-ledger",
		"layer", "application",
		"governance_id", uc.GovernanceID,
		"proposal_id", proposal.ProposalID,
		"voter", voter,
		"choice", string(choice),
		"voting_power", power,
		"revote", prior != nil,
	)
	return CastVoteResult{
		Proposal: proposal,
		Vote:     vote,
		Revote:   prior != nil,
	}, nil
}
