package commands

import (
	"context"
	"strings"

	application "wct/contexts/token-governance/governance-ledger/application"
	"wct/contexts/token-governance/governance-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
)

type ExecuteProposalCommand struct {
	Executor   string
	ProposalID uint64
}

type ExecuteProposalResult struct {
	Proposal        entities.Proposal
	QuorumThreshold uint64
	TotalVotes      uint64
}

// ExecuteProposal evaluates every gate in order: voting closed, not in a
// terminal state, execution delay passed, quorum, strict majority. Quorum
// counts yes+no only; abstain power registers in the total but not in the
// numerator. The executed latch commits before the external dispatch result
// is reported, so the effect can fire at most once.
func (uc GovernanceUseCase) ExecuteProposal(ctx context.Context, cmd ExecuteProposalCommand) (ExecuteProposalResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	executor := strings.TrimSpace(cmd.Executor)
	if executor == "" {
		return ExecuteProposalResult{}, domainerrors.ErrInvalidProposalInput
	}

	config, err := uc.Repo.GetGovernance(ctx, uc.GovernanceID)
	if err != nil {
		return ExecuteProposalResult{}, err
	}
	proposal, err := uc.Repo.GetProposal(ctx, uc.GovernanceID, cmd.ProposalID)
	if err != nil {
		return ExecuteProposalResult{}, err
	}
	now := uc.now().Unix()
	if proposal.Executed() {
		return ExecuteProposalResult{}, domainerrors.ErrProposalAlreadyExecuted
	}
	if proposal.Cancelled() {
		return ExecuteProposalResult{}, domainerrors.ErrProposalCancelled
	}
	if now < proposal.VotingEndsAt {
		return ExecuteProposalResult{}, domainerrors.ErrVotingStillOpen
	}
	if now < proposal.VotingEndsAt+config.ExecutionDelaySeconds {
		return ExecuteProposalResult{}, domainerrors.ErrExecutionDelayNotPassed
	}

	totalPower, err := uc.Powers.TotalPower(ctx)
	if err != nil {
		return ExecuteProposalResult{}, err
	}
	threshold, err := entities.QuorumThreshold(totalPower, config.QuorumPercentage)
	if err != nil {
		return ExecuteProposalResult{}, err
	}
	totalVotes, err := entities.CheckedAdd(proposal.YesVotes, proposal.NoVotes)
	if err != nil {
		return ExecuteProposalResult{}, err
	}
	if totalVotes < threshold {
		logger.Warn("proposal execution rejected",
			"event", "governance_quorum_not_reached",
			"module", "token-governance/governance-ledger",
			"layer", "application",
			"governance_id", config.GovernanceID,
			"proposal_id", proposal.ProposalID,
			"total_votes", totalVotes,
			"quorum_threshold", threshold,
		)
		return ExecuteProposalResult{}, domainerrors.ErrQuorumNotReached
	}
	if proposal.YesVotes <= proposal.NoVotes {
		return ExecuteProposalResult{}, domainerrors.ErrProposalNotPassed
	}

	proposal.Status = entities.ProposalStatusExecuted
	proposal.ExecutedAt = now
	if err := uc.Repo.ApplyProposalStatus(ctx, proposal); err != nil {
		return ExecuteProposalResult{}, err
	}

	// Dispatch is an external collaborator boundary; the ledger only
	// guarantees the gate decision and the one-way latch.
	if uc.Executor != nil {
		if err := uc.Executor.Execute(ctx, proposal); err != nil {
			logger.Error("proposal effect dispatch failed",
				"event", "governance_dispatch_failed",
				"module", "token-governance/governance-ledger",
				"layer", "application",
				"governance_id", config.GovernanceID,
				"proposal_id", proposal.ProposalID,
				"proposal_type", string(proposal.ProposalType),
				"error", err.Error(),
			)
			return ExecuteProposalResult{}, err
		}
	}

	if err := uc.appendGovernanceEvent(ctx, "governance.proposal_executed", config.GovernanceID, map[string]any{
		"governance_id":    config.GovernanceID,
		"proposal_id":      proposal.ProposalID,
		"executor":         executor,
		"yes_votes":        proposal.YesVotes,
		"no_votes":         proposal.NoVotes,
		"quorum_threshold": threshold,
	}); err != nil {
		return ExecuteProposalResult{}, err
	}

	logger.Info("proposal executed",
		"event", "governance_proposal_executed",
		"module", "token-governance/governance-ledger",
		"layer", "application",
		"governance_id", config.GovernanceID,
		"proposal_id", proposal.ProposalID,
		"executor", executor,
		"yes_votes", proposal.YesVotes,
		"no_votes", proposal.NoVotes,
	)
	return ExecuteProposalResult{
		Proposal:        proposal,
		QuorumThreshold: threshold,
		TotalVotes:      totalVotes,
	}, nil
}
