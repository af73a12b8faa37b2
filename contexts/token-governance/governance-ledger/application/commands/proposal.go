package commands

import (
	"context"
	"strings"

	application "wct/contexts/token-governance/governance-ledger/application"
	"wct/contexts/token-governance/governance-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
)

type CreateProposalCommand struct {
	Proposer         string
	Title            string
	Description      string
	ProposalType     string
	ExecutionPayload []byte
}

type CreateProposalResult struct {
	Proposal entities.Proposal
}

// CancelProposalCommand terminates a proposal before execution. Only the
// original proposer or the governance authority may cancel.
type CancelProposalCommand struct {
	Actor      string
	ProposalID uint64
}

// CreateProposal gates on the proposer's token balance, assigns the next
// monotonic proposal ID, and commits the incremented counter together with
// the proposal row.
func (uc GovernanceUseCase) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (CreateProposalResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	proposer := strings.TrimSpace(cmd.Proposer)
	title := strings.TrimSpace(cmd.Title)
	if proposer == "" || title == "" {
		return CreateProposalResult{}, domainerrors.ErrInvalidProposalInput
	}
	proposalType, err := entities.ParseProposalType(strings.TrimSpace(cmd.ProposalType))
	if err != nil {
		return CreateProposalResult{}, err
	}

	config, err := uc.Repo.GetGovernance(ctx, uc.GovernanceID)
	if err != nil {
		return CreateProposalResult{}, err
	}

	balance, err := uc.Balances.BalanceOf(ctx, proposer)
	if err != nil {
		return CreateProposalResult{}, err
	}
	if balance < config.MinProposalTokens {
		logger.Warn("proposal creation rejected",
			"event", "governance_proposal_rejected",
			"module", "token-governance/governance-ledger",
			"layer", "application",
			"governance_id", config.GovernanceID,
			"proposer", proposer,
			"balance", balance,
			"min_proposal_tokens", config.MinProposalTokens,
		)
		return CreateProposalResult{}, domainerrors.ErrInsufficientTokens
	}

	proposalID, err := entities.CheckedAdd(config.ProposalCount, 1)
	if err != nil {
		return CreateProposalResult{}, err
	}
	now := uc.now().Unix()
	proposal := entities.Proposal{
		GovernanceID:     config.GovernanceID,
		ProposalID:       proposalID,
		Proposer:         proposer,
		Title:            title,
		Description:      strings.TrimSpace(cmd.Description),
		ProposalType:     proposalType,
		ExecutionPayload: cmd.ExecutionPayload,
		CreatedAt:        now,
		VotingEndsAt:     now + config.VotingPeriodSeconds,
		YesVotes:         0,
		NoVotes:          0,
		Status:           entities.ProposalStatusActive,
	}
	config.ProposalCount = proposalID
	config.UpdatedAt = now

	if err := uc.Repo.ApplyProposalCreation(ctx, config, proposal); err != nil {
		return CreateProposalResult{}, err
	}
	if err := uc.appendGovernanceEvent(ctx, "governance.proposal_created", config.GovernanceID, map[string]any{
		"governance_id":  config.GovernanceID,
		"proposal_id":    proposalID,
		"proposer":       proposer,
		"proposal_type":  string(proposalType),
		"voting_ends_at": proposal.VotingEndsAt,
	}); err != nil {
		return CreateProposalResult{}, err
	}

	logger.Info("proposal created",
		"event", "governance_proposal_created",
		"module", "token-governance/governance-ledger",
		"layer", "application",
		"governance_id", config.GovernanceID,
		"proposal_id", proposalID,
		"proposer", proposer,
		"proposal_type", string(proposalType),
	)
	return CreateProposalResult{Proposal: proposal}, nil
}

// CancelProposal latches the cancelled status. Terminal states reject the
// call with their own error so callers can tell why the latch refused.
func (uc GovernanceUseCase) CancelProposal(ctx context.Context, cmd CancelProposalCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor := strings.TrimSpace(cmd.Actor)
	if actor == "" {
		return entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}

	config, err := uc.Repo.GetGovernance(ctx, uc.GovernanceID)
	if err != nil {
		return entities.Proposal{}, err
	}
	proposal, err := uc.Repo.GetProposal(ctx, uc.GovernanceID, cmd.ProposalID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if proposal.Executed() {
		return entities.Proposal{}, domainerrors.ErrProposalAlreadyExecuted
	}
	if proposal.Cancelled() {
		return entities.Proposal{}, domainerrors.ErrProposalCancelled
	}
	if actor != proposal.Proposer && actor != config.Authority {
		logger.Warn("proposal cancellation rejected",
			"event", "governance_cancel_unauthorized",
			"module", "token-governance/governance-ledger",
			"layer", "application",
			"governance_id", config.GovernanceID,
			"proposal_id", proposal.ProposalID,
			"actor", actor,
		)
		return entities.Proposal{}, domainerrors.ErrUnauthorizedCancellation
	}

	proposal.Status = entities.ProposalStatusCancelled
	proposal.CancelledAt = uc.now().Unix()
	if err := uc.Repo.ApplyProposalStatus(ctx, proposal); err != nil {
		return entities.Proposal{}, err
	}
	if err := uc.appendGovernanceEvent(ctx, "governance.proposal_cancelled", config.GovernanceID, map[string]any{
		"governance_id": config.GovernanceID,
		"proposal_id":   proposal.ProposalID,
		"actor":         actor,
	}); err != nil {
		return entities.Proposal{}, err
	}

	logger.Info("proposal cancelled",
		"event", "governance_proposal_cancelled",
		"module", "token-governance/governance-ledger",
		"layer", "application",
		"governance_id", config.GovernanceID,
		"proposal_id", proposal.ProposalID,
		"actor", actor,
	)
	return proposal, nil
}
