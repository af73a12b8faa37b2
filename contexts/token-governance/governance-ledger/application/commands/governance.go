package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "wct/contexts/token-governance/governance-ledger/application"
	"wct/contexts/token-governance/governance-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/governance-ledger/domain/errors"
	"wct/contexts/token-governance/governance-ledger/ports"
)

// InitializeGovernanceCommand creates the singleton governance record for a
// token mint.
type InitializeGovernanceCommand struct {
	Authority             string
	TokenMint             string
	Treasury              string
	MinProposalTokens     uint64
	VotingPeriodSeconds   int64
	ExecutionDelaySeconds int64
	QuorumPercentage      uint64
}

// UpdateGovernanceCommand carries optional-field updates. Nil fields are
// untouched; each provided field is validated independently.
type UpdateGovernanceCommand struct {
	Authority             string
	MinProposalTokens     *uint64
	VotingPeriodSeconds   *int64
	ExecutionDelaySeconds *int64
	QuorumPercentage      *uint64
}

// GovernanceUseCase owns the proposal lifecycle: creation, vote casting and
// revoting, quorum/majority evaluation, execution, and cancellation. Every
// method validates and computes first and commits through one atomic Apply*
// call, so a failed operation leaves no observable state change.
type GovernanceUseCase struct {
	Repo         ports.GovernanceRepository
	Powers       ports.VotingPowerSource
	Balances     ports.TokenBalanceReader
	Executor     ports.ProposalExecutor
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	GovernanceID string
	Logger       *slog.Logger
}

func (uc GovernanceUseCase) InitializeGovernance(ctx context.Context, cmd InitializeGovernanceCommand) (entities.GovernanceConfig, error) {
	logger := application.ResolveLogger(uc.Logger)
	authority := strings.TrimSpace(cmd.Authority)
	tokenMint := strings.TrimSpace(cmd.TokenMint)
	treasury := strings.TrimSpace(cmd.Treasury)
	if authority == "" || tokenMint == "" || treasury == "" {
		return entities.GovernanceConfig{}, domainerrors.ErrInvalidGovernanceInput
	}
	if cmd.QuorumPercentage == 0 || cmd.QuorumPercentage > 100 {
		return entities.GovernanceConfig{}, domainerrors.ErrInvalidQuorumPercentage
	}
	if cmd.VotingPeriodSeconds <= 0 {
		return entities.GovernanceConfig{}, domainerrors.ErrInvalidVotingPeriod
	}
	if cmd.ExecutionDelaySeconds < 0 {
		return entities.GovernanceConfig{}, domainerrors.ErrInvalidExecutionDelay
	}

	governanceID := entities.GovernanceKey(tokenMint)
	if _, err := uc.Repo.GetGovernance(ctx, governanceID); err == nil {
		return entities.GovernanceConfig{}, domainerrors.ErrGovernanceAlreadyExists
	}

	now := uc.now().Unix()
	config := entities.GovernanceConfig{
		GovernanceID:          governanceID,
		Authority:             authority,
		TokenMint:             tokenMint,
		Treasury:              treasury,
		MinProposalTokens:     cmd.MinProposalTokens,
		VotingPeriodSeconds:   cmd.VotingPeriodSeconds,
		ExecutionDelaySeconds: cmd.ExecutionDelaySeconds,
		QuorumPercentage:      cmd.QuorumPercentage,
		ProposalCount:         0,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := uc.Repo.SaveGovernance(ctx, config); err != nil {
		return entities.GovernanceConfig{}, err
	}
	if err := uc.appendGovernanceEvent(ctx, "governance.initialized", governanceID, map[string]any{
		"governance_id":      governanceID,
		"authority":          authority,
		"token_mint":         tokenMint,
		"quorum_percentage":  cmd.QuorumPercentage,
		"voting_period":      cmd.VotingPeriodSeconds,
		"execution_delay":    cmd.ExecutionDelaySeconds,
		"min_proposal_token": cmd.MinProposalTokens,
	}); err != nil {
		return entities.GovernanceConfig{}, err
	}

	logger.Info("governance initialized",
		"event", "governance_initialized",
		"module", "token-governance/governance-ledger",
		"layer", "application",
		"governance_id", governanceID,
		"quorum_percentage", cmd.QuorumPercentage,
	)
	return config, nil
}

// UpdateGovernance applies the provided fields after validating each one on
// its own; one bad field rejects the whole call with nothing applied.
func (uc GovernanceUseCase) UpdateGovernance(ctx context.Context, cmd UpdateGovernanceCommand) (entities.GovernanceConfig, error) {
	logger := application.ResolveLogger(uc.Logger)
	config, err := uc.Repo.GetGovernance(ctx, uc.GovernanceID)
	if err != nil {
		return entities.GovernanceConfig{}, err
	}
	if strings.TrimSpace(cmd.Authority) != config.Authority {
		return entities.GovernanceConfig{}, domainerrors.ErrUnauthorized
	}

	if cmd.QuorumPercentage != nil && (*cmd.QuorumPercentage == 0 || *cmd.QuorumPercentage > 100) {
		return entities.GovernanceConfig{}, domainerrors.ErrInvalidQuorumPercentage
	}
	if cmd.VotingPeriodSeconds != nil && *cmd.VotingPeriodSeconds <= 0 {
		return entities.GovernanceConfig{}, domainerrors.ErrInvalidVotingPeriod
	}
	if cmd.ExecutionDelaySeconds != nil && *cmd.ExecutionDelaySeconds < 0 {
		return entities.GovernanceConfig{}, domainerrors.ErrInvalidExecutionDelay
	}

	if cmd.MinProposalTokens != nil {
		config.MinProposalTokens = *cmd.MinProposalTokens
	}
	if cmd.VotingPeriodSeconds != nil {
		config.VotingPeriodSeconds = *cmd.VotingPeriodSeconds
	}
	if cmd.ExecutionDelaySeconds != nil {
		config.ExecutionDelaySeconds = *cmd.ExecutionDelaySeconds
	}
	if cmd.QuorumPercentage != nil {
		config.QuorumPercentage = *cmd.QuorumPercentage
	}
	config.UpdatedAt = uc.now().Unix()

	if err := uc.Repo.SaveGovernance(ctx, config); err != nil {
		return entities.GovernanceConfig{}, err
	}
	if err := uc.appendGovernanceEvent(ctx, "governance.params_updated", config.GovernanceID, map[string]any{
		"governance_id":      config.GovernanceID,
		"quorum_percentage":  config.QuorumPercentage,
		"voting_period":      config.VotingPeriodSeconds,
		"execution_delay":    config.ExecutionDelaySeconds,
		"min_proposal_token": config.MinProposalTokens,
	}); err != nil {
		return entities.GovernanceConfig{}, err
	}

	logger.Info("governance parameters updated",
		"event", "governance_params_updated",
		"module", "token-governance/governance-ledger",
		"layer", "application",
		"governance_id", config.GovernanceID,
	)
	return config, nil
}

func (uc GovernanceUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
