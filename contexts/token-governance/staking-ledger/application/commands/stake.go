package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "wct/contexts/token-governance/staking-ledger/application"
	"wct/contexts/token-governance/staking-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/staking-ledger/domain/errors"
	"wct/contexts/token-governance/staking-ledger/ports"
)

const (
	defaultRewardRateBpsPerDay = uint64(10)
	defaultMinStakeDuration    = 30 * entities.Day
	defaultMaxStakeDuration    = 365 * entities.Day
)

// InitializePoolCommand creates the singleton staking pool for a token mint.
type InitializePoolCommand struct {
	Authority       string
	TokenMint       string
	TreasuryAccount string
	VaultAccount    string
}

// StakeCommand locks tokens for a chosen duration.
type StakeCommand struct {
	Owner           string
	Amount          uint64
	DurationSeconds int64
}

// StakeResult returns the created stake together with the derived values the
// transport layer reports back to the caller.
type StakeResult struct {
	Stake entities.UserStake
}

// ClaimRewardCommand pays out accrued reward without closing the stake.
type ClaimRewardCommand struct {
	Owner string
}

type ClaimRewardResult struct {
	Stake        entities.UserStake
	RewardPaid   uint64
	TotalClaimed uint64
}

// UnstakeCommand is the terminal transition for a stake slot.
type UnstakeCommand struct {
	Owner string
}

type UnstakeResult struct {
	Stake           entities.UserStake
	PrincipalPaid   uint64
	FinalRewardPaid uint64
}

// UpdateRewardParamsCommand is authority-gated pool reconfiguration.
type UpdateRewardParamsCommand struct {
	Authority               string
	RewardRateBpsPerDay     uint64
	MinStakeDurationSeconds int64
	MaxStakeDurationSeconds int64
}

// StakeUseCase owns stake creation, reward accrual, and unstaking. Every
// method runs as one atomic transaction: all validation and arithmetic happen
// before the repository commit, and a custody transfer failure aborts with no
// observable state change.
type StakeUseCase struct {
	Repo      ports.StakeRepository
	Custody   ports.TokenCustody
	Registrar ports.VotingPowerRegistrar
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	PoolID    string
	Logger    *slog.Logger
}

// InitializePool creates the pool record with the default reward
// configuration from the deployment profile: 10 bps/day, 30-365 day bounds.
func (uc StakeUseCase) InitializePool(ctx context.Context, cmd InitializePoolCommand) (entities.StakingPool, error) {
	logger := application.ResolveLogger(uc.Logger)
	authority := strings.TrimSpace(cmd.Authority)
	tokenMint := strings.TrimSpace(cmd.TokenMint)
	treasury := strings.TrimSpace(cmd.TreasuryAccount)
	vault := strings.TrimSpace(cmd.VaultAccount)
	if authority == "" || tokenMint == "" || treasury == "" || vault == "" {
		logger.Warn("staking pool initialize validation failed",
			"event", "staking_pool_initialize_validation_failed",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"token_mint", tokenMint,
		)
		return entities.StakingPool{}, domainerrors.ErrInvalidStakeInput
	}

	poolID := entities.PoolKey(tokenMint)
	if _, err := uc.Repo.GetPool(ctx, poolID); err == nil {
		return entities.StakingPool{}, domainerrors.ErrPoolAlreadyExists
	}

	now := uc.now().Unix()
	pool := entities.StakingPool{
		PoolID:                  poolID,
		Authority:               authority,
		TokenMint:               tokenMint,
		TreasuryAccount:         treasury,
		VaultAccount:            vault,
		TotalStaked:             0,
		StakerCount:             0,
		RewardRateBpsPerDay:     defaultRewardRateBpsPerDay,
		MinStakeDurationSeconds: defaultMinStakeDuration,
		MaxStakeDurationSeconds: defaultMaxStakeDuration,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := uc.Repo.SavePool(ctx, pool); err != nil {
		return entities.StakingPool{}, err
	}
	if err := uc.appendStakingEvent(ctx, "staking.pool_initialized", pool.PoolID, map[string]any{
		"pool_id":    pool.PoolID,
		"token_mint": pool.TokenMint,
		"authority":  pool.Authority,
	}); err != nil {
		return entities.StakingPool{}, err
	}

	logger.Info("staking pool initialized",
		"event", "staking_pool_initialized",
		"module", "token-governance/staking-ledger",
		"layer", "application",
		"pool_id", pool.PoolID,
		"token_mint", pool.TokenMint,
	)
	return pool, nil
}

// Stake creates a new UserStake, moves principal into the vault, and pushes
// the derived voting power to the registry.
func (uc StakeUseCase) Stake(ctx context.Context, cmd StakeCommand) (StakeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	owner := strings.TrimSpace(cmd.Owner)
	if owner == "" || cmd.Amount == 0 {
		logger.Warn("stake validation failed",
			"event", "staking_stake_validation_failed",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"owner", owner,
			"amount", cmd.Amount,
		)
		return StakeResult{}, domainerrors.ErrInvalidStakeInput
	}

	pool, err := uc.Repo.GetPool(ctx, uc.PoolID)
	if err != nil {
		return StakeResult{}, err
	}
	if cmd.DurationSeconds < pool.MinStakeDurationSeconds || cmd.DurationSeconds > pool.MaxStakeDurationSeconds {
		logger.Warn("stake duration out of bounds",
			"event", "staking_stake_duration_invalid",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"owner", owner,
			"duration_seconds", cmd.DurationSeconds,
		)
		return StakeResult{}, domainerrors.ErrInvalidStakeDuration
	}

	// One stake slot per (pool, owner). A withdrawn slot stays on record but
	// may be reused for a fresh stake.
	if existing, found, err := uc.Repo.GetStake(ctx, pool.PoolID, owner); err != nil {
		return StakeResult{}, err
	} else if found && !existing.Withdrawn() {
		return StakeResult{}, domainerrors.ErrActiveStakeExists
	}

	now := uc.now().Unix()
	votingPower, err := entities.VotingPowerForStake(cmd.Amount, cmd.DurationSeconds)
	if err != nil {
		return StakeResult{}, err
	}
	totalStaked, err := entities.CheckedAdd(pool.TotalStaked, cmd.Amount)
	if err != nil {
		return StakeResult{}, err
	}
	stakerCount, err := entities.CheckedAdd(pool.StakerCount, 1)
	if err != nil {
		return StakeResult{}, err
	}

	stake := entities.UserStake{
		PoolID:                 pool.PoolID,
		Owner:                  owner,
		StakeAmount:            cmd.Amount,
		StartTimestamp:         now,
		EndTimestamp:           now + cmd.DurationSeconds,
		ClaimedReward:          0,
		LastClaimTimestamp:     now,
		ReputationBoostPercent: entities.ReputationBoostPercent(cmd.DurationSeconds),
		VotingPower:            votingPower,
		Status:                 entities.StakeStatusLocked,
	}
	pool.TotalStaked = totalStaked
	pool.StakerCount = stakerCount
	pool.UpdatedAt = now

	// Derived power goes to the registry first; a rejecting registry aborts
	// the whole stake before any balance or row is touched.
	if err := uc.registerPower(ctx, owner, votingPower); err != nil {
		logger.Warn("stake power registration rejected",
			"event", "staking_stake_registration_rejected",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"owner", owner,
			"voting_power", votingPower,
			"error", err.Error(),
		)
		return StakeResult{}, err
	}
	if err := uc.Custody.Transfer(ctx, owner, pool.VaultAccount, cmd.Amount); err != nil {
		logger.Warn("stake principal transfer rejected",
			"event", "staking_stake_transfer_rejected",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"owner", owner,
			"amount", cmd.Amount,
			"error", err.Error(),
		)
		uc.restorePower(ctx, owner, 0)
		return StakeResult{}, err
	}
	if err := uc.Repo.ApplyStake(ctx, pool, stake); err != nil {
		uc.refundPrincipal(ctx, pool.VaultAccount, owner, cmd.Amount)
		uc.restorePower(ctx, owner, 0)
		return StakeResult{}, err
	}
	if err := uc.appendStakingEvent(ctx, "staking.staked", owner, map[string]any{
		"pool_id":          pool.PoolID,
		"owner":            owner,
		"amount":           cmd.Amount,
		"duration_seconds": cmd.DurationSeconds,
		"end_timestamp":    stake.EndTimestamp,
		"reputation_boost": stake.ReputationBoostPercent,
		"voting_power":     stake.VotingPower,
	}); err != nil {
		return StakeResult{}, err
	}

	logger.Info("stake created",
		"event", "staking_staked",
		"module", "token-governance/staking-ledger",
		"layer", "application",
		"pool_id", pool.PoolID,
		"owner", owner,
		"amount", cmd.Amount,
		"voting_power", votingPower,
	)
	return StakeResult{Stake: stake}, nil
}

// ClaimReward settles accrued reward since lastClaimTimestamp and advances
// the baseline. Integer truncation is policy: the fractional remainder is
// recovered by later claims over the new baseline.
func (uc StakeUseCase) ClaimReward(ctx context.Context, cmd ClaimRewardCommand) (ClaimRewardResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	owner := strings.TrimSpace(cmd.Owner)
	if owner == "" {
		return ClaimRewardResult{}, domainerrors.ErrInvalidStakeInput
	}

	pool, err := uc.Repo.GetPool(ctx, uc.PoolID)
	if err != nil {
		return ClaimRewardResult{}, err
	}
	stake, found, err := uc.Repo.GetStake(ctx, pool.PoolID, owner)
	if err != nil {
		return ClaimRewardResult{}, err
	}
	if !found {
		return ClaimRewardResult{}, domainerrors.ErrStakeNotFound
	}
	if stake.Withdrawn() {
		return ClaimRewardResult{}, domainerrors.ErrStakeAlreadyWithdrawn
	}

	now := uc.now().Unix()
	elapsed := now - stake.LastClaimTimestamp
	if elapsed <= 0 {
		return ClaimRewardResult{}, domainerrors.ErrNoRewardsYet
	}

	reward, err := entities.AccruedReward(stake.StakeAmount, pool.RewardRateBpsPerDay, elapsed)
	if err != nil {
		return ClaimRewardResult{}, err
	}
	claimedTotal, err := entities.CheckedAdd(stake.ClaimedReward, reward)
	if err != nil {
		return ClaimRewardResult{}, err
	}

	// Treasury payout before the state commit; an underfunded treasury fails
	// the whole claim with no partial update.
	if reward > 0 {
		if err := uc.Custody.Transfer(ctx, pool.TreasuryAccount, owner, reward); err != nil {
			logger.Warn("reward transfer rejected",
				"event", "staking_claim_transfer_rejected",
				"module", "token-governance/staking-ledger",
				"layer", "application",
				"owner", owner,
				"reward", reward,
				"error", err.Error(),
			)
			return ClaimRewardResult{}, err
		}
	}

	stake.ClaimedReward = claimedTotal
	stake.LastClaimTimestamp = now
	if err := uc.Repo.ApplyClaim(ctx, stake); err != nil {
		return ClaimRewardResult{}, err
	}
	if err := uc.appendStakingEvent(ctx, "staking.reward_claimed", owner, map[string]any{
		"pool_id":       pool.PoolID,
		"owner":         owner,
		"reward":        reward,
		"total_claimed": claimedTotal,
	}); err != nil {
		return ClaimRewardResult{}, err
	}

	logger.Info("stake reward claimed",
		"event", "staking_reward_claimed",
		"module", "token-governance/staking-ledger",
		"layer", "application",
		"pool_id", pool.PoolID,
		"owner", owner,
		"reward", reward,
		"total_claimed", claimedTotal,
	)
	return ClaimRewardResult{Stake: stake, RewardPaid: reward, TotalClaimed: claimedTotal}, nil
}

// Unstake settles any final reward with the claim formula, returns principal
// from the vault, decrements pool totals, and latches the slot withdrawn.
// Reward settlement runs before the principal return so both transfers see
// consistent pre-transition balances.
func (uc StakeUseCase) Unstake(ctx context.Context, cmd UnstakeCommand) (UnstakeResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	owner := strings.TrimSpace(cmd.Owner)
	if owner == "" {
		return UnstakeResult{}, domainerrors.ErrInvalidStakeInput
	}

	pool, err := uc.Repo.GetPool(ctx, uc.PoolID)
	if err != nil {
		return UnstakeResult{}, err
	}
	stake, found, err := uc.Repo.GetStake(ctx, pool.PoolID, owner)
	if err != nil {
		return UnstakeResult{}, err
	}
	if !found {
		return UnstakeResult{}, domainerrors.ErrStakeNotFound
	}
	if stake.Withdrawn() {
		return UnstakeResult{}, domainerrors.ErrStakeAlreadyWithdrawn
	}

	now := uc.now().Unix()
	if now < stake.EndTimestamp {
		return UnstakeResult{}, domainerrors.ErrStakeLockNotExpired
	}

	var finalReward uint64
	if now > stake.LastClaimTimestamp {
		finalReward, err = entities.AccruedReward(stake.StakeAmount, pool.RewardRateBpsPerDay, now-stake.LastClaimTimestamp)
		if err != nil {
			return UnstakeResult{}, err
		}
	}
	claimedTotal, err := entities.CheckedAdd(stake.ClaimedReward, finalReward)
	if err != nil {
		return UnstakeResult{}, err
	}
	totalStaked, err := entities.CheckedSub(pool.TotalStaked, stake.StakeAmount)
	if err != nil {
		return UnstakeResult{}, err
	}
	stakerCount, err := entities.CheckedSub(pool.StakerCount, 1)
	if err != nil {
		return UnstakeResult{}, err
	}

	// The slot stops backing voting power before any payout; if a later step
	// fails the prior power is restored so registry and ledger stay aligned.
	if err := uc.registerPower(ctx, owner, 0); err != nil {
		logger.Warn("unstake power deregistration rejected",
			"event", "staking_unstake_deregistration_rejected",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"owner", owner,
			"error", err.Error(),
		)
		return UnstakeResult{}, err
	}
	if finalReward > 0 {
		if err := uc.Custody.Transfer(ctx, pool.TreasuryAccount, owner, finalReward); err != nil {
			logger.Warn("final reward transfer rejected",
				"event", "staking_unstake_reward_rejected",
				"module", "token-governance/staking-ledger",
				"layer", "application",
				"owner", owner,
				"reward", finalReward,
				"error", err.Error(),
			)
			uc.restorePower(ctx, owner, stake.VotingPower)
			return UnstakeResult{}, err
		}
	}
	if err := uc.Custody.Transfer(ctx, pool.VaultAccount, owner, stake.StakeAmount); err != nil {
		logger.Error("principal return transfer failed",
			"event", "staking_unstake_principal_rejected",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"owner", owner,
			"amount", stake.StakeAmount,
			"error", err.Error(),
		)
		uc.restorePower(ctx, owner, stake.VotingPower)
		return UnstakeResult{}, err
	}

	stake.ClaimedReward = claimedTotal
	stake.LastClaimTimestamp = now
	stake.Status = entities.StakeStatusWithdrawn
	pool.TotalStaked = totalStaked
	pool.StakerCount = stakerCount
	pool.UpdatedAt = now
	if err := uc.Repo.ApplyUnstake(ctx, pool, stake); err != nil {
		uc.restorePower(ctx, owner, stake.VotingPower)
		return UnstakeResult{}, err
	}
	if err := uc.appendStakingEvent(ctx, "staking.unstaked", owner, map[string]any{
		"pool_id":       pool.PoolID,
		"owner":         owner,
		"amount":        stake.StakeAmount,
		"final_reward":  finalReward,
		"total_rewards": claimedTotal,
	}); err != nil {
		return UnstakeResult{}, err
	}

	logger.Info("stake withdrawn",
		"event", "staking_unstaked",
		"module", "token-governance/staking-ledger",
		"layer", "application",
		"pool_id", pool.PoolID,
		"owner", owner,
		"amount", stake.StakeAmount,
		"final_reward", finalReward,
	)
	return UnstakeResult{Stake: stake, PrincipalPaid: stake.StakeAmount, FinalRewardPaid: finalReward}, nil
}

// UpdateRewardParams applies new accrual parameters immediately for all
// subsequent accrual windows. Already-elapsed periods are not recomputed;
// each stake's lastClaimTimestamp partitions old-rate and new-rate intervals
// at claim granularity.
func (uc StakeUseCase) UpdateRewardParams(ctx context.Context, cmd UpdateRewardParamsCommand) (entities.StakingPool, error) {
	logger := application.ResolveLogger(uc.Logger)
	authority := strings.TrimSpace(cmd.Authority)
	if authority == "" {
		return entities.StakingPool{}, domainerrors.ErrInvalidStakeInput
	}
	if cmd.MinStakeDurationSeconds <= 0 || cmd.MaxStakeDurationSeconds < cmd.MinStakeDurationSeconds {
		return entities.StakingPool{}, domainerrors.ErrInvalidRewardParams
	}

	pool, err := uc.Repo.GetPool(ctx, uc.PoolID)
	if err != nil {
		return entities.StakingPool{}, err
	}
	if authority != pool.Authority {
		logger.Warn("reward params update rejected",
			"event", "staking_params_update_unauthorized",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"pool_id", pool.PoolID,
			"actor", authority,
		)
		return entities.StakingPool{}, domainerrors.ErrUnauthorized
	}

	pool.RewardRateBpsPerDay = cmd.RewardRateBpsPerDay
	pool.MinStakeDurationSeconds = cmd.MinStakeDurationSeconds
	pool.MaxStakeDurationSeconds = cmd.MaxStakeDurationSeconds
	pool.UpdatedAt = uc.now().Unix()
	if err := uc.Repo.SavePool(ctx, pool); err != nil {
		return entities.StakingPool{}, err
	}
	if err := uc.appendStakingEvent(ctx, "staking.params_updated", pool.PoolID, map[string]any{
		"pool_id":            pool.PoolID,
		"reward_rate_bps":    pool.RewardRateBpsPerDay,
		"min_stake_duration": pool.MinStakeDurationSeconds,
		"max_stake_duration": pool.MaxStakeDurationSeconds,
	}); err != nil {
		return entities.StakingPool{}, err
	}

	logger.Info("reward params updated",
		"event", "staking_params_updated",
		"module", "token-governance/staking-ledger",
		"layer", "application",
		"pool_id", pool.PoolID,
		"reward_rate_bps", pool.RewardRateBpsPerDay,
	)
	return pool, nil
}

func (uc StakeUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc StakeUseCase) registerPower(ctx context.Context, voter string, power uint64) error {
	// Registrar is optional for isolated test wiring.
	if uc.Registrar == nil {
		return nil
	}
	return uc.Registrar.RegisterVotingPower(ctx, voter, power)
}

// restorePower rolls the registry back to the pre-operation value after a
// later step aborted. The original failure is what the caller reports; a
// failed rollback is only logged.
func (uc StakeUseCase) restorePower(ctx context.Context, voter string, power uint64) {
	if err := uc.registerPower(ctx, voter, power); err != nil {
		application.ResolveLogger(uc.Logger).Error("voting power rollback failed",
			"event", "staking_power_rollback_failed",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"owner", voter,
			"voting_power", power,
			"error", err.Error(),
		)
	}
}

func (uc StakeUseCase) refundPrincipal(ctx context.Context, vault string, owner string, amount uint64) {
	if err := uc.Custody.Transfer(ctx, vault, owner, amount); err != nil {
		application.ResolveLogger(uc.Logger).Error("principal refund failed",
			"event", "staking_principal_refund_failed",
			"module", "token-governance/staking-ledger",
			"layer", "application",
			"owner", owner,
			"amount", amount,
			"error", err.Error(),
		)
	}
}
