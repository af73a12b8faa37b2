package httpadapter

import (
	"context"
	"log/slog"

	"wct/contexts/token-governance/staking-ledger/application/commands"
	"wct/contexts/token-governance/staking-ledger/application/queries"
	"wct/contexts/token-governance/staking-ledger/domain/entities"
	httptransport "wct/contexts/token-governance/staking-ledger/transport/http"
)

type Handler struct {
	Stakes commands.StakeUseCase
	Pools  queries.PoolUseCase
	Logger *slog.Logger
}

func (h Handler) InitializePoolHandler(ctx context.Context, req httptransport.InitializePoolRequest) (httptransport.PoolResponse, error) {
	pool, err := h.Stakes.InitializePool(ctx, commands.InitializePoolCommand{
		Authority:       req.Authority,
		TokenMint:       req.TokenMint,
		TreasuryAccount: req.TreasuryAccount,
		VaultAccount:    req.VaultAccount,
	})
	if err != nil {
		return httptransport.PoolResponse{}, err
	}
	return mapPool(pool), nil
}

func (h Handler) StakeHandler(ctx context.Context, owner string, req httptransport.StakeRequest) (httptransport.StakeResponse, error) {
	result, err := h.Stakes.Stake(ctx, commands.StakeCommand{
		Owner:           owner,
		Amount:          req.Amount,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return httptransport.StakeResponse{}, err
	}
	return mapStake(result.Stake), nil
}

func (h Handler) ClaimRewardHandler(ctx context.Context, owner string) (httptransport.ClaimRewardResponse, error) {
	result, err := h.Stakes.ClaimReward(ctx, commands.ClaimRewardCommand{Owner: owner})
	if err != nil {
		return httptransport.ClaimRewardResponse{}, err
	}
	return httptransport.ClaimRewardResponse{
		Stake:        mapStake(result.Stake),
		RewardPaid:   result.RewardPaid,
		TotalClaimed: result.TotalClaimed,
	}, nil
}

func (h Handler) UnstakeHandler(ctx context.Context, owner string) (httptransport.UnstakeResponse, error) {
	result, err := h.Stakes.Unstake(ctx, commands.UnstakeCommand{Owner: owner})
	if err != nil {
		return httptransport.UnstakeResponse{}, err
	}
	return httptransport.UnstakeResponse{
		Stake:           mapStake(result.Stake),
		PrincipalPaid:   result.PrincipalPaid,
		FinalRewardPaid: result.FinalRewardPaid,
	}, nil
}

func (h Handler) UpdateRewardParamsHandler(
	ctx context.Context,
	authority string,
	req httptransport.UpdateRewardParamsRequest,
) (httptransport.PoolResponse, error) {
	pool, err := h.Stakes.UpdateRewardParams(ctx, commands.UpdateRewardParamsCommand{
		Authority:               authority,
		RewardRateBpsPerDay:     req.RewardRateBpsPerDay,
		MinStakeDurationSeconds: req.MinStakeDurationSeconds,
		MaxStakeDurationSeconds: req.MaxStakeDurationSeconds,
	})
	if err != nil {
		return httptransport.PoolResponse{}, err
	}
	return mapPool(pool), nil
}

func (h Handler) PoolSummaryHandler(ctx context.Context) (httptransport.PoolResponse, error) {
	pool, err := h.Pools.PoolSummary(ctx)
	if err != nil {
		return httptransport.PoolResponse{}, err
	}
	return mapPool(pool), nil
}

func (h Handler) StakeByOwnerHandler(ctx context.Context, owner string) (httptransport.StakeResponse, error) {
	stake, err := h.Pools.StakeByOwner(ctx, owner)
	if err != nil {
		return httptransport.StakeResponse{}, err
	}
	return mapStake(stake), nil
}

func (h Handler) StakeListHandler(ctx context.Context) (httptransport.StakeListResponse, error) {
	stakes, err := h.Pools.StakesByPool(ctx)
	if err != nil {
		return httptransport.StakeListResponse{}, err
	}
	items := make([]httptransport.StakeResponse, 0, len(stakes))
	for _, stake := range stakes {
		items = append(items, mapStake(stake))
	}
	return httptransport.StakeListResponse{Items: items}, nil
}

func mapStake(stake entities.UserStake) httptransport.StakeResponse {
	return httptransport.StakeResponse{
		PoolID:                 stake.PoolID,
		Owner:                  stake.Owner,
		StakeAmount:            stake.StakeAmount,
		StartTimestamp:         stake.StartTimestamp,
		EndTimestamp:           stake.EndTimestamp,
		ClaimedReward:          stake.ClaimedReward,
		LastClaimTimestamp:     stake.LastClaimTimestamp,
		ReputationBoostPercent: stake.ReputationBoostPercent,
		VotingPower:            stake.VotingPower,
		Status:                 string(stake.Status),
	}
}

func mapPool(pool entities.StakingPool) httptransport.PoolResponse {
	return httptransport.PoolResponse{
		PoolID:                  pool.PoolID,
		Authority:               pool.Authority,
		TokenMint:               pool.TokenMint,
		TreasuryAccount:         pool.TreasuryAccount,
		VaultAccount:            pool.VaultAccount,
		TotalStaked:             pool.TotalStaked,
		StakerCount:             pool.StakerCount,
		RewardRateBpsPerDay:     pool.RewardRateBpsPerDay,
		MinStakeDurationSeconds: pool.MinStakeDurationSeconds,
		MaxStakeDurationSeconds: pool.MaxStakeDurationSeconds,
	}
}
