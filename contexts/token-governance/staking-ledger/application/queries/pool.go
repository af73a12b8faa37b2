package queries

import (
	"context"
	"sort"
	"strings"

	"wct/contexts/token-governance/staking-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/staking-ledger/domain/errors"
	"wct/contexts/token-governance/staking-ledger/ports"
)

type PoolUseCase struct {
	Repo   ports.StakeRepository
	PoolID string
}

func (uc PoolUseCase) PoolSummary(ctx context.Context) (entities.StakingPool, error) {
	return uc.Repo.GetPool(ctx, uc.PoolID)
}

func (uc PoolUseCase) StakeByOwner(ctx context.Context, owner string) (entities.UserStake, error) {
	stake, found, err := uc.Repo.GetStake(ctx, uc.PoolID, strings.TrimSpace(owner))
	if err != nil {
		return entities.UserStake{}, err
	}
	if !found {
		return entities.UserStake{}, domainerrors.ErrStakeNotFound
	}
	return stake, nil
}

func (uc PoolUseCase) StakesByPool(ctx context.Context) ([]entities.UserStake, error) {
	stakes, err := uc.Repo.ListStakesByPool(ctx, uc.PoolID)
	if err != nil {
		return nil, err
	}
	sort.Slice(stakes, func(i, j int) bool {
		if stakes[i].StartTimestamp == stakes[j].StartTimestamp {
			return stakes[i].Owner < stakes[j].Owner
		}
		return stakes[i].StartTimestamp < stakes[j].StartTimestamp
	})
	return stakes, nil
}
