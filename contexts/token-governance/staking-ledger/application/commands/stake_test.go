package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"wct/contexts/token-governance/staking-ledger/adapters/memory"
	"wct/contexts/token-governance/staking-ledger/domain/entities"
	domainerrors "wct/contexts/token-governance/staking-ledger/domain/errors"
	"wct/internal/shared/tokenledger"
)

const (
	testMint     = "mint-1"
	testTreasury = "treasury"
	testVault    = "vault"
)

type registrarRecorder struct {
	powers map[string]uint64
	calls  int
}

func (r *registrarRecorder) RegisterVotingPower(_ context.Context, voter string, power uint64) error {
	if r.powers == nil {
		r.powers = make(map[string]uint64)
	}
	r.powers[voter] = power
	r.calls++
	return nil
}

type rejectingRegistrar struct{}

func (rejectingRegistrar) RegisterVotingPower(context.Context, string, uint64) error {
	return errors.New("registration rejected")
}

func newStakingFixture(t *testing.T, balances map[string]uint64) (StakeUseCase, *memory.Store, *tokenledger.Ledger, *registrarRecorder) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	ledger := tokenledger.NewSeeded(balances)
	registrar := &registrarRecorder{}
	uc := StakeUseCase{
		Repo:      store,
		Custody:   ledger,
		Registrar: registrar,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		PoolID:    entities.PoolKey(testMint),
	}
	if _, err := uc.InitializePool(context.Background(), InitializePoolCommand{
		Authority:       "pool-admin",
		TokenMint:       testMint,
		TreasuryAccount: testTreasury,
		VaultAccount:    testVault,
	}); err != nil {
		t.Fatalf("initialize pool failed: %v", err)
	}
	return uc, store, ledger, registrar
}

func TestStakeDerivesPowerAndMovesPrincipal(t *testing.T) {
	uc, store, ledger, registrar := newStakingFixture(t, map[string]uint64{
		"alice":      5_000_000_000,
		testTreasury: 10_000_000_000,
	})

	result, err := uc.Stake(context.Background(), StakeCommand{
		Owner:           "alice",
		Amount:          5_000_000_000,
		DurationSeconds: entities.Tier90Days,
	})
	if err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	if result.Stake.VotingPower != 7 {
		t.Fatalf("expected voting power 7 for 5 tokens at 1.5x, got %d", result.Stake.VotingPower)
	}
	if result.Stake.ReputationBoostPercent != 20 {
		t.Fatalf("expected 20%% boost, got %d", result.Stake.ReputationBoostPercent)
	}
	if result.Stake.Status != entities.StakeStatusLocked {
		t.Fatalf("expected locked stake, got %s", result.Stake.Status)
	}

	pool, err := store.GetPool(context.Background(), uc.PoolID)
	if err != nil {
		t.Fatalf("pool lookup failed: %v", err)
	}
	if pool.TotalStaked != 5_000_000_000 || pool.StakerCount != 1 {
		t.Fatalf("expected pool totals 5e9/1, got %d/%d", pool.TotalStaked, pool.StakerCount)
	}

	vault, _ := ledger.BalanceOf(context.Background(), testVault)
	if vault != 5_000_000_000 {
		t.Fatalf("expected principal in vault, got %d", vault)
	}
	if registrar.powers["alice"] != 7 {
		t.Fatalf("expected registrar to receive power 7, got %d", registrar.powers["alice"])
	}
}

func TestStakeRejectsSecondActiveSlot(t *testing.T) {
	uc, _, _, _ := newStakingFixture(t, map[string]uint64{"alice": 4_000_000_000})

	if _, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 1_000_000_000, DurationSeconds: entities.Tier30Days,
	}); err != nil {
		t.Fatalf("first stake failed: %v", err)
	}
	_, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 1_000_000_000, DurationSeconds: entities.Tier30Days,
	})
	if !errors.Is(err, domainerrors.ErrActiveStakeExists) {
		t.Fatalf("expected active stake conflict, got %v", err)
	}
}

func TestStakeDurationBounds(t *testing.T) {
	uc, _, _, _ := newStakingFixture(t, map[string]uint64{"alice": 1_000_000_000})

	for _, duration := range []int64{entities.Tier30Days - 1, entities.Tier365Days + 1} {
		_, err := uc.Stake(context.Background(), StakeCommand{
			Owner: "alice", Amount: 1_000_000_000, DurationSeconds: duration,
		})
		if !errors.Is(err, domainerrors.ErrInvalidStakeDuration) {
			t.Fatalf("duration %d: expected duration error, got %v", duration, err)
		}
	}
}

func TestStakeInsufficientBalanceLeavesNoTrace(t *testing.T) {
	uc, store, _, registrar := newStakingFixture(t, map[string]uint64{"alice": 100})

	_, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 1_000_000_000, DurationSeconds: entities.Tier30Days,
	})
	if !errors.Is(err, tokenledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	pool, _ := store.GetPool(context.Background(), uc.PoolID)
	if pool.TotalStaked != 0 || pool.StakerCount != 0 {
		t.Fatalf("expected pool untouched, got %d/%d", pool.TotalStaked, pool.StakerCount)
	}
	if _, found, _ := store.GetStake(context.Background(), uc.PoolID, "alice"); found {
		t.Fatalf("expected no stake row after aborted transfer")
	}
	if registrar.powers["alice"] != 0 {
		t.Fatalf("expected voting power rolled back to zero, got %d", registrar.powers["alice"])
	}
}

func TestStakeRegistrarRejectionLeavesNoTrace(t *testing.T) {
	store := memory.NewStore()
	store.SetNow(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	ledger := tokenledger.NewSeeded(map[string]uint64{"alice": 2_000_000_000})
	uc := StakeUseCase{
		Repo:      store,
		Custody:   ledger,
		Registrar: rejectingRegistrar{},
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		PoolID:    entities.PoolKey(testMint),
	}
	if _, err := uc.InitializePool(context.Background(), InitializePoolCommand{
		Authority:       "pool-admin",
		TokenMint:       testMint,
		TreasuryAccount: testTreasury,
		VaultAccount:    testVault,
	}); err != nil {
		t.Fatalf("initialize pool failed: %v", err)
	}

	_, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 2_000_000_000, DurationSeconds: entities.Tier30Days,
	})
	if err == nil {
		t.Fatalf("expected stake to fail when the registry rejects")
	}

	pool, _ := store.GetPool(context.Background(), uc.PoolID)
	if pool.TotalStaked != 0 || pool.StakerCount != 0 {
		t.Fatalf("expected pool untouched, got %d/%d", pool.TotalStaked, pool.StakerCount)
	}
	if _, found, _ := store.GetStake(context.Background(), uc.PoolID, "alice"); found {
		t.Fatalf("expected no stake row after rejected registration")
	}
	alice, _ := ledger.BalanceOf(context.Background(), "alice")
	if alice != 2_000_000_000 {
		t.Fatalf("expected owner balance untouched, got %d", alice)
	}
	vault, _ := ledger.BalanceOf(context.Background(), testVault)
	if vault != 0 {
		t.Fatalf("expected empty vault, got %d", vault)
	}
}

func TestUnstakeRegistrarRejectionLeavesStakeLocked(t *testing.T) {
	uc, store, ledger, registrar := newStakingFixture(t, map[string]uint64{
		"alice":      1_000_000_000,
		testTreasury: 1_000_000,
	})

	if _, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 1_000_000_000, DurationSeconds: entities.Tier30Days,
	}); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	store.AdvanceNow(31 * 24 * time.Hour)

	uc.Registrar = rejectingRegistrar{}
	if _, err := uc.Unstake(context.Background(), UnstakeCommand{Owner: "alice"}); err == nil {
		t.Fatalf("expected unstake to fail when the registry rejects")
	}

	stake, found, _ := store.GetStake(context.Background(), uc.PoolID, "alice")
	if !found || stake.Status != entities.StakeStatusLocked {
		t.Fatalf("expected stake still locked, found=%v status=%s", found, stake.Status)
	}
	pool, _ := store.GetPool(context.Background(), uc.PoolID)
	if pool.TotalStaked != 1_000_000_000 || pool.StakerCount != 1 {
		t.Fatalf("expected pool totals intact, got %d/%d", pool.TotalStaked, pool.StakerCount)
	}
	vault, _ := ledger.BalanceOf(context.Background(), testVault)
	if vault != 1_000_000_000 {
		t.Fatalf("expected principal still in vault, got %d", vault)
	}
	if registrar.powers["alice"] != 1 {
		t.Fatalf("expected registered power untouched, got %d", registrar.powers["alice"])
	}
}

func TestClaimRewardAdvancesBaseline(t *testing.T) {
	uc, store, _, _ := newStakingFixture(t, map[string]uint64{
		"alice":      1_000_000_000,
		testTreasury: 1_000_000,
	})

	if _, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 1_000_000_000, DurationSeconds: entities.Tier30Days,
	}); err != nil {
		t.Fatalf("stake failed: %v", err)
	}

	store.AdvanceNow(10 * 24 * time.Hour)
	first, err := uc.ClaimReward(context.Background(), ClaimRewardCommand{Owner: "alice"})
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if first.RewardPaid != 27397 {
		t.Fatalf("expected first reward 27397, got %d", first.RewardPaid)
	}

	// No time has passed since the baseline moved.
	if _, err := uc.ClaimReward(context.Background(), ClaimRewardCommand{Owner: "alice"}); !errors.Is(err, domainerrors.ErrNoRewardsYet) {
		t.Fatalf("expected no rewards yet, got %v", err)
	}

	store.AdvanceNow(20 * 24 * time.Hour)
	second, err := uc.ClaimReward(context.Background(), ClaimRewardCommand{Owner: "alice"})
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if second.RewardPaid != 54794 {
		t.Fatalf("expected second reward 54794, got %d", second.RewardPaid)
	}
	if second.TotalClaimed != 27397+54794 {
		t.Fatalf("expected total claimed %d, got %d", 27397+54794, second.TotalClaimed)
	}
}

func TestClaimUnderfundedTreasuryAborts(t *testing.T) {
	uc, store, _, _ := newStakingFixture(t, map[string]uint64{"alice": 1_000_000_000})

	if _, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 1_000_000_000, DurationSeconds: entities.Tier30Days,
	}); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	before, _, _ := store.GetStake(context.Background(), uc.PoolID, "alice")

	store.AdvanceNow(10 * 24 * time.Hour)
	_, err := uc.ClaimReward(context.Background(), ClaimRewardCommand{Owner: "alice"})
	if !errors.Is(err, tokenledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	after, _, _ := store.GetStake(context.Background(), uc.PoolID, "alice")
	if after.ClaimedReward != before.ClaimedReward || after.LastClaimTimestamp != before.LastClaimTimestamp {
		t.Fatalf("expected stake untouched after aborted claim")
	}
}

func TestUnstakeSettlesOnceAndLatches(t *testing.T) {
	uc, store, ledger, registrar := newStakingFixture(t, map[string]uint64{
		"alice":      1_000_000_000,
		testTreasury: 1_000_000,
	})

	if _, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 1_000_000_000, DurationSeconds: entities.Tier30Days,
	}); err != nil {
		t.Fatalf("stake failed: %v", err)
	}

	// Locked until the end timestamp.
	store.AdvanceNow(29 * 24 * time.Hour)
	if _, err := uc.Unstake(context.Background(), UnstakeCommand{Owner: "alice"}); !errors.Is(err, domainerrors.ErrStakeLockNotExpired) {
		t.Fatalf("expected lock not expired, got %v", err)
	}

	store.AdvanceNow(24 * time.Hour)
	result, err := uc.Unstake(context.Background(), UnstakeCommand{Owner: "alice"})
	if err != nil {
		t.Fatalf("unstake failed: %v", err)
	}
	if result.PrincipalPaid != 1_000_000_000 {
		t.Fatalf("expected principal 1e9, got %d", result.PrincipalPaid)
	}
	if result.FinalRewardPaid != 82191 {
		t.Fatalf("expected final reward 82191, got %d", result.FinalRewardPaid)
	}

	balance, _ := ledger.BalanceOf(context.Background(), "alice")
	if balance != 1_000_000_000+82191 {
		t.Fatalf("expected principal plus reward back, got %d", balance)
	}
	if registrar.powers["alice"] != 0 {
		t.Fatalf("expected power re-registered to zero, got %d", registrar.powers["alice"])
	}

	pool, _ := store.GetPool(context.Background(), uc.PoolID)
	if pool.TotalStaked != 0 || pool.StakerCount != 0 {
		t.Fatalf("expected pool drained, got %d/%d", pool.TotalStaked, pool.StakerCount)
	}

	// The slot is terminal for claims and repeat unstakes.
	if _, err := uc.ClaimReward(context.Background(), ClaimRewardCommand{Owner: "alice"}); !errors.Is(err, domainerrors.ErrStakeAlreadyWithdrawn) {
		t.Fatalf("expected withdrawn error on claim, got %v", err)
	}
	if _, err := uc.Unstake(context.Background(), UnstakeCommand{Owner: "alice"}); !errors.Is(err, domainerrors.ErrStakeAlreadyWithdrawn) {
		t.Fatalf("expected withdrawn error on unstake, got %v", err)
	}

	// A withdrawn slot may be reused for a fresh stake.
	if _, err := uc.Stake(context.Background(), StakeCommand{
		Owner: "alice", Amount: 500_000_000, DurationSeconds: entities.Tier30Days,
	}); err != nil {
		t.Fatalf("restake after withdrawal failed: %v", err)
	}
}

func TestUpdateRewardParamsIsAuthorityGated(t *testing.T) {
	uc, _, _, _ := newStakingFixture(t, nil)

	_, err := uc.UpdateRewardParams(context.Background(), UpdateRewardParamsCommand{
		Authority:               "mallory",
		RewardRateBpsPerDay:     20,
		MinStakeDurationSeconds: entities.Tier30Days,
		MaxStakeDurationSeconds: entities.Tier365Days,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	pool, err := uc.UpdateRewardParams(context.Background(), UpdateRewardParamsCommand{
		Authority:               "pool-admin",
		RewardRateBpsPerDay:     20,
		MinStakeDurationSeconds: 7 * entities.Day,
		MaxStakeDurationSeconds: entities.Tier365Days,
	})
	if err != nil {
		t.Fatalf("authorized update failed: %v", err)
	}
	if pool.RewardRateBpsPerDay != 20 || pool.MinStakeDurationSeconds != 7*entities.Day {
		t.Fatalf("expected updated params, got rate=%d min=%d", pool.RewardRateBpsPerDay, pool.MinStakeDurationSeconds)
	}
}
