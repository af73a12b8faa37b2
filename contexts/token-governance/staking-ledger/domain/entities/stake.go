package entities

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	domainerrors "wct/contexts/token-governance/staking-ledger/domain/errors"
)

type StakeStatus string

const (
	StakeStatusLocked    StakeStatus = "locked"
	StakeStatusWithdrawn StakeStatus = "withdrawn"
)

const (
	Day = int64(24 * 60 * 60)

	// Duration tier breakpoints. A stake qualifies for the highest tier whose
	// lower bound it reaches.
	Tier30Days  = 30 * Day
	Tier90Days  = 90 * Day
	Tier180Days = 180 * Day
	Tier365Days = 365 * Day

	// TokenDecimalsDivisor normalizes raw token amounts (9 decimals) to whole
	// tokens before the voting-power multiplier is applied.
	TokenDecimalsDivisor = uint64(1_000_000_000)

	// Reward accrual denominator: seconds per year times the basis-point scale.
	rewardDenominator = uint64(365 * 24 * 60 * 60 * 10_000)
)

// StakingPool is the singleton per-token configuration and running totals.
type StakingPool struct {
	PoolID                  string
	Authority               string
	TokenMint               string
	TreasuryAccount         string
	VaultAccount            string
	TotalStaked             uint64
	StakerCount             uint64
	RewardRateBpsPerDay     uint64
	MinStakeDurationSeconds int64
	MaxStakeDurationSeconds int64
	CreatedAt               int64
	UpdatedAt               int64
}

// UserStake is the per-(pool, owner) stake slot. Once withdrawn the record is
// kept as a historical entry and every mutating operation rejects it.
type UserStake struct {
	PoolID                 string
	Owner                  string
	StakeAmount            uint64
	StartTimestamp         int64
	EndTimestamp           int64
	ClaimedReward          uint64
	LastClaimTimestamp     int64
	ReputationBoostPercent uint64
	VotingPower            uint64
	Status                 StakeStatus
}

func (s UserStake) Withdrawn() bool {
	return s.Status == StakeStatusWithdrawn
}

// PoolKey derives the deterministic record key for a token mint, so any
// caller can recompute the pool address without a directory lookup.
func PoolKey(tokenMint string) string {
	return "staking_pool:" + tokenMint
}

// StakeKey derives the deterministic record key for a (pool, owner) slot.
func StakeKey(poolID string, owner string) string {
	return fmt.Sprintf("user_stake:%s:%s", poolID, owner)
}

// durationTier captures one row of the duration ladder: the reputation boost
// and the voting-power multiplier expressed as an exact rational, so the
// 1.5x tier never rounds through floating point.
type durationTier struct {
	minDuration  int64
	boostPercent uint64
	mulNum       uint64
	mulDen       uint64
}

var durationTiers = []durationTier{
	{minDuration: Tier365Days, boostPercent: 50, mulNum: 3, mulDen: 1},
	{minDuration: Tier180Days, boostPercent: 30, mulNum: 2, mulDen: 1},
	{minDuration: Tier90Days, boostPercent: 20, mulNum: 3, mulDen: 2},
	{minDuration: Tier30Days, boostPercent: 10, mulNum: 1, mulDen: 1},
}

func tierFor(duration int64) durationTier {
	for _, tier := range durationTiers {
		if duration >= tier.minDuration {
			return tier
		}
	}
	return durationTiers[len(durationTiers)-1]
}

// ReputationBoostPercent returns the duration-tiered boost. Highest
// applicable tier wins; anything below 90 days gets the base 10%.
func ReputationBoostPercent(duration int64) uint64 {
	return tierFor(duration).boostPercent
}

// VotingPowerForStake derives governance voting power from amount and lock
// duration: amount * num / (decimalsDivisor * den), truncated. The
// intermediate product is taken in 256-bit space so no u64 amount can
// overflow before the division.
func VotingPowerForStake(amount uint64, duration int64) (uint64, error) {
	tier := tierFor(duration)

	product := new(uint256.Int).Mul(
		uint256.NewInt(amount),
		uint256.NewInt(tier.mulNum),
	)
	divisor := new(uint256.Int).Mul(
		uint256.NewInt(TokenDecimalsDivisor),
		uint256.NewInt(tier.mulDen),
	)
	power, overflow := new(uint256.Int).Div(product, divisor).Uint64WithOverflow()
	if overflow {
		return 0, domainerrors.ErrArithmeticOverflow
	}
	return power, nil
}

// AccruedReward computes floor(stakeAmount * rateBpsPerDay * elapsedSeconds /
// (365*86400*10000)). The three-way product needs up to 192 bits, so it is
// carried in 256-bit space and only the final quotient narrows to u64.
// Truncation is deliberate: the fractional remainder stays claimable because
// the next claim accrues from the updated lastClaimTimestamp baseline.
func AccruedReward(stakeAmount uint64, rateBpsPerDay uint64, elapsedSeconds int64) (uint64, error) {
	if elapsedSeconds <= 0 {
		return 0, nil
	}

	numerator := new(uint256.Int).Mul(
		uint256.NewInt(stakeAmount),
		uint256.NewInt(rateBpsPerDay),
	)
	numerator.Mul(numerator, uint256.NewInt(uint64(elapsedSeconds)))

	reward, overflow := numerator.Div(numerator, uint256.NewInt(rewardDenominator)).Uint64WithOverflow()
	if overflow {
		return 0, domainerrors.ErrArithmeticOverflow
	}
	return reward, nil
}

// CheckedAdd fails the whole operation on u64 overflow instead of wrapping;
// wrapped totals would silently corrupt the pool ledger.
func CheckedAdd(a uint64, b uint64) (uint64, error) {
	if b > math.MaxUint64-a {
		return 0, domainerrors.ErrArithmeticOverflow
	}
	return a + b, nil
}

// CheckedSub fails on underflow; an underflowing subtraction means the
// ledger's running totals no longer cover the recorded stakes.
func CheckedSub(a uint64, b uint64) (uint64, error) {
	if b > a {
		return 0, domainerrors.ErrArithmeticUnderflow
	}
	return a - b, nil
}
