package errors

import "errors"

var (
	ErrInvalidStakeInput     = errors.New("invalid stake input")
	ErrInvalidStakeDuration  = errors.New("stake duration outside pool bounds")
	ErrInvalidRewardParams   = errors.New("invalid reward parameters")
	ErrPoolNotFound          = errors.New("staking pool not found")
	ErrPoolAlreadyExists     = errors.New("staking pool already initialized")
	ErrStakeNotFound         = errors.New("user stake not found")
	ErrActiveStakeExists     = errors.New("active stake already exists for owner")
	ErrStakeLockNotExpired   = errors.New("stake lock period has not expired")
	ErrStakeAlreadyWithdrawn = errors.New("stake has already been withdrawn")
	ErrNoRewardsYet          = errors.New("no rewards accrued yet")
	ErrUnauthorized          = errors.New("caller is not the pool authority")
	ErrArithmeticOverflow    = errors.New("staking ledger arithmetic overflow")
	ErrArithmeticUnderflow   = errors.New("staking ledger arithmetic underflow")
)
