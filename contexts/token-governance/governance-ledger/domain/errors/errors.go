package errors

import "errors"

// Validation errors reject the call before any mutation.
var (
	ErrInvalidGovernanceInput  = errors.New("governance configuration input is invalid")
	ErrInvalidQuorumPercentage = errors.New("quorum percentage must be between 1 and 100")
	ErrInvalidVotingPeriod     = errors.New("voting period must be positive")
	ErrInvalidExecutionDelay   = errors.New("execution delay must not be negative")
	ErrInvalidProposalInput    = errors.New("proposal input is invalid")
	ErrInvalidProposalType     = errors.New("proposal type is not recognized")
	ErrInvalidVoteChoice       = errors.New("vote choice is not recognized")
)

// Existence errors.
var (
	ErrGovernanceNotFound      = errors.New("governance configuration not found")
	ErrGovernanceAlreadyExists = errors.New("governance configuration already exists")
	ErrProposalNotFound        = errors.New("proposal not found")
)

// State-precondition errors reflect the proposal state machine rejecting an
// out-of-order call.
var (
	ErrInsufficientTokens      = errors.New("proposer balance is below the minimum proposal tokens")
	ErrVotingClosed            = errors.New("voting period has ended")
	ErrVotingStillOpen         = errors.New("voting period has not ended")
	ErrProposalAlreadyExecuted = errors.New("proposal has already been executed")
	ErrProposalCancelled       = errors.New("proposal has been cancelled")
	ErrExecutionDelayNotPassed = errors.New("execution delay has not passed")
	ErrQuorumNotReached        = errors.New("proposal did not reach quorum")
	ErrProposalNotPassed       = errors.New("proposal did not pass the majority check")
	ErrNoVotingPower           = errors.New("voter has no registered voting power")
)

// Authorization errors are fatal to the call and never downgraded.
var (
	ErrUnauthorized             = errors.New("actor is not the governance authority")
	ErrUnauthorizedCancellation = errors.New("actor may not cancel this proposal")
)

// Arithmetic invariant violations abort the whole operation. A tally that
// would underflow means prior state is corrupted, so the error is terminal
// rather than retryable.
var (
	ErrArithmeticOverflow  = errors.New("arithmetic overflow in governance bookkeeping")
	ErrArithmeticUnderflow = errors.New("arithmetic underflow in governance bookkeeping")
)
