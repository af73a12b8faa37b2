// Package governanceledger implements the proposal side of the
// token-governance context.
//
// The module owns the proposal lifecycle state machine: creation gated on
// token balance, vote casting with revote-by-overwrite tally deltas,
// quorum/majority evaluation, one-way execution and cancellation latches.
// Voting power comes from the voting-power registry through a read-only
// port; the effect of a passed proposal is dispatched through an executor
// port the ledger gates but does not implement.
package governanceledger
