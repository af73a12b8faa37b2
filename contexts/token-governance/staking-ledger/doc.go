// Package stakingledger implements the staking side of the token-governance
// context.
//
// The module owns stake lifecycle accounting (stake/claim/unstake), duration
// tiering for reputation boost and voting-power derivation, and pro-rated
// reward accrual in fixed-width integer arithmetic. It pushes derived voting
// power to the voting-power registry and keeps infrastructure concerns behind
// ports and adapters.
package stakingledger
