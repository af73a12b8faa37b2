package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InitializePoolRequest struct {
	Authority       string `json:"authority"`
	TokenMint       string `json:"token_mint"`
	TreasuryAccount string `json:"treasury_account"`
	VaultAccount    string `json:"vault_account"`
}

type StakeRequest struct {
	Amount          uint64 `json:"amount"`
	DurationSeconds int64  `json:"duration_seconds"`
}

type StakeResponse struct {
	PoolID                 string `json:"pool_id"`
	Owner                  string `json:"owner"`
	StakeAmount            uint64 `json:"stake_amount"`
	StartTimestamp         int64  `json:"start_timestamp"`
	EndTimestamp           int64  `json:"end_timestamp"`
	ClaimedReward          uint64 `json:"claimed_reward"`
	LastClaimTimestamp     int64  `json:"last_claim_timestamp"`
	ReputationBoostPercent uint64 `json:"reputation_boost_percent"`
	VotingPower            uint64 `json:"voting_power"`
	Status                 string `json:"status"`
}

type ClaimRewardResponse struct {
	Stake        StakeResponse `json:"stake"`
	RewardPaid   uint64        `json:"reward_paid"`
	TotalClaimed uint64        `json:"total_claimed"`
}

type UnstakeResponse struct {
	Stake           StakeResponse `json:"stake"`
	PrincipalPaid   uint64        `json:"principal_paid"`
	FinalRewardPaid uint64        `json:"final_reward_paid"`
}

type UpdateRewardParamsRequest struct {
	RewardRateBpsPerDay     uint64 `json:"reward_rate_bps_per_day"`
	MinStakeDurationSeconds int64  `json:"min_stake_duration_seconds"`
	MaxStakeDurationSeconds int64  `json:"max_stake_duration_seconds"`
}

type PoolResponse struct {
	PoolID                  string `json:"pool_id"`
	Authority               string `json:"authority"`
	TokenMint               string `json:"token_mint"`
	TreasuryAccount         string `json:"treasury_account"`
	VaultAccount            string `json:"vault_account"`
	TotalStaked             uint64 `json:"total_staked"`
	StakerCount             uint64 `json:"staker_count"`
	RewardRateBpsPerDay     uint64 `json:"reward_rate_bps_per_day"`
	MinStakeDurationSeconds int64  `json:"min_stake_duration_seconds"`
	MaxStakeDurationSeconds int64  `json:"max_stake_duration_seconds"`
}

type StakeListResponse struct {
	Items []StakeResponse `json:"items"`
}
