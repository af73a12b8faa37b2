package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InitializeRegistryRequest struct {
	Authority string `json:"authority"`
}

type RegisterPowerRequest struct {
	Source      string `json:"source"`
	VotingPower uint64 `json:"voting_power"`
}

type RegisterPowerResponse struct {
	Voter            VoterPowerResponse `json:"voter"`
	OldVotingPower   uint64             `json:"old_voting_power"`
	TotalVotingPower uint64             `json:"total_voting_power"`
}

type VoterPowerResponse struct {
	GovernanceID string `json:"governance_id"`
	Voter        string `json:"voter"`
	VotingPower  uint64 `json:"voting_power"`
	UpdatedAt    int64  `json:"updated_at"`
}

type RegistryResponse struct {
	GovernanceID     string `json:"governance_id"`
	Authority        string `json:"authority"`
	TotalVotingPower uint64 `json:"total_voting_power"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
}

type VoterPowerListResponse struct {
	Items []VoterPowerResponse `json:"items"`
}
