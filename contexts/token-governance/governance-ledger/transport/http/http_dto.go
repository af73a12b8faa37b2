package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type InitializeGovernanceRequest struct {
	Authority             string `json:"authority"`
	TokenMint             string `json:"token_mint"`
	Treasury              string `json:"treasury"`
	MinProposalTokens     uint64 `json:"min_proposal_tokens"`
	VotingPeriodSeconds   int64  `json:"voting_period_seconds"`
	ExecutionDelaySeconds int64  `json:"execution_delay_seconds"`
	QuorumPercentage      uint64 `json:"quorum_percentage"`
}

type UpdateGovernanceRequest struct {
	MinProposalTokens     *uint64 `json:"min_proposal_tokens,omitempty"`
	VotingPeriodSeconds   *int64  `json:"voting_period_seconds,omitempty"`
	ExecutionDelaySeconds *int64  `json:"execution_delay_seconds,omitempty"`
	QuorumPercentage      *uint64 `json:"quorum_percentage,omitempty"`
}

type GovernanceResponse struct {
	GovernanceID          string `json:"governance_id"`
	Authority             string `json:"authority"`
	TokenMint             string `json:"token_mint"`
	Treasury              string `json:"treasury"`
	MinProposalTokens     uint64 `json:"min_proposal_tokens"`
	VotingPeriodSeconds   int64  `json:"voting_period_seconds"`
	ExecutionDelaySeconds int64  `json:"execution_delay_seconds"`
	QuorumPercentage      uint64 `json:"quorum_percentage"`
	ProposalCount         uint64 `json:"proposal_count"`
}

type CreateProposalRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ProposalType     string `json:"proposal_type"`
	ExecutionPayload []byte `json:"execution_payload,omitempty"`
}

type ProposalResponse struct {
	GovernanceID string `json:"governance_id"`
	ProposalID   uint64 `json:"proposal_id"`
	Proposer     string `json:"proposer"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ProposalType string `json:"proposal_type"`
	CreatedAt    int64  `json:"created_at"`
	VotingEndsAt int64  `json:"voting_ends_at"`
	YesVotes     uint64 `json:"yes_votes"`
	NoVotes      uint64 `json:"no_votes"`
	Status       string `json:"status"`
	Phase        string `json:"phase,omitempty"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
}

type CastVoteRequest struct {
	Choice string `json:"choice"`
}

type CastVoteResponse struct {
	Proposal ProposalResponse `json:"proposal"`
	Vote     VoteResponse     `json:"vote"`
	Revote   bool             `json:"revote"`
}

type VoteResponse struct {
	ProposalID        uint64 `json:"proposal_id"`
	Voter             string `json:"voter"`
	Choice            string `json:"choice"`
	VotingPowerAtCast uint64 `json:"voting_power_at_cast"`
	CastAt            int64  `json:"cast_at"`
}

type VoteListResponse struct {
	Items []VoteResponse `json:"items"`
}

type ExecuteProposalResponse struct {
	Proposal        ProposalResponse `json:"proposal"`
	QuorumThreshold uint64           `json:"quorum_threshold"`
	TotalVotes      uint64           `json:"total_votes"`
}

type TallyResponse struct {
	ProposalID       uint64 `json:"proposal_id"`
	YesVotes         uint64 `json:"yes_votes"`
	NoVotes          uint64 `json:"no_votes"`
	TotalVotes       uint64 `json:"total_votes"`
	TotalVotingPower uint64 `json:"total_voting_power"`
	QuorumThreshold  uint64 `json:"quorum_threshold"`
	QuorumReached    bool   `json:"quorum_reached"`
	MajorityReached  bool   `json:"majority_reached"`
}
