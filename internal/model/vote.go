package model

import "time"

// VoteSupport is the direction of a vote.
type VoteSupport string

const (
	SupportFor     VoteSupport = "for"
	SupportAgainst VoteSupport = "against"
	SupportAbstain VoteSupport = "abstain"
)

// ValidSupports are the accepted support values.
var ValidSupports = map[VoteSupport]bool{
	SupportFor:     true,
	SupportAgainst: true,
	SupportAbstain: true,
}

// Vote represents an individual immutable vote record. VotingPower is the
// weight snapshotted at cast time; it is never re-derived afterwards.
type Vote struct {
	ProposalID  string      `json:"proposalId"`
	VoterID     string      `json:"voterId"`
	Support     VoteSupport `json:"support"`
	VotingPower int64       `json:"votingPower"`
	Reason      string      `json:"reason,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	IPHash      string      `json:"-"`
}

// VoteRequest is the API request body for casting a vote.
type VoteRequest struct {
	ProposalID string `json:"proposalId"`
	VoterID    string `json:"voterId"`
	Support    string `json:"support"`
	Reason     string `json:"reason,omitempty"`
}

// VoteResponse is the API response after casting a vote.
type VoteResponse struct {
	Success    bool           `json:"success"`
	Vote       Vote           `json:"vote"`
	TallyAfter TallyDetail    `json:"tally"`
	NewStatus  ProposalStatus `json:"status"`
}
