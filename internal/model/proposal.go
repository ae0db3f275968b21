package model

import "time"

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	StatusPending   ProposalStatus = "pending"
	StatusActive    ProposalStatus = "active"
	StatusSucceeded ProposalStatus = "succeeded"
	StatusDefeated  ProposalStatus = "defeated"
	StatusExecuted  ProposalStatus = "executed"
	StatusExpired   ProposalStatus = "expired"
)

// ScopeGlobal is the scope value for proposals spanning all properties.
// Any other scope value is a property ID.
const ScopeGlobal = "global"

// Closed reports whether voting is over for this status. A succeeded
// proposal is closed but still admits the execute transition.
func (s ProposalStatus) Closed() bool {
	switch s {
	case StatusSucceeded, StatusDefeated, StatusExecuted, StatusExpired:
		return true
	}
	return false
}

// ProposalAction is one encoded action to run if the proposal passes.
// The engine treats it as opaque beyond target/signature/value.
type ProposalAction struct {
	Target    string `json:"target"`
	Signature string `json:"signature"`
	Value     string `json:"value,omitempty"`
	CallData  string `json:"callData,omitempty"`
}

// ActionResult records the outcome of submitting one action to the executor.
type ActionResult struct {
	Index   int    `json:"index"`
	Target  string `json:"target"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

// Proposal represents a governance proposal with its cached vote aggregates.
// The aggregate fields are maintained by atomic increments in the vote ledger
// and self-healed by the reconcile worker; readers trust them as-is.
type Proposal struct {
	ID                string           `json:"id"`
	Scope             string           `json:"scope"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	ProposerID        string           `json:"proposerId"`
	QuorumThreshold   float64          `json:"quorumThreshold"`
	ApprovalThreshold float64          `json:"approvalThreshold"`
	StartTime         time.Time        `json:"startTime"`
	EndTime           time.Time        `json:"endTime"`
	Status            ProposalStatus   `json:"status"`
	VotesFor          int64            `json:"votesFor"`
	VotesAgainst      int64            `json:"votesAgainst"`
	VotesAbstain      int64            `json:"votesAbstain"`
	TotalVotes        int64            `json:"totalVotes"`
	Actions           []ProposalAction `json:"actions,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	EndedAt           *time.Time       `json:"endedAt,omitempty"`
	ExecutedAt        *time.Time       `json:"executedAt,omitempty"`
	ExecutionResults  []ActionResult   `json:"executionResults,omitempty"`
}

// CreateProposalRequest is the API request body for creating a proposal.
// Thresholds and window fields fall back to configured defaults when zero.
type CreateProposalRequest struct {
	Scope             string           `json:"scope"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Actions           []ProposalAction `json:"actions,omitempty"`
	QuorumThreshold   float64          `json:"quorumThreshold,omitempty"`
	ApprovalThreshold float64          `json:"approvalThreshold,omitempty"`
	VotingDelaySec    int64            `json:"votingDelaySec,omitempty"`
	VotingPeriodSec   int64            `json:"votingPeriodSec,omitempty"`
	ProposerID        string           `json:"proposerId"`
}

// ProposalFilter narrows List queries. Zero values mean "no filter".
type ProposalFilter struct {
	Status     ProposalStatus
	Scope      string
	ProposerID string
	Limit      int
	Offset     int
}

// TallyDetail is the evaluator's view of a proposal attached to read responses.
type TallyDetail struct {
	TotalEligible     int64   `json:"totalEligible"`
	ParticipationRate float64 `json:"participationRate"`
	QuorumMet         bool    `json:"quorumMet"`
	ApprovalRate      float64 `json:"approvalRate"`
	ApprovalMet       bool    `json:"approvalMet"`
}

// ProposalResponse is the API response for proposal lookups.
type ProposalResponse struct {
	Proposal
	Tally TallyDetail `json:"tally"`
}

// ExecutionResponse is the API response after executing a proposal.
type ExecutionResponse struct {
	ProposalID string         `json:"proposalId"`
	Status     ProposalStatus `json:"status"`
	ExecutedAt time.Time      `json:"executedAt"`
	Results    []ActionResult `json:"results"`
}
