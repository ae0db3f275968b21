package service

import "github.com/finsterfurz/coinestate-governance-go/internal/model"

// Tally is a snapshot of a proposal's weighted vote sums.
type Tally struct {
	For     int64
	Against int64
	Abstain int64
}

// Total returns the summed participation weight.
func (t Tally) Total() int64 {
	return t.For + t.Against + t.Abstain
}

// Thresholds are a proposal's configured quorum and approval fractions (0-1).
type Thresholds struct {
	Quorum   float64
	Approval float64
}

// Outcome is the evaluator's verdict for a tally snapshot.
type Outcome struct {
	ParticipationRate float64
	QuorumMet         bool
	ApprovalRate      float64
	ApprovalMet       bool
	Status            model.ProposalStatus // succeeded or defeated
}

// Evaluate computes the resolution for a tally against the scope's total
// eligible voting power. It is a pure function: identical inputs always yield
// the identical verdict.
//
//	participationRate = total / totalEligible   (totalEligible == 0 -> defeated)
//	approvalRate      = for / (for + against)   (abstain excluded)
//
// Both threshold comparisons are inclusive: hitting the threshold exactly
// counts as met.
func Evaluate(t Tally, totalEligible int64, th Thresholds) Outcome {
	out := Outcome{Status: model.StatusDefeated}
	if totalEligible <= 0 {
		// Quorum can never be met against an empty scope.
		return out
	}

	out.ParticipationRate = float64(t.Total()) / float64(totalEligible)
	out.QuorumMet = out.ParticipationRate >= th.Quorum

	decisive := t.For + t.Against
	if decisive > 0 {
		out.ApprovalRate = float64(t.For) / float64(decisive)
	}
	out.ApprovalMet = out.ApprovalRate >= th.Approval

	if out.QuorumMet && out.ApprovalMet {
		out.Status = model.StatusSucceeded
	}
	return out
}

// TallyOf extracts the cached tally snapshot from a proposal.
func TallyOf(p *model.Proposal) Tally {
	return Tally{For: p.VotesFor, Against: p.VotesAgainst, Abstain: p.VotesAbstain}
}

// DetailFor builds the response-level tally detail for a proposal given the
// scope's total eligible power.
func DetailFor(p *model.Proposal, totalEligible int64) model.TallyDetail {
	out := Evaluate(TallyOf(p), totalEligible, Thresholds{
		Quorum:   p.QuorumThreshold,
		Approval: p.ApprovalThreshold,
	})
	return model.TallyDetail{
		TotalEligible:     totalEligible,
		ParticipationRate: out.ParticipationRate,
		QuorumMet:         out.QuorumMet,
		ApprovalRate:      out.ApprovalRate,
		ApprovalMet:       out.ApprovalMet,
	}
}
