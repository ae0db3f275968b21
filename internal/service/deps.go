package service

import (
	"context"
	"time"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// Collaborator interfaces. Repositories satisfy the store interfaces; the
// ledger and executor are external systems injected at startup so tests can
// substitute fakes without global state.

// Clock supplies the current time. Injectable for testing time-gated
// transitions.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by time.Now.
func NewRealClock() Clock { return realClock{} }

// ShareLedger is the read-only view of the NFT share ledger. Both queries are
// live reads and must be safe for concurrent use.
type ShareLedger interface {
	SharesHeldBy(ctx context.Context, holderID, scope string) (int64, error)
	TotalSharesOutstanding(ctx context.Context, scope string) (int64, error)
}

// Executor submits one proposal action to the external execution system.
// A returned error marks the action failed; dispatch continues with the next
// action either way.
type Executor interface {
	Submit(ctx context.Context, action model.ProposalAction) (detail string, err error)
}

// ProposalStore owns proposal records and their lifecycle fields.
type ProposalStore interface {
	Create(ctx context.Context, p *model.Proposal) error
	FindByID(ctx context.Context, id string) (*model.Proposal, error)
	List(ctx context.Context, f model.ProposalFilter) ([]model.Proposal, error)
	ListPendingDue(ctx context.Context, now time.Time) ([]model.Proposal, error)
	ListActiveDue(ctx context.Context, now time.Time) ([]model.Proposal, error)
	TransitionStatus(ctx context.Context, id string, from, to model.ProposalStatus, endedAt *time.Time) (bool, error)
	ClaimExecution(ctx context.Context, id string, executedAt time.Time) (bool, error)
	SaveExecutionResults(ctx context.Context, id string, results []model.ActionResult) error
}

// VoteStore owns individual vote records and applies their weight to the
// proposal aggregate.
type VoteStore interface {
	Cast(ctx context.Context, v *model.Vote) error
	ListByProposal(ctx context.Context, proposalID string) ([]model.Vote, error)
	ReconcileTally(ctx context.Context, proposalID string) error
}

// HolderStore looks up holder accounts for role checks.
type HolderStore interface {
	FindByHolderID(ctx context.Context, holderID string) (*model.Holder, error)
}
