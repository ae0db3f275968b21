package service

import (
	"context"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// PowerService derives a holder's voting power from the share ledger.
// Power is a live read of current holdings; an individual Vote freezes the
// value at cast time. Side-effect free and safe for concurrent callers.
type PowerService struct {
	ledger ShareLedger
}

func NewPowerService(ledger ShareLedger) *PowerService {
	return &PowerService{ledger: ledger}
}

// Resolve returns the holder's voting power snapshot for the scope. Zero
// power is a legitimate result; the caller decides whether to reject it.
func (s *PowerService) Resolve(ctx context.Context, holderID, scope string) (*model.VotingPowerSnapshot, error) {
	direct, err := s.ledger.SharesHeldBy(ctx, holderID, scope)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.ledger.TotalSharesOutstanding(ctx, scope)
	if err != nil {
		return nil, err
	}

	snap := &model.VotingPowerSnapshot{
		HolderID:    holderID,
		Scope:       scope,
		DirectPower: direct,
		// Delegation is not implemented; delegated power stays zero.
		DelegatedPower: 0,
	}
	snap.TotalPower = snap.DirectPower + snap.DelegatedPower
	if outstanding > 0 {
		snap.OwnershipPercentage = float64(snap.TotalPower) / float64(outstanding) * 100
	}
	return snap, nil
}
