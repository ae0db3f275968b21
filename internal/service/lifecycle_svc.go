package service

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// LifecycleService advances proposals across time-gated states. All
// transitions are conditional on the source status, so concurrent sweeps
// (timer-driven and opportunistic checks from vote casts) are idempotent:
// a double run can never double-transition or overwrite a newer state.
type LifecycleService struct {
	proposals   ProposalStore
	ledger      ShareLedger
	cache       *CacheService
	clock       Clock
	transitions *prometheus.CounterVec // by target status; may be nil
}

func NewLifecycleService(proposals ProposalStore, ledger ShareLedger,
	cache *CacheService, clock Clock, transitions *prometheus.CounterVec) *LifecycleService {
	return &LifecycleService{
		proposals:   proposals,
		ledger:      ledger,
		cache:       cache,
		clock:       clock,
		transitions: transitions,
	}
}

// Sweep runs one pass: pending proposals whose start time has passed become
// active, and active proposals whose window elapsed get their terminal status
// from the evaluator. A failure on one proposal is logged and does not abort
// the sweep for the others.
func (s *LifecycleService) Sweep(ctx context.Context) (activated, closed int, err error) {
	now := s.clock.Now()

	pending, err := s.proposals.ListPendingDue(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	for i := range pending {
		p := &pending[i]
		ok, err := s.proposals.TransitionStatus(ctx, p.ID, model.StatusPending, model.StatusActive, nil)
		if err != nil {
			log.Printf("lifecycle: activate error for %s: %v", p.ID, err)
			continue
		}
		if ok {
			activated++
			s.countTransition(model.StatusActive)
			s.invalidate(ctx, p.ID)
		}
	}

	due, err := s.proposals.ListActiveDue(ctx, now)
	if err != nil {
		return activated, 0, err
	}
	for i := range due {
		p := &due[i]
		ok, err := s.close(ctx, p)
		if err != nil {
			log.Printf("lifecycle: close error for %s: %v", p.ID, err)
			continue
		}
		if ok {
			closed++
		}
	}

	return activated, closed, nil
}

// CheckProposal advances a single proposal if its window boundaries have
// passed. Called opportunistically after vote casts to defend against
// scheduler lag.
func (s *LifecycleService) CheckProposal(ctx context.Context, proposalID string) error {
	p, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	switch p.Status {
	case model.StatusPending:
		if !now.Before(p.StartTime) {
			ok, err := s.proposals.TransitionStatus(ctx, p.ID, model.StatusPending, model.StatusActive, nil)
			if err != nil {
				return err
			}
			if ok {
				s.countTransition(model.StatusActive)
			}
			s.invalidate(ctx, p.ID)
		}
	case model.StatusActive:
		if now.After(p.EndTime) {
			if _, err := s.close(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// close evaluates an active proposal whose window elapsed and writes the
// terminal status. Zero participation closes as expired rather than defeated,
// purely for the audit narrative; both are losing terminal states.
func (s *LifecycleService) close(ctx context.Context, p *model.Proposal) (bool, error) {
	total, err := s.ledger.TotalSharesOutstanding(ctx, p.Scope)
	if err != nil {
		return false, err
	}

	out := Evaluate(TallyOf(p), total, Thresholds{
		Quorum:   p.QuorumThreshold,
		Approval: p.ApprovalThreshold,
	})

	target := out.Status
	if p.TotalVotes == 0 {
		target = model.StatusExpired
	}

	endedAt := s.clock.Now()
	ok, err := s.proposals.TransitionStatus(ctx, p.ID, model.StatusActive, target, &endedAt)
	if err != nil {
		return false, err
	}
	if ok {
		s.countTransition(target)
		s.invalidate(ctx, p.ID)
	}
	return ok, nil
}

func (s *LifecycleService) countTransition(to model.ProposalStatus) {
	if s.transitions == nil {
		return
	}
	s.transitions.WithLabelValues(string(to)).Inc()
}

func (s *LifecycleService) invalidate(ctx context.Context, proposalID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProposal(ctx, proposalID); err != nil {
		log.Printf("lifecycle: cache invalidate error for %s: %v", proposalID, err)
	}
}
