package service

import (
	"context"
	"fmt"
	"log"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

type VoteService struct {
	proposals ProposalStore
	votes     VoteStore
	power     *PowerService
	ledger    ShareLedger
	cache     *CacheService
	lifecycle *LifecycleService
	clock     Clock
}

func NewVoteService(proposals ProposalStore, votes VoteStore, power *PowerService,
	ledger ShareLedger, cache *CacheService, lifecycle *LifecycleService, clock Clock) *VoteService {
	return &VoteService{
		proposals: proposals,
		votes:     votes,
		power:     power,
		ledger:    ledger,
		cache:     cache,
		lifecycle: lifecycle,
		clock:     clock,
	}
}

// Cast processes a vote. The voting window is inclusive on both ends: a vote
// at exactly endTime is accepted, one tick later is rejected. The vote insert
// and the aggregate increment are applied atomically by the vote store; any
// failure leaves no partial state.
func (s *VoteService) Cast(ctx context.Context, req model.VoteRequest, ipHash string) (*model.VoteResponse, error) {
	support := model.VoteSupport(req.Support)
	if !model.ValidSupports[support] {
		return nil, fmt.Errorf("%w: support must be one of for, against, abstain", model.ErrValidation)
	}

	p, err := s.proposals.FindByID(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if now.Before(p.StartTime) {
		return nil, model.ErrVotingNotStarted
	}
	if now.After(p.EndTime) {
		return nil, model.ErrVotingClosed
	}

	// A pending proposal whose start has passed means the sweep is lagging;
	// activate it in place with the same conditional transition the sweep
	// uses.
	if p.Status == model.StatusPending {
		ok, err := s.proposals.TransitionStatus(ctx, p.ID, model.StatusPending, model.StatusActive, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			p.Status = model.StatusActive
		} else {
			// Someone else transitioned it; re-read for the current state.
			p, err = s.proposals.FindByID(ctx, req.ProposalID)
			if err != nil {
				return nil, err
			}
		}
	}
	if p.Status != model.StatusActive {
		return nil, model.ErrProposalNotActive
	}

	snap, err := s.power.Resolve(ctx, req.VoterID, p.Scope)
	if err != nil {
		return nil, err
	}
	if snap.TotalPower <= 0 {
		return nil, model.ErrNoVotingPower
	}

	vote := &model.Vote{
		ProposalID:  p.ID,
		VoterID:     req.VoterID,
		Support:     support,
		VotingPower: snap.TotalPower,
		Reason:      req.Reason,
		CreatedAt:   now,
		IPHash:      ipHash,
	}
	if err := s.votes.Cast(ctx, vote); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateProposal(ctx, p.ID); err != nil {
			log.Printf("cache: invalidate proposal error: %v", err)
		}
	}

	// Opportunistic window check: if the sweep is lagging and the window just
	// elapsed, resolve the proposal now rather than waiting for the next tick.
	if s.lifecycle != nil {
		if err := s.lifecycle.CheckProposal(ctx, p.ID); err != nil {
			log.Printf("vote: opportunistic lifecycle check error for %s: %v", p.ID, err)
		}
	}

	fresh, err := s.proposals.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	total, err := s.ledger.TotalSharesOutstanding(ctx, fresh.Scope)
	if err != nil {
		return nil, err
	}

	return &model.VoteResponse{
		Success:    true,
		Vote:       *vote,
		TallyAfter: DetailFor(fresh, total),
		NewStatus:  fresh.Status,
	}, nil
}
