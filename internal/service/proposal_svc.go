package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// ProposalDefaults are applied when a create request leaves a field zero.
type ProposalDefaults struct {
	VotingDelay       time.Duration
	VotingPeriod      time.Duration
	QuorumThreshold   float64
	ApprovalThreshold float64
	MinProposerShares int64
}

type ProposalService struct {
	proposals ProposalStore
	votes     VoteStore
	power     *PowerService
	ledger    ShareLedger
	cache     *CacheService
	clock     Clock
	defaults  ProposalDefaults
}

func NewProposalService(proposals ProposalStore, votes VoteStore, power *PowerService,
	ledger ShareLedger, cache *CacheService, clock Clock, defaults ProposalDefaults) *ProposalService {
	return &ProposalService{
		proposals: proposals,
		votes:     votes,
		power:     power,
		ledger:    ledger,
		cache:     cache,
		clock:     clock,
		defaults:  defaults,
	}
}

// Create validates the request, checks the proposer's voting power, and
// inserts the proposal. The proposal starts active unless a voting delay
// pushes its start time into the future, in which case it starts pending and
// the lifecycle sweep activates it.
func (s *ProposalService) Create(ctx context.Context, req model.CreateProposalRequest) (*model.Proposal, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	snap, err := s.power.Resolve(ctx, req.ProposerID, req.Scope)
	if err != nil {
		return nil, err
	}
	if snap.TotalPower < s.defaults.MinProposerShares {
		return nil, model.ErrInsufficientVotingPower
	}

	now := s.clock.Now()

	delay := s.defaults.VotingDelay
	if req.VotingDelaySec > 0 {
		delay = time.Duration(req.VotingDelaySec) * time.Second
	}
	period := s.defaults.VotingPeriod
	if req.VotingPeriodSec > 0 {
		period = time.Duration(req.VotingPeriodSec) * time.Second
	}

	quorum := s.defaults.QuorumThreshold
	if req.QuorumThreshold > 0 {
		quorum = req.QuorumThreshold
	}
	approval := s.defaults.ApprovalThreshold
	if req.ApprovalThreshold > 0 {
		approval = req.ApprovalThreshold
	}

	start := now.Add(delay)
	status := model.StatusActive
	if start.After(now) {
		status = model.StatusPending
	}

	p := &model.Proposal{
		ID:                uuid.NewString(),
		Scope:             req.Scope,
		Title:             req.Title,
		Description:       req.Description,
		ProposerID:        req.ProposerID,
		QuorumThreshold:   quorum,
		ApprovalThreshold: approval,
		StartTime:         start,
		EndTime:           start.Add(period),
		Status:            status,
		Actions:           req.Actions,
		CreatedAt:         now,
	}

	if err := s.proposals.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a proposal with its tally detail. Uses cache-aside: check Redis
// first, fall back to DB, then populate cache.
func (s *ProposalService) Get(ctx context.Context, proposalID string) (*model.ProposalResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.GetProposal(ctx, proposalID)
		if err != nil {
			log.Printf("cache: proposal get error: %v", err)
		} else if cached != nil {
			var resp model.ProposalResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	p, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	resp, err := s.respond(ctx, p, nil)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProposal(ctx, proposalID, resp); err != nil {
			log.Printf("cache: proposal set error: %v", err)
		}
	}
	return resp, nil
}

// List returns proposals matching the filter, each with its tally detail.
// Total eligible power is looked up once per distinct scope in the page.
func (s *ProposalService) List(ctx context.Context, f model.ProposalFilter) ([]model.ProposalResponse, error) {
	proposals, err := s.proposals.List(ctx, f)
	if err != nil {
		return nil, err
	}

	eligible := make(map[string]int64)
	responses := make([]model.ProposalResponse, 0, len(proposals))
	for i := range proposals {
		resp, err := s.respond(ctx, &proposals[i], eligible)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

// Votes returns the audit trail of votes for a proposal.
func (s *ProposalService) Votes(ctx context.Context, proposalID string) ([]model.Vote, error) {
	if _, err := s.proposals.FindByID(ctx, proposalID); err != nil {
		return nil, err
	}
	return s.votes.ListByProposal(ctx, proposalID)
}

// respond attaches the tally detail. memo, when non-nil, caches total
// eligible power per scope across one call.
func (s *ProposalService) respond(ctx context.Context, p *model.Proposal, memo map[string]int64) (*model.ProposalResponse, error) {
	total, ok := int64(0), false
	if memo != nil {
		total, ok = memo[p.Scope]
	}
	if !ok {
		var err error
		total, err = s.ledger.TotalSharesOutstanding(ctx, p.Scope)
		if err != nil {
			return nil, err
		}
		if memo != nil {
			memo[p.Scope] = total
		}
	}
	return &model.ProposalResponse{Proposal: *p, Tally: DetailFor(p, total)}, nil
}

func validateCreate(req model.CreateProposalRequest) error {
	if req.Scope == "" {
		return fmt.Errorf("%w: scope is required", model.ErrValidation)
	}
	if len(req.Title) < 3 || len(req.Title) > 200 {
		return fmt.Errorf("%w: title must be 3-200 characters", model.ErrValidation)
	}
	if len(req.Description) > 5000 {
		return fmt.Errorf("%w: description must be at most 5000 characters", model.ErrValidation)
	}
	if req.ProposerID == "" {
		return fmt.Errorf("%w: proposerId is required", model.ErrValidation)
	}
	if req.QuorumThreshold < 0 || req.QuorumThreshold > 1 {
		return fmt.Errorf("%w: quorumThreshold must be between 0 and 1", model.ErrValidation)
	}
	if req.ApprovalThreshold < 0 || req.ApprovalThreshold > 1 {
		return fmt.Errorf("%w: approvalThreshold must be between 0 and 1", model.ErrValidation)
	}
	if req.VotingDelaySec < 0 || req.VotingPeriodSec < 0 {
		return fmt.Errorf("%w: voting delay and period must not be negative", model.ErrValidation)
	}
	for i, a := range req.Actions {
		if a.Target == "" || a.Signature == "" {
			return fmt.Errorf("%w: action %d needs target and signature", model.ErrValidation, i)
		}
	}
	return nil
}
