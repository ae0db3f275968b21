package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// In-memory fakes mirroring the repository semantics: conditional status
// transitions, unique (proposal, voter) votes, and aggregate increments
// applied only while the proposal is active.

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeLedger struct {
	mu       sync.Mutex
	holdings map[string]map[string]int64 // holder -> property -> shares
	totals   map[string]int64            // property -> total shares issued
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		holdings: make(map[string]map[string]int64),
		totals:   make(map[string]int64),
	}
}

func (l *fakeLedger) setHolding(holderID, propertyID string, shares int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holdings[holderID] == nil {
		l.holdings[holderID] = make(map[string]int64)
	}
	l.holdings[holderID][propertyID] = shares
}

func (l *fakeLedger) setTotal(propertyID string, total int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totals[propertyID] = total
}

func (l *fakeLedger) SharesHeldBy(ctx context.Context, holderID, scope string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if scope == model.ScopeGlobal {
		var sum int64
		for _, shares := range l.holdings[holderID] {
			sum += shares
		}
		return sum, nil
	}
	return l.holdings[holderID][scope], nil
}

func (l *fakeLedger) TotalSharesOutstanding(ctx context.Context, scope string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if scope == model.ScopeGlobal {
		var sum int64
		for _, total := range l.totals {
			sum += total
		}
		return sum, nil
	}
	return l.totals[scope], nil
}

type fakeProposalStore struct {
	mu        sync.Mutex
	proposals map[string]*model.Proposal
}

func newFakeProposalStore() *fakeProposalStore {
	return &fakeProposalStore{proposals: make(map[string]*model.Proposal)}
}

func (s *fakeProposalStore) put(p model.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.proposals[p.ID] = &cp
}

func (s *fakeProposalStore) Create(ctx context.Context, p *model.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.proposals {
		if existing.Scope == p.Scope && existing.Title == p.Title &&
			(existing.Status == model.StatusPending || existing.Status == model.StatusActive) {
			return model.ErrDuplicateProposal
		}
	}
	cp := *p
	s.proposals[p.ID] = &cp
	return nil
}

func (s *fakeProposalStore) FindByID(ctx context.Context, id string) (*model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, model.ErrProposalNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProposalStore) List(ctx context.Context, f model.ProposalFilter) ([]model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Proposal
	for _, p := range s.proposals {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Scope != "" && p.Scope != f.Scope {
			continue
		}
		if f.ProposerID != "" && p.ProposerID != f.ProposerID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProposalStore) ListPendingDue(ctx context.Context, now time.Time) ([]model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Proposal
	for _, p := range s.proposals {
		if p.Status == model.StatusPending && !p.StartTime.After(now) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeProposalStore) ListActiveDue(ctx context.Context, now time.Time) ([]model.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Proposal
	for _, p := range s.proposals {
		if p.Status == model.StatusActive && p.EndTime.Before(now) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeProposalStore) TransitionStatus(ctx context.Context, id string, from, to model.ProposalStatus, endedAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if endedAt != nil {
		t := *endedAt
		p.EndedAt = &t
	}
	return true, nil
}

func (s *fakeProposalStore) ClaimExecution(ctx context.Context, id string, executedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok || p.Status != model.StatusSucceeded {
		return false, nil
	}
	p.Status = model.StatusExecuted
	t := executedAt
	p.ExecutedAt = &t
	return true, nil
}

func (s *fakeProposalStore) SaveExecutionResults(ctx context.Context, id string, results []model.ActionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return model.ErrProposalNotFound
	}
	p.ExecutionResults = results
	return nil
}

// applyWeight mirrors the SQL "increment where status = 'active'" statement.
func (s *fakeProposalStore) applyWeight(id string, support model.VoteSupport, power int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok || p.Status != model.StatusActive {
		return false
	}
	switch support {
	case model.SupportFor:
		p.VotesFor += power
	case model.SupportAgainst:
		p.VotesAgainst += power
	case model.SupportAbstain:
		p.VotesAbstain += power
	}
	p.TotalVotes += power
	return true
}

type fakeVoteStore struct {
	mu        sync.Mutex
	votes     map[string]map[string]model.Vote // proposal -> voter
	proposals *fakeProposalStore
}

func newFakeVoteStore(proposals *fakeProposalStore) *fakeVoteStore {
	return &fakeVoteStore{
		votes:     make(map[string]map[string]model.Vote),
		proposals: proposals,
	}
}

func (s *fakeVoteStore) Cast(ctx context.Context, v *model.Vote) error {
	s.mu.Lock()
	if s.votes[v.ProposalID] == nil {
		s.votes[v.ProposalID] = make(map[string]model.Vote)
	}
	if _, exists := s.votes[v.ProposalID][v.VoterID]; exists {
		s.mu.Unlock()
		return model.ErrAlreadyVoted
	}
	s.votes[v.ProposalID][v.VoterID] = *v
	s.mu.Unlock()

	if !s.proposals.applyWeight(v.ProposalID, v.Support, v.VotingPower) {
		// Roll the insert back, as the SQL transaction would.
		s.mu.Lock()
		delete(s.votes[v.ProposalID], v.VoterID)
		s.mu.Unlock()
		return model.ErrProposalNotActive
	}
	return nil
}

func (s *fakeVoteStore) ListByProposal(ctx context.Context, proposalID string) ([]model.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Vote
	for _, v := range s.votes[proposalID] {
		out = append(out, v)
	}
	return out, nil
}

func (s *fakeVoteStore) ReconcileTally(ctx context.Context, proposalID string) error {
	s.mu.Lock()
	var f, a, ab int64
	for _, v := range s.votes[proposalID] {
		switch v.Support {
		case model.SupportFor:
			f += v.VotingPower
		case model.SupportAgainst:
			a += v.VotingPower
		case model.SupportAbstain:
			ab += v.VotingPower
		}
	}
	s.mu.Unlock()

	s.proposals.mu.Lock()
	defer s.proposals.mu.Unlock()
	p, ok := s.proposals.proposals[proposalID]
	if !ok {
		return model.ErrProposalNotFound
	}
	p.VotesFor, p.VotesAgainst, p.VotesAbstain = f, a, ab
	p.TotalVotes = f + a + ab
	return nil
}

type fakeHolderStore struct {
	mu      sync.Mutex
	holders map[string]model.Holder
}

func newFakeHolderStore() *fakeHolderStore {
	return &fakeHolderStore{holders: make(map[string]model.Holder)}
}

func (s *fakeHolderStore) put(h model.Holder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holders[h.HolderID] = h
}

func (s *fakeHolderStore) FindByHolderID(ctx context.Context, holderID string) (*model.Holder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holders[holderID]
	if !ok {
		return nil, model.ErrHolderNotFound
	}
	return &h, nil
}

type fakeExecutor struct {
	mu          sync.Mutex
	failTargets map[string]bool
	submitted   []model.ProposalAction
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{failTargets: make(map[string]bool)}
}

func (e *fakeExecutor) failOn(target string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failTargets[target] = true
}

func (e *fakeExecutor) Submit(ctx context.Context, action model.ProposalAction) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitted = append(e.submitted, action)
	if e.failTargets[action.Target] {
		return "", fmt.Errorf("executor rejected %s", action.Target)
	}
	return "ok", nil
}
