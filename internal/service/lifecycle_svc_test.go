package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

type lifecycleFixture struct {
	clock     *fakeClock
	ledger    *fakeLedger
	proposals *fakeProposalStore
	svc       *LifecycleService
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	clock := newFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	ledger := newFakeLedger()
	proposals := newFakeProposalStore()
	return &lifecycleFixture{
		clock:     clock,
		ledger:    ledger,
		proposals: proposals,
		svc:       NewLifecycleService(proposals, ledger, nil, clock, nil),
	}
}

func (f *lifecycleFixture) seed(p model.Proposal) {
	if p.QuorumThreshold == 0 {
		p.QuorumThreshold = 0.1
	}
	if p.ApprovalThreshold == 0 {
		p.ApprovalThreshold = 0.5
	}
	f.proposals.put(p)
}

func TestSweepActivatesDuePending(t *testing.T) {
	f := newLifecycleFixture(t)
	now := f.clock.Now()

	f.seed(model.Proposal{
		ID: "due", Scope: "prop-berlin-01", Status: model.StatusPending,
		StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Hour),
	})
	f.seed(model.Proposal{
		ID: "early", Scope: "prop-berlin-01", Status: model.StatusPending,
		StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour),
	})

	activated, closed, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if activated != 1 || closed != 0 {
		t.Errorf("sweep = %d activated, %d closed, want 1/0", activated, closed)
	}

	due, _ := f.proposals.FindByID(context.Background(), "due")
	if due.Status != model.StatusActive {
		t.Errorf("due status = %s, want active", due.Status)
	}
	early, _ := f.proposals.FindByID(context.Background(), "early")
	if early.Status != model.StatusPending {
		t.Errorf("early status = %s, want pending", early.Status)
	}
}

func TestSweepClosesElapsedProposals(t *testing.T) {
	tests := []struct {
		name       string
		votes      Tally
		total      int64
		wantStatus model.ProposalStatus
	}{
		{
			name:       "passing proposal succeeds",
			votes:      Tally{For: 500, Against: 50},
			total:      1000,
			wantStatus: model.StatusSucceeded,
		},
		{
			name:       "quorum miss defeats",
			votes:      Tally{For: 40, Against: 20},
			total:      1000,
			wantStatus: model.StatusDefeated,
		},
		{
			name:       "approval miss defeats",
			votes:      Tally{For: 100, Against: 400},
			total:      1000,
			wantStatus: model.StatusDefeated,
		},
		{
			name:       "zero participation expires",
			votes:      Tally{},
			total:      1000,
			wantStatus: model.StatusExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLifecycleFixture(t)
			f.ledger.setTotal("prop-berlin-01", tt.total)
			now := f.clock.Now()
			f.seed(model.Proposal{
				ID: "p1", Scope: "prop-berlin-01", Status: model.StatusActive,
				StartTime:    now.Add(-2 * time.Hour),
				EndTime:      now.Add(-time.Minute),
				VotesFor:     tt.votes.For,
				VotesAgainst: tt.votes.Against,
				VotesAbstain: tt.votes.Abstain,
				TotalVotes:   tt.votes.Total(),
			})

			_, closed, err := f.svc.Sweep(context.Background())
			if err != nil {
				t.Fatalf("Sweep() error = %v", err)
			}
			if closed != 1 {
				t.Fatalf("closed = %d, want 1", closed)
			}

			p, _ := f.proposals.FindByID(context.Background(), "p1")
			if p.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", p.Status, tt.wantStatus)
			}
			if p.EndedAt == nil {
				t.Error("endedAt not recorded")
			}
		})
	}
}

func TestSweepLeavesOpenWindowAlone(t *testing.T) {
	f := newLifecycleFixture(t)
	f.ledger.setTotal("prop-berlin-01", 1000)
	now := f.clock.Now()
	f.seed(model.Proposal{
		ID: "p1", Scope: "prop-berlin-01", Status: model.StatusActive,
		StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
		VotesFor: 900, TotalVotes: 900,
	})

	activated, closed, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if activated != 0 || closed != 0 {
		t.Errorf("sweep touched an open proposal: %d/%d", activated, closed)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newLifecycleFixture(t)
	f.ledger.setTotal("prop-berlin-01", 1000)
	now := f.clock.Now()
	f.seed(model.Proposal{
		ID: "p1", Scope: "prop-berlin-01", Status: model.StatusActive,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Minute),
		VotesFor: 500, TotalVotes: 500,
	})

	if _, closed, err := f.svc.Sweep(context.Background()); err != nil || closed != 1 {
		t.Fatalf("first Sweep() = %d closed, err %v", closed, err)
	}
	firstEnded := func() time.Time {
		p, _ := f.proposals.FindByID(context.Background(), "p1")
		return *p.EndedAt
	}()

	f.clock.Advance(time.Hour)
	activated, closed, err := f.svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second Sweep() error = %v", err)
	}
	if activated != 0 || closed != 0 {
		t.Errorf("second sweep transitioned again: %d/%d", activated, closed)
	}

	p, _ := f.proposals.FindByID(context.Background(), "p1")
	if p.Status != model.StatusSucceeded {
		t.Errorf("status = %s, want succeeded", p.Status)
	}
	if !p.EndedAt.Equal(firstEnded) {
		t.Errorf("endedAt rewritten: %v vs %v", p.EndedAt, firstEnded)
	}
}

func TestSweepRecordsMetrics(t *testing.T) {
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_transitions_total"}, []string{"to"})
	sweepDur := prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "test_sweep_duration_seconds"})

	clock := newFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	ledger := newFakeLedger()
	ledger.setTotal("prop-berlin-01", 1000)
	proposals := newFakeProposalStore()
	svc := NewLifecycleService(proposals, ledger, nil, clock, transitions)

	now := clock.Now()
	proposals.put(model.Proposal{
		ID: "due", Scope: "prop-berlin-01", Status: model.StatusPending,
		QuorumThreshold: 0.1, ApprovalThreshold: 0.5,
		StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Hour),
	})
	proposals.put(model.Proposal{
		ID: "won", Scope: "prop-berlin-01", Status: model.StatusActive,
		QuorumThreshold: 0.1, ApprovalThreshold: 0.5,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Minute),
		VotesFor: 500, TotalVotes: 500,
	})

	w := NewLifecycleWorker(svc, time.Minute, sweepDur)
	w.tick(context.Background())

	if got := testutil.ToFloat64(transitions.WithLabelValues("active")); got != 1 {
		t.Errorf("active transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(transitions.WithLabelValues("succeeded")); got != 1 {
		t.Errorf("succeeded transitions = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(sweepDur); got != 1 {
		t.Errorf("sweep duration collector count = %d, want 1", got)
	}
}

func TestCheckProposal(t *testing.T) {
	f := newLifecycleFixture(t)
	f.ledger.setTotal("prop-berlin-01", 1000)
	now := f.clock.Now()

	f.seed(model.Proposal{
		ID: "p1", Scope: "prop-berlin-01", Status: model.StatusPending,
		StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Hour),
	})
	if err := f.svc.CheckProposal(context.Background(), "p1"); err != nil {
		t.Fatalf("CheckProposal() error = %v", err)
	}
	p, _ := f.proposals.FindByID(context.Background(), "p1")
	if p.Status != model.StatusActive {
		t.Errorf("status = %s, want active", p.Status)
	}

	// Window elapses: the same call resolves the proposal.
	f.clock.Set(p.EndTime.Add(time.Second))
	if err := f.svc.CheckProposal(context.Background(), "p1"); err != nil {
		t.Fatalf("CheckProposal() error = %v", err)
	}
	p, _ = f.proposals.FindByID(context.Background(), "p1")
	if p.Status != model.StatusExpired {
		t.Errorf("status = %s, want expired (no votes cast)", p.Status)
	}
}
