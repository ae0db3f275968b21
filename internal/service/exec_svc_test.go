package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

type execFixture struct {
	clock     *fakeClock
	proposals *fakeProposalStore
	holders   *fakeHolderStore
	executor  *fakeExecutor
	svc       *ExecutionService
}

func newExecFixture(t *testing.T) *execFixture {
	t.Helper()
	f := &execFixture{
		clock:     newFakeClock(time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)),
		proposals: newFakeProposalStore(),
		holders:   newFakeHolderStore(),
		executor:  newFakeExecutor(),
	}
	f.svc = NewExecutionService(f.proposals, f.holders, f.executor, nil, f.clock)
	f.holders.put(model.Holder{HolderID: "admin1", Role: model.RoleAdmin})
	f.holders.put(model.Holder{HolderID: "mgr1", Role: model.RoleManager})
	f.holders.put(model.Holder{HolderID: "holder1", Role: model.RoleHolder})
	return f
}

func (f *execFixture) succeededProposal(id string, actions ...model.ProposalAction) {
	f.proposals.put(model.Proposal{
		ID:      id,
		Scope:   "prop-berlin-01",
		Title:   "Approve facade renovation",
		Status:  model.StatusSucceeded,
		Actions: actions,
	})
}

func TestExecute(t *testing.T) {
	f := newExecFixture(t)
	f.succeededProposal("p1",
		model.ProposalAction{Target: "treasury", Signature: "release(uint256)", Value: "25000"},
		model.ProposalAction{Target: "registry", Signature: "update(string)"},
	)

	resp, err := f.svc.Execute(context.Background(), "p1", "admin1")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Status != model.StatusExecuted {
		t.Errorf("status = %s, want executed", resp.Status)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	for i, r := range resp.Results {
		if r.Index != i || !r.Success {
			t.Errorf("result %d = %+v, want success at its index", i, r)
		}
	}

	p, _ := f.proposals.FindByID(context.Background(), "p1")
	if p.Status != model.StatusExecuted {
		t.Errorf("stored status = %s, want executed", p.Status)
	}
	if p.ExecutedAt == nil || !p.ExecutedAt.Equal(f.clock.Now()) {
		t.Errorf("executedAt = %v, want clock time", p.ExecutedAt)
	}
	if len(p.ExecutionResults) != 2 {
		t.Errorf("stored results = %d, want 2", len(p.ExecutionResults))
	}
}

func TestExecuteManagerAllowed(t *testing.T) {
	f := newExecFixture(t)
	f.succeededProposal("p1", model.ProposalAction{Target: "treasury", Signature: "release(uint256)"})

	if _, err := f.svc.Execute(context.Background(), "p1", "mgr1"); err != nil {
		t.Errorf("Execute() by manager error = %v", err)
	}
}

func TestExecuteFailedActionRecordedAndLoopContinues(t *testing.T) {
	f := newExecFixture(t)
	f.executor.failOn("registry")
	f.succeededProposal("p1",
		model.ProposalAction{Target: "registry", Signature: "update(string)"},
		model.ProposalAction{Target: "treasury", Signature: "release(uint256)"},
	)

	resp, err := f.svc.Execute(context.Background(), "p1", "admin1")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(resp.Results))
	}
	if resp.Results[0].Success {
		t.Error("failed action reported as success")
	}
	if resp.Results[0].Detail == "" {
		t.Error("failure detail missing")
	}
	if !resp.Results[1].Success {
		t.Error("second action should have run despite first failing")
	}

	// A partial failure still leaves the proposal executed.
	p, _ := f.proposals.FindByID(context.Background(), "p1")
	if p.Status != model.StatusExecuted {
		t.Errorf("status = %s, want executed", p.Status)
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *execFixture)
		caller  string
		wantErr error
	}{
		{
			name:    "proposal not found",
			setup:   func(f *execFixture) {},
			caller:  "admin1",
			wantErr: model.ErrProposalNotFound,
		},
		{
			name:    "unknown caller",
			setup:   func(f *execFixture) { f.succeededProposal("p1") },
			caller:  "stranger",
			wantErr: model.ErrUnauthorized,
		},
		{
			name:    "plain holder cannot execute",
			setup:   func(f *execFixture) { f.succeededProposal("p1") },
			caller:  "holder1",
			wantErr: model.ErrUnauthorized,
		},
		{
			name: "defeated proposal",
			setup: func(f *execFixture) {
				f.proposals.put(model.Proposal{ID: "p1", Status: model.StatusDefeated})
			},
			caller:  "admin1",
			wantErr: model.ErrInvalidState,
		},
		{
			name: "active proposal",
			setup: func(f *execFixture) {
				f.proposals.put(model.Proposal{ID: "p1", Status: model.StatusActive})
			},
			caller:  "admin1",
			wantErr: model.ErrInvalidState,
		},
		{
			name: "already executed",
			setup: func(f *execFixture) {
				f.proposals.put(model.Proposal{ID: "p1", Status: model.StatusExecuted})
			},
			caller:  "admin1",
			wantErr: model.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExecFixture(t)
			tt.setup(f)
			_, err := f.svc.Execute(context.Background(), "p1", tt.caller)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecuteClaimIsExactlyOnce(t *testing.T) {
	f := newExecFixture(t)
	f.succeededProposal("p1", model.ProposalAction{Target: "treasury", Signature: "release(uint256)"})

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Execute(context.Background(), "p1", "admin1")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, model.ErrInvalidState) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d executions succeeded, want exactly 1", succeeded)
	}

	f.executor.mu.Lock()
	submitted := len(f.executor.submitted)
	f.executor.mu.Unlock()
	if submitted != 1 {
		t.Errorf("executor received %d submissions, want 1", submitted)
	}
}
