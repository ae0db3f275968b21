package service

import (
	"context"
	"errors"
	"log"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// ExecutionService dispatches a succeeded proposal's actions to the external
// executor. Dispatch is claimed with a conditional succeeded->executed update
// before any action runs, so exactly one caller across all instances submits
// the actions. Execution is best-effort and auditable: a failed action is
// recorded and the loop continues; nothing is rolled back.
type ExecutionService struct {
	proposals ProposalStore
	holders   HolderStore
	executor  Executor
	cache     *CacheService
	clock     Clock
}

func NewExecutionService(proposals ProposalStore, holders HolderStore,
	executor Executor, cache *CacheService, clock Clock) *ExecutionService {
	return &ExecutionService{
		proposals: proposals,
		holders:   holders,
		executor:  executor,
		cache:     cache,
		clock:     clock,
	}
}

// Execute runs a succeeded proposal's actions. Fails with ErrProposalNotFound,
// ErrUnauthorized (caller lacks the execute capability), or ErrInvalidState
// (proposal is not succeeded, or a concurrent execute won the claim).
func (s *ExecutionService) Execute(ctx context.Context, proposalID, callerID string) (*model.ExecutionResponse, error) {
	p, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	holder, err := s.holders.FindByHolderID(ctx, callerID)
	if err != nil {
		if errors.Is(err, model.ErrHolderNotFound) {
			return nil, model.ErrUnauthorized
		}
		return nil, err
	}
	if !holder.Role.Can(model.CapExecuteProposals) {
		return nil, model.ErrUnauthorized
	}

	if p.Status != model.StatusSucceeded {
		return nil, model.ErrInvalidState
	}

	executedAt := s.clock.Now()
	claimed, err := s.proposals.ClaimExecution(ctx, proposalID, executedAt)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, model.ErrInvalidState
	}

	results := make([]model.ActionResult, 0, len(p.Actions))
	for i, action := range p.Actions {
		detail, err := s.executor.Submit(ctx, action)
		if err != nil {
			log.Printf("execute: action %d (%s) failed for %s: %v", i, action.Target, proposalID, err)
			results = append(results, model.ActionResult{
				Index:   i,
				Target:  action.Target,
				Success: false,
				Detail:  err.Error(),
			})
			continue
		}
		results = append(results, model.ActionResult{
			Index:   i,
			Target:  action.Target,
			Success: true,
			Detail:  detail,
		})
	}

	if err := s.proposals.SaveExecutionResults(ctx, proposalID, results); err != nil {
		// Actions already ran; surface the recording failure rather than
		// pretending nothing happened.
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateProposal(ctx, proposalID); err != nil {
			log.Printf("execute: cache invalidate error for %s: %v", proposalID, err)
		}
	}

	return &model.ExecutionResponse{
		ProposalID: proposalID,
		Status:     model.StatusExecuted,
		ExecutedAt: executedAt,
		Results:    results,
	}, nil
}
