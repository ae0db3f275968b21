package service

import (
	"context"
	"log"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// LogExecutor is the default Executor wiring: it acknowledges actions and
// leaves the actual on-chain/off-chain submission to the deployment that
// replaces it. Useful for development and as the injection point in tests.
type LogExecutor struct{}

func NewLogExecutor() *LogExecutor { return &LogExecutor{} }

func (e *LogExecutor) Submit(ctx context.Context, action model.ProposalAction) (string, error) {
	log.Printf("executor: submit target=%s signature=%s value=%s",
		action.Target, action.Signature, action.Value)
	return "acknowledged", nil
}
