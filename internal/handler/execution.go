package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/finsterfurz/coinestate-governance-go/internal/middleware"
	"github.com/finsterfurz/coinestate-governance-go/internal/service"
)

type ExecutionHandler struct {
	svc *service.ExecutionService
}

func NewExecutionHandler(svc *service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{svc: svc}
}

// Execute handles POST /api/proposals/:proposalId/execute
// The caller identity comes from the X-Holder-ID header; token verification
// belongs to the auth layer in front of this service.
func (h *ExecutionHandler) Execute(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateProposalID(c.Params("proposalId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	callerID, errMsg := middleware.ValidateHolderID(c.Get("X-Holder-ID"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "MISSING_CALLER", "X-Holder-ID header is required")
	}

	resp, err := h.svc.Execute(c.Context(), id, callerID)
	if err != nil {
		return respondError(c, err, "Failed to execute proposal")
	}

	Metrics.ProposalsExecuted.Inc()
	Metrics.ProposalTransitions.WithLabelValues("executed").Inc()
	return c.JSON(resp)
}
