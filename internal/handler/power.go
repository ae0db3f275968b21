package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/finsterfurz/coinestate-governance-go/internal/middleware"
	"github.com/finsterfurz/coinestate-governance-go/internal/model"
	"github.com/finsterfurz/coinestate-governance-go/internal/service"
)

type PowerHandler struct {
	svc *service.PowerService
}

func NewPowerHandler(svc *service.PowerService) *PowerHandler {
	return &PowerHandler{svc: svc}
}

// Get handles GET /api/holders/:holderId/power?scope=...
// Scope defaults to global when omitted.
func (h *PowerHandler) Get(c fiber.Ctx) error {
	holderID, errMsg := middleware.ValidateHolderID(c.Params("holderId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	scope := c.Query("scope", model.ScopeGlobal)
	scope, errMsg = middleware.ValidateScope(scope)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	snap, err := h.svc.Resolve(c.Context(), holderID, scope)
	if err != nil {
		return respondError(c, err, "Failed to resolve voting power")
	}
	return c.JSON(snap)
}
