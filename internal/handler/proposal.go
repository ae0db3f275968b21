package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/finsterfurz/coinestate-governance-go/internal/middleware"
	"github.com/finsterfurz/coinestate-governance-go/internal/model"
	"github.com/finsterfurz/coinestate-governance-go/internal/service"
)

type ProposalHandler struct {
	svc *service.ProposalService
}

func NewProposalHandler(svc *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{svc: svc}
}

// Create handles POST /api/proposals
func (h *ProposalHandler) Create(c fiber.Ctx) error {
	var req model.CreateProposalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	scope, errMsg := middleware.ValidateScope(req.Scope)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Scope = scope

	proposerID, errMsg := middleware.ValidateHolderID(req.ProposerID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.ProposerID = proposerID

	p, err := h.svc.Create(c.Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create proposal")
	}

	Metrics.ProposalsCreated.Inc()
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Get handles GET /api/proposals/:proposalId
func (h *ProposalHandler) Get(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateProposalID(c.Params("proposalId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to fetch proposal")
	}
	return c.JSON(resp)
}

// List handles GET /api/proposals
func (h *ProposalHandler) List(c fiber.Ctx) error {
	f := model.ProposalFilter{
		Limit:  fiber.Query[int](c, "limit"),
		Offset: fiber.Query[int](c, "offset"),
	}

	if status := c.Query("status"); status != "" {
		f.Status = model.ProposalStatus(status)
	}
	if scope := c.Query("scope"); scope != "" {
		s, errMsg := middleware.ValidateScope(scope)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
		f.Scope = s
	}
	if proposer := c.Query("proposer"); proposer != "" {
		p, errMsg := middleware.ValidateHolderID(proposer)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
		f.ProposerID = p
	}

	proposals, err := h.svc.List(c.Context(), f)
	if err != nil {
		return respondError(c, err, "Failed to list proposals")
	}
	if proposals == nil {
		proposals = []model.ProposalResponse{}
	}
	return c.JSON(fiber.Map{"proposals": proposals, "count": len(proposals)})
}

// Votes handles GET /api/proposals/:proposalId/votes — the audit trail.
func (h *ProposalHandler) Votes(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateProposalID(c.Params("proposalId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	votes, err := h.svc.Votes(c.Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to list votes")
	}
	if votes == nil {
		votes = []model.Vote{}
	}
	return c.JSON(fiber.Map{"proposalId": id, "votes": votes, "count": len(votes)})
}
