package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/finsterfurz/coinestate-governance-go/internal/middleware"
	"github.com/finsterfurz/coinestate-governance-go/internal/model"
	"github.com/finsterfurz/coinestate-governance-go/internal/service"
	"github.com/finsterfurz/coinestate-governance-go/pkg/hash"
)

type VoteHandler struct {
	svc    *service.VoteService
	ipSalt string
}

func NewVoteHandler(svc *service.VoteService, ipSalt string) *VoteHandler {
	return &VoteHandler{svc: svc, ipSalt: ipSalt}
}

// Cast handles POST /api/votes
func (h *VoteHandler) Cast(c fiber.Ctx) error {
	var req model.VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	proposalID, errMsg := middleware.ValidateProposalID(req.ProposalID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.ProposalID = proposalID

	voterID, errMsg := middleware.ValidateHolderID(req.VoterID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.VoterID = voterID

	support, errMsg := middleware.ValidateSupport(req.Support)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_SUPPORT", errMsg)
	}
	req.Support = support

	req.Reason = middleware.ValidateReason(req.Reason)

	// IP is stored only as a salted iterated hash, for abuse auditing.
	ipHash := hash.HashIP(c.IP(), h.ipSalt)

	resp, err := h.svc.Cast(c.Context(), req, ipHash)
	if err != nil {
		return respondError(c, err, "Failed to cast vote")
	}

	Metrics.VotesTotal.WithLabelValues(support).Inc()
	return c.JSON(resp)
}
