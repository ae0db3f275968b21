package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/finsterfurz/coinestate-governance-go/internal/middleware"
	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// domainStatus maps a domain error to its HTTP status and code. Returns false
// for non-domain (infrastructure) failures.
func domainStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, model.ErrProposalNotFound), errors.Is(err, model.ErrHolderNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", true
	case errors.Is(err, model.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION_ERROR", true
	case errors.Is(err, model.ErrVotingNotStarted):
		return fiber.StatusBadRequest, "VOTING_NOT_STARTED", true
	case errors.Is(err, model.ErrVotingClosed):
		return fiber.StatusBadRequest, "VOTING_CLOSED", true
	case errors.Is(err, model.ErrProposalNotActive):
		return fiber.StatusConflict, "PROPOSAL_NOT_ACTIVE", true
	case errors.Is(err, model.ErrAlreadyVoted):
		return fiber.StatusConflict, "ALREADY_VOTED", true
	case errors.Is(err, model.ErrDuplicateProposal):
		return fiber.StatusConflict, "DUPLICATE_PROPOSAL", true
	case errors.Is(err, model.ErrInvalidState):
		return fiber.StatusConflict, "INVALID_STATE", true
	case errors.Is(err, model.ErrNoVotingPower):
		return fiber.StatusForbidden, "NO_VOTING_POWER", true
	case errors.Is(err, model.ErrInsufficientVotingPower):
		return fiber.StatusForbidden, "INSUFFICIENT_VOTING_POWER", true
	case errors.Is(err, model.ErrUnauthorized):
		return fiber.StatusForbidden, "UNAUTHORIZED", true
	}
	return 0, "", false
}

// respondError translates an error into the standard API error shape. Domain
// errors keep their message; infrastructure failures are masked.
func respondError(c fiber.Ctx, err error, fallback string) error {
	if status, code, ok := domainStatus(err); ok {
		return middleware.ErrorResponse(c, status, code, err.Error())
	}
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}
