package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// Field length limits matching database schema constraints.
const (
	MaxProposalIDLen = 36  // proposals.id UUID text form
	MaxHolderIDLen   = 64  // holders.holder_id VARCHAR(64)
	MaxScopeLen      = 32  // proposals.scope VARCHAR(32)
	MaxReasonLen     = 500 // votes.reason VARCHAR(500)
)

var (
	// proposalIDRe matches UUID v4 text form.
	proposalIDRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// holderIDRe matches holder IDs: hex-hashed credentials.
	holderIDRe = regexp.MustCompile(`^[0-9a-f]+$`)
	// scopeRe matches property IDs: alphanumeric, dash, underscore.
	scopeRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateProposalID checks that a proposal ID is a well-formed UUID.
func ValidateProposalID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "proposalId is required"
	}
	if len(id) > MaxProposalIDLen || !proposalIDRe.MatchString(id) {
		return "", "proposalId must be a UUID"
	}
	return id, ""
}

// ValidateHolderID checks that a holder ID is a valid hex hash.
func ValidateHolderID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "holderId is required"
	}
	if len(id) > MaxHolderIDLen {
		return "", "holderId must be at most 64 characters"
	}
	if !holderIDRe.MatchString(id) {
		return "", "holderId must be a hexadecimal hash"
	}
	return id, ""
}

// ValidateScope checks a proposal scope: "global" or a property ID.
func ValidateScope(scope string) (string, string) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return "", "scope is required"
	}
	if scope == model.ScopeGlobal {
		return scope, ""
	}
	if len(scope) > MaxScopeLen {
		return "", "scope must be at most 32 characters"
	}
	if !scopeRe.MatchString(scope) {
		return "", "scope contains invalid characters"
	}
	return scope, ""
}

// ValidateSupport checks the vote support value.
func ValidateSupport(support string) (string, string) {
	support = strings.TrimSpace(strings.ToLower(support))
	if support == "" {
		return "", "support is required"
	}
	if !model.ValidSupports[model.VoteSupport(support)] {
		return "", "support must be one of: for, against, abstain"
	}
	return support, ""
}

// ValidateReason trims and truncates a vote reason to DB limits.
func ValidateReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxReasonLen {
		reason = reason[:MaxReasonLen]
	}
	return reason
}
