package model

import "errors"

// Domain errors surfaced verbatim to callers. The HTTP layer maps them to
// status codes with errors.Is; anything else is an infrastructure failure.
var (
	ErrProposalNotFound        = errors.New("proposal not found")
	ErrHolderNotFound          = errors.New("holder not found")
	ErrVotingNotStarted        = errors.New("voting has not started")
	ErrVotingClosed            = errors.New("voting is closed")
	ErrProposalNotActive       = errors.New("proposal is not active")
	ErrAlreadyVoted            = errors.New("voter has already voted on this proposal")
	ErrNoVotingPower           = errors.New("voter has no voting power in this scope")
	ErrInsufficientVotingPower = errors.New("insufficient voting power to create a proposal")
	ErrDuplicateProposal       = errors.New("an open proposal with the same scope and title already exists")
	ErrInvalidState            = errors.New("operation not valid for the proposal's current state")
	ErrUnauthorized            = errors.New("caller is not authorized for this operation")
	ErrValidation              = errors.New("invalid input")
)
