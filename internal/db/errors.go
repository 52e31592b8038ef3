package db

import "errors"

// Domain-level database error sentinels.
var (
	// Content errors
	ErrContentNotFound       = errors.New("content not found")
	ErrContentClientMismatch = errors.New("content does not belong to this client")

	// Request errors
	ErrRequestNotFound         = errors.New("request not found")
	ErrRequestAlreadyProcessed = errors.New("request was already converted or rejected")

	// Client errors
	ErrClientNotFound = errors.New("client not found")

	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Approval link errors
	ErrApprovalLinkNotFound    = errors.New("approval link not found")
	ErrApprovalLinkExpired     = errors.New("approval link has expired")
	ErrApprovalLinkAlreadyUsed = errors.New("approval link was already used")
	ErrDuplicateToken          = errors.New("approval token already exists")
)

// Postgres SQLSTATE codes.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)
