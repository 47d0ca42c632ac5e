// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via `fail()` and `failService()` in this package). Clients branch
// on these codes; the message is for humans.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror HTTP status semantics.
//   - Domain codes name a business rule that status alone cannot convey
//     (for example a second active request for the same pair).
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "duplicate_active",
//	  "message": "an active request already exists for this pair"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidTarget      = "invalid_target"
	ErrCodeDuplicateActive    = "duplicate_active"
	ErrCodeAlreadyProcessed   = "already_processed"
	ErrCodeInvalidAction      = "invalid_action"
	ErrCodeStorageUnavailable = "storage_unavailable"
)
