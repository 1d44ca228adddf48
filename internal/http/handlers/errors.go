// Package handlers defines HTTP-layer error codes used across all API
// endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses via the `fail()` helper in this package. These codes provide
// clients with a stable, machine-readable error taxonomy that supplements the
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless noted.
//   - Generic codes (e.g., bad_request, forbidden) mirror common HTTP status
//     semantics to aid interoperability.
//   - Domain-specific codes (e.g., slot_taken, no_active_flow) carry booking
//     business outcomes that the status alone cannot convey; conversational
//     clients branch on them to decide which step to re-prompt.
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
	ErrCodeAlreadyBooked     = "already_booked"
	ErrCodeSlotTaken         = "slot_taken"
	ErrCodeSlotUnavailable   = "slot_unavailable"
	ErrCodeInvalidTable      = "invalid_table"
	ErrCodeInvalidSlot       = "invalid_slot"
	ErrCodeInvalidGuestCount = "invalid_guest_count"
	ErrCodeInvalidPhone      = "invalid_phone"
	ErrCodeNoActiveFlow      = "no_active_flow"
)
