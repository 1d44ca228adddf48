// Package services defines the business logic of the reservation backend:
// the booking conversation state machine, slot availability, and the
// privileged staff views. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrAlreadyBooked is returned when a user who already holds an active
	// booking tries to start another one.
	ErrAlreadyBooked = errors.New("user already has an active booking")

	// ErrSlotTaken is returned when the commit re-check finds the chosen
	// table/slot pair reserved by a concurrent booking.
	ErrSlotTaken = errors.New("slot was taken by another booking")

	// ErrSlotUnavailable is returned when a chosen slot is no longer in the
	// table's free-slot set at selection time.
	ErrSlotUnavailable = errors.New("slot is no longer available")

	// ErrInvalidTable indicates a table id outside the seeded catalog.
	ErrInvalidTable = errors.New("no such table")

	// ErrInvalidSlot indicates a time that does not lie on the booking grid
	// within the operating window.
	ErrInvalidSlot = errors.New("time is not a bookable slot")

	// ErrInvalidGuestCount is returned when the guest count input does not
	// parse as a positive integer.
	ErrInvalidGuestCount = errors.New("guest count must be a positive number")

	// ErrInvalidPhone is returned when the submitted phone is empty.
	ErrInvalidPhone = errors.New("phone must not be empty")

	// ErrNoActiveFlow is returned when an event arrives for a user without a
	// booking flow in progress, or out of step with the one they have
	// (including flows dropped by inactivity expiry).
	ErrNoActiveFlow = errors.New("no booking flow in progress at this step")

	// ErrUnauthorized is returned when a non-privileged user invokes a
	// staff-only operation.
	ErrUnauthorized = errors.New("operation requires a privileged user")
)
