// Booking HTTP handlers.
//
// This file exposes REST endpoints for the booking conversation and the
// reservation views:
//   - POST   /booking/start     (open a flow, returns the table catalog)
//   - POST   /booking/table     (choose a table, returns its free slots)
//   - POST   /booking/slot      (choose a time slot)
//   - POST   /booking/guests    (party size)
//   - POST   /booking/phone     (contact phone; commits the booking)
//   - DELETE /booking           (abort the flow)
//   - GET    /tables            (table catalog)
//   - GET    /tables/{id}/slots (free slots for one table)
//   - GET    /bookings/me       (the caller's active booking)
//   - GET    /bookings/active   (staff: all active bookings)
//   - GET    /bookings/history  (staff: recent bookings)
//   - DELETE /bookings/{id}     (cancel a committed booking)
//
// Handlers are transport-thin: they validate input, call the booking service,
// and translate results into HTTP responses. Service errors are mapped onto
// the stable error-code taxonomy in errors.go so conversational clients can
// decide which step to re-prompt.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/whitefox-bar/go-booking-backend/internal/domain"
	"github.com/whitefox-bar/go-booking-backend/internal/schedule"
	"github.com/whitefox-bar/go-booking-backend/internal/services"
	"github.com/whitefox-bar/go-booking-backend/internal/utils"
)

//
// Service contract (context-aware)
//

// BookingService defines the booking flow and view operations consumed by the
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type BookingService interface {
	// Tables returns the seeded table catalog.
	Tables(ctx context.Context) ([]domain.Table, error)
	// FreeSlots returns the table's free slots at the given instant.
	FreeSlots(ctx context.Context, tableID int, now time.Time) ([]schedule.Slot, error)
	// StartBooking opens a booking flow and returns the table catalog.
	StartBooking(ctx context.Context, userID, userName string, now time.Time) ([]domain.Table, error)
	// SelectTable records the chosen table and returns its free slots.
	SelectTable(ctx context.Context, userID string, tableID int, now time.Time) ([]schedule.Slot, error)
	// SelectSlot records the chosen time slot.
	SelectSlot(ctx context.Context, userID string, tableID int, slot string, now time.Time) error
	// SubmitGuestCount records the party size.
	SubmitGuestCount(ctx context.Context, userID, text string) error
	// SubmitPhone commits the booking and returns it.
	SubmitPhone(ctx context.Context, userID, phone string, now time.Time) (*domain.Booking, error)
	// AbortBooking drops the in-flight flow, if any.
	AbortBooking(userID string)
	// MyBooking returns the caller's active booking, or nil.
	MyBooking(ctx context.Context, userID string, now time.Time) (*domain.Booking, error)
	// ActiveBookings returns all active bookings (staff only).
	ActiveBookings(ctx context.Context, userID string, now time.Time) ([]domain.Booking, error)
	// History returns recent bookings (staff only).
	History(ctx context.Context, userID string, limit int) ([]domain.Booking, error)
	// Cancel deletes a committed booking subject to ownership rules.
	Cancel(ctx context.Context, userID string, bookingID uint) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for bookings and the menu. It depends on
// an abstract service interface to keep transport concerns separate from
// business logic.
type Handlers struct {
	svc      BookingService
	mediaDir string

	// now is swappable in tests.
	now func() time.Time
}

// New constructs a Handlers instance bound to the given service. mediaDir is
// the directory whose images back the menu endpoint.
func New(svc BookingService, mediaDir string) *Handlers {
	return &Handlers{svc: svc, mediaDir: mediaDir, now: time.Now}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to the "X-User-ID" header, and
// finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// userName extracts the display name from the "X-User-Name" header, falling
// back to "Guest".
func userName(c *gin.Context) string {
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-Name")); h != "" {
			return h
		}
	}
	return "Guest"
}

//
// DTOs
//

// SelectTableRequest is the JSON payload for choosing a table.
type SelectTableRequest struct {
	// TableID identifies the table from the catalog.
	TableID int `json:"table_id" binding:"required" example:"3"`
}

// SelectSlotRequest is the JSON payload for choosing a time slot.
type SelectSlotRequest struct {
	// TableID must match the table chosen earlier in the flow.
	TableID int `json:"table_id" binding:"required" example:"3"`
	// Slot is the clock label of the chosen slot.
	Slot string `json:"slot" binding:"required" example:"19:00"`
}

// GuestCountRequest is the JSON payload for the party size.
type GuestCountRequest struct {
	// Guests is the raw user input; it must parse as a positive integer.
	Guests string `json:"guests" binding:"required" example:"4"`
}

// PhoneRequest is the JSON payload for the contact phone.
type PhoneRequest struct {
	// Phone is the contact phone for the reservation.
	Phone string `json:"phone" binding:"required" example:"+44 20 7946 0958"`
}

// StartBookingResponse returns the catalog shown at the first prompt.
type StartBookingResponse struct {
	Tables []domain.Table `json:"tables"`
	Step   string         `json:"step" example:"awaiting_table"`
}

// SlotsResponse lists the free slots of one table as clock labels.
type SlotsResponse struct {
	TableID int      `json:"table_id" example:"3"`
	Slots   []string `json:"slots" example:"18:00,18:30,19:00"`
	Step    string   `json:"step,omitempty" example:"awaiting_slot"`
}

//
// Helpers
//

// failService maps service-layer errors onto the HTTP error taxonomy.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAlreadyBooked):
		fail(c, http.StatusConflict, ErrCodeAlreadyBooked, "you already have an active booking")
	case errors.Is(err, services.ErrSlotTaken):
		fail(c, http.StatusConflict, ErrCodeSlotTaken, "the slot was just taken by another booking")
	case errors.Is(err, services.ErrSlotUnavailable):
		fail(c, http.StatusConflict, ErrCodeSlotUnavailable, "the slot is no longer available, pick a table again")
	case errors.Is(err, services.ErrInvalidTable):
		fail(c, http.StatusBadRequest, ErrCodeInvalidTable, "no such table")
	case errors.Is(err, services.ErrInvalidSlot):
		fail(c, http.StatusBadRequest, ErrCodeInvalidSlot, "time is not a bookable slot")
	case errors.Is(err, services.ErrInvalidGuestCount):
		fail(c, http.StatusBadRequest, ErrCodeInvalidGuestCount, "guest count must be a positive number")
	case errors.Is(err, services.ErrInvalidPhone):
		fail(c, http.StatusBadRequest, ErrCodeInvalidPhone, "phone must not be empty")
	case errors.Is(err, services.ErrNoActiveFlow):
		fail(c, http.StatusConflict, ErrCodeNoActiveFlow, "no booking flow in progress at this step")
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "operation requires a privileged user")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

func slotLabels(slots []schedule.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.String())
	}
	return out
}

//
// Flow handlers
//

// StartBooking godoc
// @ID          startBooking
// @Summary     Start a booking flow
// @Description Opens a booking conversation for the current user and returns the table catalog.
// @Tags        Booking
// @Produce     json
//
// @Param       X-User-ID    header  string  false "User ID (demo header)"  example(user123)
// @Param       X-User-Name  header  string  false "Display name"           example(Ann)
//
// @Success     200  {object}  handlers.StartBookingResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Already booked"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /booking/start [post]
func (h *Handlers) StartBooking(c *gin.Context) {
	tables, err := h.svc.StartBooking(c.Request.Context(), userID(c), userName(c), h.now())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, StartBookingResponse{Tables: tables, Step: "awaiting_table"})
}

// SelectTable godoc
// @ID          selectTable
// @Summary     Choose a table
// @Description Records the chosen table and returns its free slots for the next prompt.
// @Tags        Booking
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SelectTableRequest  true  "Table choice"
//
// @Success     200  {object}  handlers.SlotsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid table"
// @Failure     409  {object}  handlers.ErrorResponse  "No active flow"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /booking/table [post]
func (h *Handlers) SelectTable(c *gin.Context) {
	var req SelectTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	free, err := h.svc.SelectTable(c.Request.Context(), userID(c), req.TableID, h.now())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, SlotsResponse{TableID: req.TableID, Slots: slotLabels(free), Step: "awaiting_slot"})
}

// SelectSlot godoc
// @ID          selectSlot
// @Summary     Choose a time slot
// @Description Records the chosen slot after re-validating availability.
// @Tags        Booking
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SelectSlotRequest  true  "Slot choice"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid slot"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot unavailable or no active flow"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /booking/slot [post]
func (h *Handlers) SelectSlot(c *gin.Context) {
	var req SelectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.SelectSlot(c.Request.Context(), userID(c), req.TableID, req.Slot, h.now()); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// SubmitGuestCount godoc
// @ID          submitGuestCount
// @Summary     Submit the party size
// @Description Records the guest count; invalid input leaves the flow at the same step.
// @Tags        Booking
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.GuestCountRequest  true  "Party size"
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid guest count"
// @Failure     409  {object}  handlers.ErrorResponse  "No active flow"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /booking/guests [post]
func (h *Handlers) SubmitGuestCount(c *gin.Context) {
	var req GuestCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.SubmitGuestCount(c.Request.Context(), userID(c), req.Guests); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// SubmitPhone godoc
// @ID          submitPhone
// @Summary     Submit the contact phone and commit
// @Description Validates the phone and commits the booking atomically; the flow ends on success.
// @Tags        Booking
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.PhoneRequest  true  "Contact phone"
//
// @Success     201  {object}  domain.Booking
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid phone"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot taken or already booked"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /booking/phone [post]
func (h *Handlers) SubmitPhone(c *gin.Context) {
	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	booking, err := h.svc.SubmitPhone(c.Request.Context(), userID(c), req.Phone, h.now())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, booking)
}

// AbortBooking godoc
// @ID          abortBooking
// @Summary     Abort the booking flow
// @Description Drops the in-flight conversation without touching committed bookings. Always succeeds.
// @Tags        Booking
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     204  {string}  string "No Content"
// @Router      /booking [delete]
func (h *Handlers) AbortBooking(c *gin.Context) {
	h.svc.AbortBooking(userID(c))
	noContent(c)
}

//
// View handlers
//

// ListTables godoc
// @ID          listTables
// @Summary     List tables
// @Description Returns the restaurant's table catalog ascending by id.
// @Tags        Tables
// @Produce     json
//
// @Success     200  {array}   domain.Table
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /tables [get]
func (h *Handlers) ListTables(c *gin.Context) {
	tables, err := h.svc.Tables(c.Request.Context())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, tables)
}

// ListTableSlots godoc
// @ID          listTableSlots
// @Summary     List a table's free slots
// @Description Returns the slots of the day grid not covered by an active booking.
// @Tags        Tables
// @Produce     json
//
// @Param       id  path  int  true  "Table ID"  example(3)
//
// @Success     200  {object}  handlers.SlotsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid table"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /tables/{id}/slots [get]
func (h *Handlers) ListTableSlots(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "table id must be an integer")
		return
	}

	free, err := h.svc.FreeSlots(c.Request.Context(), tableID, h.now())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, SlotsResponse{TableID: tableID, Slots: slotLabels(free)})
}

// MyBooking godoc
// @ID          myBooking
// @Summary     Get my active booking
// @Description Returns the caller's active booking, or 404 when there is none.
// @Tags        Bookings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  domain.Booking
// @Failure     404  {object}  handlers.ErrorResponse  "No active booking"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bookings/me [get]
func (h *Handlers) MyBooking(c *gin.Context) {
	booking, err := h.svc.MyBooking(c.Request.Context(), userID(c), h.now())
	if err != nil {
		failService(c, err)
		return
	}
	if booking == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no active booking")
		return
	}
	ok(c, http.StatusOK, booking)
}

// ActiveBookings godoc
// @ID          activeBookings
// @Summary     List all active bookings (staff)
// @Description Returns every active booking ascending by reserved time. Requires a privileged user.
// @Tags        Bookings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(admin1)
//
// @Success     200  {array}   domain.Booking
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bookings/active [get]
func (h *Handlers) ActiveBookings(c *gin.Context) {
	bookings, err := h.svc.ActiveBookings(c.Request.Context(), userID(c), h.now())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, bookings)
}

// BookingHistory godoc
// @ID          bookingHistory
// @Summary     List recent bookings (staff)
// @Description Returns recent bookings descending by reserved time, expired ones included. Requires a privileged user.
// @Tags        Bookings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(admin1)
// @Param       limit      query   int     false "Maximum rows"            minimum(1) default(20)
//
// @Success     200  {array}   domain.Booking
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bookings/history [get]
func (h *Handlers) BookingHistory(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0) // 0 lets the service default apply

	bookings, err := h.svc.History(c.Request.Context(), userID(c), limit)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, bookings)
}

// CancelBooking godoc
// @ID          cancelBooking
// @Summary     Cancel a booking
// @Description Deletes a committed booking. Owners cancel their own, staff cancel any; a missing id succeeds.
// @Tags        Bookings
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    int     true  "Booking ID"             example(7)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Forbidden"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /bookings/{id} [delete]
func (h *Handlers) CancelBooking(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "booking id must be a positive integer")
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), userID(c), uint(id)); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
