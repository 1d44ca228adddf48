// Package services – BookingService
//
// This file implements BookingService, the application-level component that
// owns the booking conversation state machine and the conflict-free slot
// allocation rules. It validates each step of the flow (table → slot →
// guest count → phone), resolves availability against the reservation store,
// and commits the booking atomically at the final step.
//
// Concurrency: sessions are per-user and live in the conversation.Store; the
// commit sequence is serialized by a service-level mutex and additionally runs
// inside a transaction whose re-checks are backed by the storage layer's
// unique (table_id, booking_for) index, so two racing commits can never both
// insert.
//
// Observability: public methods are OpenTelemetry-instrumented; booking
// outcomes are counted with Prometheus.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/whitefox-bar/go-booking-backend/internal/conversation"
	"github.com/whitefox-bar/go-booking-backend/internal/domain"
	"github.com/whitefox-bar/go-booking-backend/internal/repo"
	"github.com/whitefox-bar/go-booking-backend/internal/schedule"
)

var (
	bookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of committed bookings.",
	})
	bookingsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_cancelled_total",
		Help: "Total number of cancelled bookings.",
	})
	slotConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_slot_conflicts_total",
		Help: "Total number of commits lost to a concurrent booking.",
	})
)

func init() {
	prometheus.MustRegister(bookingsCreated, bookingsCancelled, slotConflicts)
}

// BookingService coordinates the booking flow, availability queries, and the
// staff views over the reservation store.
type BookingService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Sessions holds the per-user in-flight conversations.
	Sessions *conversation.Store
	// Grid is the day's bookable slot grid.
	Grid schedule.Grid
	// HistoryLimit caps the staff history view; 0 means unlimited.
	HistoryLimit int

	admins map[string]struct{}

	// commitMu serializes commit sequences so the check-then-insert in
	// SubmitPhone is atomic with respect to other commits and cancels.
	commitMu sync.Mutex
}

// NewBookingService constructs a BookingService with the given privileged
// user allowlist.
func NewBookingService(db *gorm.DB, sessions *conversation.Store, grid schedule.Grid, adminIDs []string) *BookingService {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}
	return &BookingService{
		DB:           db,
		Sessions:     sessions,
		Grid:         grid,
		HistoryLimit: 20,
		admins:       admins,
	}
}

// IsAdmin reports whether userID is on the privileged allowlist.
func (s *BookingService) IsAdmin(userID string) bool {
	_, ok := s.admins[userID]
	return ok
}

// Tables returns the seeded table catalog, ascending by id.
func (s *BookingService) Tables(ctx context.Context) ([]domain.Table, error) {
	return repo.ListTables(ctx, s.DB)
}

// FreeSlots returns the table's currently free slots: the full day grid minus
// slots covered by active bookings. A slot whose time of day has already
// passed today is still offered; it rolls to tomorrow at commit time.
func (s *BookingService) FreeSlots(ctx context.Context, tableID int, now time.Time) ([]schedule.Slot, error) {
	ok, err := repo.TableExists(ctx, s.DB, tableID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTable
	}

	busy, err := repo.BusySlots(ctx, s.DB, tableID, now)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(busy))
	for _, ts := range busy {
		taken[ts] = struct{}{}
	}

	all := s.Grid.Slots()
	free := make([]schedule.Slot, 0, len(all))
	for _, slot := range all {
		if _, reserved := taken[slot.String()]; !reserved {
			free = append(free, slot)
		}
	}
	return free, nil
}

// StartBooking opens a booking flow for the user and returns the table
// catalog for the first prompt. A user who already holds an active booking
// gets ErrAlreadyBooked and no session is created.
func (s *BookingService) StartBooking(ctx context.Context, userID, userName string, now time.Time) ([]domain.Table, error) {
	ctx, span := s.startSpan(ctx, "StartBooking", userID)
	defer span.End()

	existing, err := repo.ActiveByUser(ctx, s.DB, userID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyBooked
	}

	tables, err := repo.ListTables(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	s.Sessions.Begin(userID, userName)
	return tables, nil
}

// SelectTable records the chosen table and returns its free slots for the
// next prompt. The table must exist in the catalog.
func (s *BookingService) SelectTable(ctx context.Context, userID string, tableID int, now time.Time) ([]schedule.Slot, error) {
	ctx, span := s.startSpan(ctx, "SelectTable", userID)
	defer span.End()

	sess, ok := s.Sessions.Get(userID)
	if !ok || sess.Step != conversation.StepTable {
		return nil, ErrNoActiveFlow
	}

	free, err := s.FreeSlots(ctx, tableID, now)
	if err != nil {
		return nil, err // ErrInvalidTable keeps the session at table selection
	}

	sess.TableID = tableID
	sess.Step = conversation.StepSlot
	s.Sessions.Put(sess)
	return free, nil
}

// SelectSlot records the chosen time slot. The slot is re-validated against a
// freshly computed free-slot set rather than trusted from the earlier prompt;
// losing that race returns ErrSlotUnavailable and sends the flow back to
// table selection.
func (s *BookingService) SelectSlot(ctx context.Context, userID string, tableID int, slotText string, now time.Time) error {
	ctx, span := s.startSpan(ctx, "SelectSlot", userID)
	defer span.End()

	sess, ok := s.Sessions.Get(userID)
	if !ok || sess.Step != conversation.StepSlot || sess.TableID != tableID {
		return ErrNoActiveFlow
	}

	slot, err := schedule.ParseSlot(slotText)
	if err != nil || !s.Grid.Contains(slot) {
		return ErrInvalidSlot
	}

	free, err := s.FreeSlots(ctx, tableID, now)
	if err != nil {
		return err
	}
	if !containsSlot(free, slot) {
		sess.Step = conversation.StepTable
		sess.TableID = 0
		s.Sessions.Put(sess)
		return ErrSlotUnavailable
	}

	sess.Slot = slot
	sess.Step = conversation.StepGuests
	s.Sessions.Put(sess)
	return nil
}

// SubmitGuestCount parses the raw guest-count text. Input that is not a
// positive integer leaves the flow at the same step for re-entry.
func (s *BookingService) SubmitGuestCount(ctx context.Context, userID, text string) error {
	_, span := s.startSpan(ctx, "SubmitGuestCount", userID)
	defer span.End()

	sess, ok := s.Sessions.Get(userID)
	if !ok || sess.Step != conversation.StepGuests {
		return ErrNoActiveFlow
	}

	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return ErrInvalidGuestCount
	}

	sess.GuestCount = n
	sess.Step = conversation.StepPhone
	s.Sessions.Put(sess)
	return nil
}

// SubmitPhone completes the flow: it validates the phone, resolves the
// absolute booking instant via the rollover rule, and commits the booking
// atomically. On success the session is destroyed. When the slot was taken
// in the meantime the flow steps back to slot selection and ErrSlotTaken is
// returned; when the user acquired an active booking through another channel
// the flow is abandoned with ErrAlreadyBooked.
func (s *BookingService) SubmitPhone(ctx context.Context, userID, phone string, now time.Time) (*domain.Booking, error) {
	ctx, span := s.startSpan(ctx, "SubmitPhone", userID)
	defer span.End()

	sess, ok := s.Sessions.Get(userID)
	if !ok || sess.Step != conversation.StepPhone {
		return nil, ErrNoActiveFlow
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	booking := &domain.Booking{
		UserID:     userID,
		UserName:   sess.UserName,
		TableID:    sess.TableID,
		TimeSlot:   sess.Slot.String(),
		BookingFor: sess.Slot.Next(now),
		Phone:      phone,
		GuestCount: sess.GuestCount,
	}

	err := s.commit(ctx, booking, now)
	switch {
	case errors.Is(err, ErrSlotTaken):
		slotConflicts.Inc()
		sess.Step = conversation.StepSlot
		s.Sessions.Put(sess)
		return nil, err
	case errors.Is(err, ErrAlreadyBooked):
		s.Sessions.End(userID)
		return nil, err
	case err != nil:
		return nil, err
	}

	bookingsCreated.Inc()
	s.Sessions.End(userID)
	span.SetAttributes(attribute.Int("booking.id", int(booking.ID)))
	return booking, nil
}

// commit runs the atomic check-then-insert sequence: under the commit mutex
// and a single transaction it re-checks the table/slot pair and the per-user
// invariant, then inserts. A failed commit leaves no rows behind.
func (s *BookingService) commit(ctx context.Context, b *domain.Booking, now time.Time) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := repo.HasActiveBookingAt(ctx, tx, b.TableID, b.BookingFor)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}

		existing, err := repo.ActiveByUser(ctx, tx, b.UserID, now)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyBooked
		}

		if err := repo.CreateBooking(tx, b); err != nil {
			// The unique (table_id, booking_for) index is the last line of
			// defense against a racing insert.
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
				return ErrSlotTaken
			}
			return err
		}
		return nil
	})
}

// AbortBooking cancels an in-flight conversation without touching the store.
// Aborting when no flow is in progress is a no-op.
func (s *BookingService) AbortBooking(userID string) {
	s.Sessions.End(userID)
}

// MyBooking returns the user's active booking, or nil when there is none.
func (s *BookingService) MyBooking(ctx context.Context, userID string, now time.Time) (*domain.Booking, error) {
	ctx, span := s.startSpan(ctx, "MyBooking", userID)
	defer span.End()
	return repo.ActiveByUser(ctx, s.DB, userID, now)
}

// ActiveBookings returns all active bookings ascending by reserved time.
// Staff only.
func (s *BookingService) ActiveBookings(ctx context.Context, userID string, now time.Time) ([]domain.Booking, error) {
	ctx, span := s.startSpan(ctx, "ActiveBookings", userID)
	defer span.End()

	if !s.IsAdmin(userID) {
		return nil, ErrUnauthorized
	}
	return repo.ActiveAll(ctx, s.DB, now)
}

// History returns recent bookings descending by reserved time, expired ones
// included. Staff only. A non-positive limit falls back to HistoryLimit.
func (s *BookingService) History(ctx context.Context, userID string, limit int) ([]domain.Booking, error) {
	ctx, span := s.startSpan(ctx, "History", userID)
	defer span.End()

	if !s.IsAdmin(userID) {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = s.HistoryLimit
	}
	return repo.History(ctx, s.DB, limit)
}

// Cancel deletes a committed booking. Owners may cancel their own booking,
// privileged users may cancel any. Cancelling an id that no longer exists
// succeeds: two cancel requests racing on the same stale button must both
// come back clean. A non-owner cancelling someone else's live booking gets
// ErrUnauthorized.
func (s *BookingService) Cancel(ctx context.Context, userID string, bookingID uint) error {
	ctx, span := s.startSpan(ctx, "Cancel", userID)
	defer span.End()
	span.SetAttributes(attribute.Int("booking.id", int(bookingID)))

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.IsAdmin(userID) {
		removed, err := repo.DeleteBooking(ctx, s.DB, bookingID)
		if err != nil {
			return err
		}
		if removed {
			bookingsCancelled.Inc()
		}
		return nil
	}

	removed, err := repo.DeleteBookingOwned(ctx, s.DB, bookingID, userID)
	if err != nil {
		return err
	}
	if removed {
		bookingsCancelled.Inc()
		return nil
	}

	// Nothing removed: either the id is gone (idempotent success) or the
	// booking belongs to someone else.
	exists, err := repo.BookingExists(ctx, s.DB, bookingID)
	if err != nil {
		return err
	}
	if exists {
		return ErrUnauthorized
	}
	return nil
}

func (s *BookingService) startSpan(ctx context.Context, op, userID string) (context.Context, trace.Span) {
	tr := otel.Tracer("services/BookingService")
	return tr.Start(ctx, op, trace.WithAttributes(attribute.String("user.id", userID)))
}

func containsSlot(slots []schedule.Slot, want schedule.Slot) bool {
	for _, s := range slots {
		if s == want {
			return true
		}
	}
	return false
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
