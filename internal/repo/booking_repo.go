// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Booking
// model and the table catalog.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Conflict detection and the atomic
// commit sequence live in the service layer, which runs these functions
// inside a single transaction.
//
// Error semantics:
//   - "Not found" is not an error for lookups with an optional result
//     (ActiveByUser returns nil, nil when the user has no active booking).
//   - Deletes report whether a row was removed and never fail on absent ids.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/whitefox-bar/go-booking-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListTables returns all seeded tables ordered by ascending id.
func ListTables(ctx context.Context, db *gorm.DB) ([]domain.Table, error) {
	var out []domain.Table
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// TableExists reports whether a table with the given id is in the catalog.
func TableExists(ctx context.Context, db *gorm.DB, tableID int) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Table{}).
		Where("id = ?", tableID).
		Count(&n).Error
	return n > 0, err
}

// CreateBooking inserts a new booking row. CreatedAt is set to UTC when the
// caller leaves it zero. The assigned id is written back into b.
func CreateBooking(db *gorm.DB, b *domain.Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return db.Create(b).Error
}

// DeleteBooking removes a booking by id. It returns true when a row was
// removed and false when the id was absent; an absent id is not an error.
func DeleteBooking(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	res := db.WithContext(ctx).Delete(&domain.Booking{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteBookingOwned removes a booking by id only when it belongs to userID.
// It returns true when a row was removed.
func DeleteBookingOwned(ctx context.Context, db *gorm.DB, id uint, userID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Booking{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// BookingExists reports whether a booking row with the given id exists,
// regardless of owner or active state.
func BookingExists(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ?", id).
		Count(&n).Error
	return n > 0, err
}

// ActiveByUser returns the user's active booking (booking_for strictly in the
// future relative to now), or nil when there is none. The per-user invariant
// guarantees at most one row; the earliest is taken defensively.
func ActiveByUser(ctx context.Context, db *gorm.DB, userID string, now time.Time) (*domain.Booking, error) {
	var b domain.Booking
	err := db.WithContext(ctx).
		Where("user_id = ? AND booking_for > ?", userID, now).
		Order("booking_for asc").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ActiveAll returns every active booking ordered by ascending booking_for.
func ActiveAll(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := db.WithContext(ctx).
		Where("booking_for > ?", now).
		Order("booking_for asc").
		Find(&out).Error
	return out, err
}

// History returns the most recent bookings ordered by descending booking_for,
// active and expired alike, capped at limit.
func History(ctx context.Context, db *gorm.DB, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	q := db.WithContext(ctx).Order("booking_for desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// HasActiveBookingAt reports whether an active booking already reserves the
// given table at the given instant. Used as the conflict guard inside the
// commit transaction.
func HasActiveBookingAt(ctx context.Context, db *gorm.DB, tableID int, bookingFor time.Time) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("table_id = ? AND booking_for = ?", tableID, bookingFor).
		Count(&n).Error
	return n > 0, err
}

// BusySlots returns the time-of-day values ("HH:MM") reserved by active
// bookings on the given table. Expired bookings do not block a slot.
func BusySlots(ctx context.Context, db *gorm.DB, tableID int, now time.Time) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("table_id = ? AND booking_for > ?", tableID, now).
		Pluck("time_slot", &out).Error
	return out, err
}
