// Package domain defines the persistence models for tables and bookings.
// These types are mapped with GORM and form the core data layer of the
// reservation backend.
package domain

import "time"

// Table represents a physical restaurant table. Tables are seeded once at
// startup with a fixed contiguous id range and never change afterwards.
type Table struct {
	ID int `json:"id" gorm:"primaryKey"`
}

// TableName returns the database table name for Table.
func (Table) TableName() string { return "tables" }

// Booking represents a confirmed reservation of one table for one slot.
//
// Fields:
//   - ID: auto-incrementing primary key assigned by the store; never reused.
//   - UserID: identity of the requesting user; indexed for "my booking" lookups.
//   - UserName: display name snapshotted at booking time, not looked up live.
//   - TableID: the reserved table (FK into tables).
//   - TimeSlot: the chosen time of day on the grid, "HH:MM".
//   - BookingFor: absolute instant of the reservation, the next future
//     occurrence of TimeSlot at commit time. A booking is active while
//     BookingFor is strictly in the future.
//   - Phone: contact number, required, format not validated.
//   - GuestCount: party size, at least 1.
//   - CreatedAt: timestamp of creation.
//
// The unique index on (table_id, booking_for) enforces the conflict-freedom
// invariant at the storage layer: two bookings can never reserve the same
// table for the same instant, even across process crashes. Bookings are
// immutable after creation and are hard-deleted on cancellation.
type Booking struct {
	ID         uint      `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserID     string    `json:"user_id"     gorm:"type:varchar(64);not null;index:idx_user_bookings"`
	UserName   string    `json:"user_name"   gorm:"type:varchar(255);not null"`
	TableID    int       `json:"table_id"    gorm:"not null;uniqueIndex:ux_booking_table_slot,priority:1"`
	TimeSlot   string    `json:"time_slot"   gorm:"type:varchar(5);not null"`
	BookingFor time.Time `json:"booking_for" gorm:"not null;index;uniqueIndex:ux_booking_table_slot,priority:2"`
	Phone      string    `json:"phone"       gorm:"type:varchar(32);not null"`
	GuestCount int       `json:"guest_count" gorm:"not null;check:guest_count >= 1"`
	CreatedAt  time.Time `json:"created_at"`

	// Table is the reserved table. Bookings are cascade-deleted if the
	// table is ever removed from the catalog.
	Table Table `json:"-" gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Booking.
func (Booking) TableName() string { return "bookings" }

// ActiveAt reports whether the booking is active at the given instant,
// i.e. its reserved time is still strictly in the future.
func (b Booking) ActiveAt(now time.Time) bool {
	return b.BookingFor.After(now)
}
