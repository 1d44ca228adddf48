// Package schedule models the restaurant's bookable time grid. A Slot is a
// time-of-day value on a fixed half-hour grid; it is not bound to a calendar
// date until combined with the rollover rule in Slot.Next. The Grid enumerates
// every bookable slot between opening and closing time.
package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Slot is a time-of-day value ("HH:MM") on the booking grid.
type Slot struct {
	hour   int
	minute int
}

// NewSlot constructs a Slot from an hour and minute of day.
// It returns an error when the values do not form a valid time of day.
func NewSlot(hour, minute int) (Slot, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Slot{}, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return Slot{hour: hour, minute: minute}, nil
}

// ParseSlot parses a "15:04" formatted time-of-day string.
func ParseSlot(s string) (Slot, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Slot{}, fmt.Errorf("parse slot %q: %w", s, err)
	}
	return Slot{hour: t.Hour(), minute: t.Minute()}, nil
}

// String renders the slot as "15:04". This is also the persisted form.
func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.hour, s.minute)
}

// Minutes returns the slot as minutes since midnight.
func (s Slot) Minutes() int { return s.hour*60 + s.minute }

// At returns the absolute instant of the slot on the calendar day of t,
// in t's location.
func (s Slot) At(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), s.hour, s.minute, 0, 0, t.Location())
}

// Next returns the next occurrence of the slot's time of day that is strictly
// after now: today when the time has not passed yet, otherwise tomorrow.
func (s Slot) Next(now time.Time) time.Time {
	at := s.At(now)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Grid describes the operating window and slot spacing of a single day.
// The zero value is not usable; construct grids with NewGrid.
type Grid struct {
	open  Slot
	close Slot
	step  time.Duration
}

// NewGrid builds a Grid from "15:04" open/close strings and a step duration.
// Close is inclusive: a 12:00–23:00 grid with a 30m step yields 23 slots.
func NewGrid(open, close string, step time.Duration) (Grid, error) {
	o, err := ParseSlot(open)
	if err != nil {
		return Grid{}, err
	}
	c, err := ParseSlot(close)
	if err != nil {
		return Grid{}, err
	}
	if step < time.Minute || step%time.Minute != 0 {
		return Grid{}, fmt.Errorf("slot step must be a whole number of minutes, got %s", step)
	}
	if c.Minutes() < o.Minutes() {
		return Grid{}, fmt.Errorf("closing time %s precedes opening time %s", c, o)
	}
	return Grid{open: o, close: c, step: step}, nil
}

// Slots enumerates every grid point from open to close inclusive, ascending.
// The result is deterministic and derived purely from configuration.
func (g Grid) Slots() []Slot {
	stepMin := int(g.step / time.Minute)
	out := make([]Slot, 0, (g.close.Minutes()-g.open.Minutes())/stepMin+1)
	for m := g.open.Minutes(); m <= g.close.Minutes(); m += stepMin {
		out = append(out, Slot{hour: m / 60, minute: m % 60})
	}
	return out
}

// Contains reports whether s lies on the grid within the operating window.
func (g Grid) Contains(s Slot) bool {
	m := s.Minutes()
	if m < g.open.Minutes() || m > g.close.Minutes() {
		return false
	}
	return (m-g.open.Minutes())%int(g.step/time.Minute) == 0
}

// SortSlots orders slots ascending by time of day, in place.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Minutes() < slots[j].Minutes() })
}
