// Package conversation holds the in-memory state of in-flight booking flows.
//
// A Session accumulates the fields a user has supplied so far (table, slot,
// guest count) together with the step the flow is waiting on. Sessions are
// ephemeral by design: they live only in process memory, so a restart drops
// in-flight conversations without touching committed bookings.
//
// The Store is the single shared map of sessions, keyed by user id and
// guarded by a mutex. Callers get and put value copies, so no session state
// is ever shared across goroutines. Abandoned sessions expire after an
// inactivity window; the janitor sweep makes expiry eventual even for users
// who never come back.
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/whitefox-bar/go-booking-backend/internal/schedule"
)

// Step identifies the input a booking flow is waiting on.
type Step int

const (
	// StepTable waits for the user to choose a table.
	StepTable Step = iota + 1
	// StepSlot waits for the user to choose a time slot.
	StepSlot
	// StepGuests waits for the party size.
	StepGuests
	// StepPhone waits for the contact phone; submitting it commits the booking.
	StepPhone
)

// String returns a stable name for logging and error messages.
func (s Step) String() string {
	switch s {
	case StepTable:
		return "awaiting_table"
	case StepSlot:
		return "awaiting_slot"
	case StepGuests:
		return "awaiting_guest_count"
	case StepPhone:
		return "awaiting_phone"
	default:
		return "unknown"
	}
}

// Session is the partially collected booking of one user.
type Session struct {
	UserID   string
	UserName string
	Step     Step

	TableID    int
	Slot       schedule.Slot
	GuestCount int

	// UpdatedAt is bumped on every Put and drives inactivity expiry.
	UpdatedAt time.Time
}

// Store keeps at most one session per user with inactivity-based expiry.
// It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
}

// NewStore creates a session store. Sessions idle longer than ttl are treated
// as abandoned; a ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]Session),
		ttl:      ttl,
	}
}

// Begin creates (or restarts) the user's session at the table-selection step
// and returns a copy of it.
func (st *Store) Begin(userID, userName string) Session {
	s := Session{
		UserID:    userID,
		UserName:  userName,
		Step:      StepTable,
		UpdatedAt: time.Now(),
	}
	st.mu.Lock()
	st.sessions[userID] = s
	st.mu.Unlock()
	return s
}

// Get returns a copy of the user's session. An expired session is removed
// on access and reported as missing.
func (st *Store) Get(userID string) (Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if st.expired(s, time.Now()) {
		delete(st.sessions, userID)
		return Session{}, false
	}
	return s, true
}

// Put stores the session under its user id, refreshing the inactivity clock.
func (st *Store) Put(s Session) {
	s.UpdatedAt = time.Now()
	st.mu.Lock()
	st.sessions[s.UserID] = s
	st.mu.Unlock()
}

// End destroys the user's session, if any. Ending a missing session is a no-op.
func (st *Store) End(userID string) {
	st.mu.Lock()
	delete(st.sessions, userID)
	st.mu.Unlock()
}

// Len returns the number of live sessions, counting expired ones not yet swept.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes every expired session and returns how many were dropped.
func (st *Store) Sweep() int {
	now := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()

	dropped := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			dropped++
		}
	}
	return dropped
}

// StartJanitor sweeps expired sessions every interval until ctx is cancelled.
// It runs in its own goroutine and returns immediately.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || st.ttl <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st.Sweep()
			}
		}
	}()
}

func (st *Store) expired(s Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(s.UpdatedAt) >= st.ttl
}
