package model

import "time"

// Hold represents a temporary claim on one (seat, showing) pair
// during checkout.  Holds prevent concurrent buyers from grabbing
// the same seat while a customer completes payment.  They expire
// automatically at their expires_at timestamp; expiry is always
// evaluated against the clock, never against whether the sweeper
// has already removed the row.
//
// At most one non-expired Hold may exist per (seat, showing) pair.
//
// Fields:
//  ID        – primary key identifier.
//  ShowingID – showing for which the seat is held.
//  SeatID    – seat being held.
//  HolderID  – user who holds the seat.
//  CreatedAt – when the hold was created.
//  ExpiresAt – when the hold lapses.
type Hold struct {
    ID        uint64    // seat_holds.id
    ShowingID uint64    // seat_holds.showing_id
    SeatID    uint64    // seat_holds.seat_id
    HolderID  uint64    // seat_holds.holder_id
    CreatedAt time.Time // seat_holds.created_at
    ExpiresAt time.Time // seat_holds.expires_at
}

// Expired reports whether the hold has lapsed at the given instant.
func (h Hold) Expired(now time.Time) bool {
    return !h.ExpiresAt.After(now)
}
