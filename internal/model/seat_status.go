package model

import "time"

// SeatState enumerates the effective state of a seat for a showing as
// reported by the availability resolver.  Booked always wins over Held.
type SeatState string

const (
    SeatAvailable SeatState = "AVAILABLE"
    SeatHeld      SeatState = "HELD"
    SeatBooked    SeatState = "BOOKED"
)

// SeatStatus is the durable record that a (seat, showing) pair is
// permanently booked, tied to the holder who completed payment.  Rows
// are created only by settlement, inside the same transaction that
// marks the order paid, and are never deleted under normal operation.
type SeatStatus struct {
    ID        uint64    // seat_statuses.id
    ShowingID uint64    // seat_statuses.showing_id
    SeatID    uint64    // seat_statuses.seat_id
    HolderID  uint64    // seat_statuses.holder_id
    CreatedAt time.Time // seat_statuses.created_at
}
