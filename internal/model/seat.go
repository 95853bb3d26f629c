package model

import "time"

// Seat describes a physical seat in a room.  Seats are
// uniquely identified by their room, row label and seat number.
// The seat_type indicates whether the seat is standard, VIP or
// accessible for disabled patrons.  Bookability of a seat is
// always evaluated in the context of a showing, never on the
// seat row alone.
//
// Fields:
//  ID         – primary key identifier.
//  RoomID     – room to which this seat belongs.
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  SeatType   – type of seat (STANDARD, VIP, ACCESSIBLE).
//  IsActive   – whether the seat is sellable at all.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
    ID         uint64    // seats.id
    RoomID     uint64    // seats.room_id
    RowLabel   string    // seats.row_label
    SeatNumber uint32    // seats.seat_number
    SeatType   string    // seats.seat_type
    IsActive   bool      // seats.is_active
    CreatedAt  time.Time // seats.created_at
    UpdatedAt  time.Time // seats.updated_at
}
