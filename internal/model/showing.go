package model

import "time"

// Showing represents a scheduled screening of a movie in a particular
// room.  It contains information about the movie title, start and
// end times, base pricing and status.  A seat's effective state
// (Available/Held/Booked) always refers to exactly one showing.
//
// Fields:
//  ID             – primary key identifier.
//  RoomID         – room where the screening takes place.
//  Title          – movie title or an external reference.
//  StartsAt       – when the screening begins.
//  EndsAt         – when the screening ends (must be after StartsAt).
//  BasePriceCents – default price in cents before the seat-type
//                   multiplier is applied.
//  Status         – current state of the showing (ACTIVE, CANCELLED).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Showing struct {
    ID             uint64    // showings.id
    RoomID         uint64    // showings.room_id
    Title          string    // showings.title
    StartsAt       time.Time // showings.starts_at
    EndsAt         time.Time // showings.ends_at
    BasePriceCents uint32    // showings.base_price_cents
    Status         string    // showings.status
    CreatedAt      time.Time // showings.created_at
    UpdatedAt      time.Time // showings.updated_at
}
