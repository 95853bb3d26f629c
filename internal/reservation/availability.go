package reservation

import (
    "context"

    "github.com/iliyamo/cinema-ticketing/internal/model"
    "github.com/iliyamo/cinema-ticketing/internal/repository"
)

// SeatAvailability is one seat of a showing with its effective state.
type SeatAvailability struct {
    SeatID     uint64          `json:"seat_id"`
    RowLabel   string          `json:"row_label"`
    SeatNumber uint32          `json:"seat_number"`
    SeatType   string          `json:"seat_type"`
    State      model.SeatState `json:"state"`
}

// Resolver computes each seat's effective state for a showing by
// combining finalized bookings with non-expired holds.  It is a pure
// read: expiry is evaluated against the clock inside the hold query,
// never by trusting that the sweeper has already run.
type Resolver struct {
    showings *repository.ShowingRepo
    seats    *repository.SeatRepo
    holds    *repository.HoldRepo
    states   *repository.SeatStatusRepo
}

// NewResolver wires the resolver with its read-side repositories.
func NewResolver(showings *repository.ShowingRepo, seats *repository.SeatRepo, holds *repository.HoldRepo, states *repository.SeatStatusRepo) *Resolver {
    if showings == nil || seats == nil || holds == nil || states == nil {
        panic("nil repository passed to reservation.NewResolver")
    }
    return &Resolver{showings: showings, seats: seats, holds: holds, states: states}
}

// Resolve returns the seat map of a showing.  Booked wins over Held:
// a seat that is finalized never reports as merely held even when a
// stale hold row still exists for it.
func (r *Resolver) Resolve(ctx context.Context, showingID uint64) ([]SeatAvailability, error) {
    showing, err := r.showings.GetByID(ctx, showingID)
    if err != nil {
        return nil, err
    }
    seats, err := r.seats.ListActiveByRoom(ctx, showing.RoomID)
    if err != nil {
        return nil, err
    }
    bookedIDs, err := r.states.BookedSeatIDs(ctx, showingID)
    if err != nil {
        return nil, err
    }
    heldIDs, err := r.holds.ActiveSeatIDs(ctx, showingID)
    if err != nil {
        return nil, err
    }
    booked := make(map[uint64]struct{}, len(bookedIDs))
    for _, id := range bookedIDs {
        booked[id] = struct{}{}
    }
    held := make(map[uint64]struct{}, len(heldIDs))
    for _, id := range heldIDs {
        held[id] = struct{}{}
    }
    out := make([]SeatAvailability, 0, len(seats))
    for _, s := range seats {
        state := model.SeatAvailable
        if _, ok := booked[s.ID]; ok {
            state = model.SeatBooked
        } else if _, ok := held[s.ID]; ok {
            state = model.SeatHeld
        }
        out = append(out, SeatAvailability{
            SeatID:     s.ID,
            RowLabel:   s.RowLabel,
            SeatNumber: s.SeatNumber,
            SeatType:   s.SeatType,
            State:      state,
        })
    }
    return out, nil
}
