// Package reservation contains the mutual-exclusion core of the
// ticketing service: acquiring, renewing and releasing time-bounded
// seat holds, resolving effective seat availability, and sweeping
// expired holds.  The durable seat_holds table is the only place
// exclusion is enforced; the deployment may run several server
// processes, so an in-memory map would not do.
package reservation

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/cinema-ticketing/internal/broadcast"
    "github.com/iliyamo/cinema-ticketing/internal/repository"
)

// HoldTTL is how long a hold shields a seat while checkout proceeds.
// Renewal is implicit: re-reserving seats the same holder already has
// replaces their holds with fresh ones carrying a new deadline.
const HoldTTL = 5 * time.Minute

// Publisher pushes seat events to the watchers of a showing.  The
// broadcast hub satisfies it; tests substitute a recorder.
type Publisher interface {
    Publish(ev broadcast.Event)
}

// ReserveResult reports the outcome of a reserve attempt.  When
// Granted is false, Conflicts carries the seats that were held by
// someone else or already booked; nothing was written in that case,
// because reservation is all-or-nothing across the requested set.
type ReserveResult struct {
    Granted   bool
    Conflicts []uint64
    ExpiresAt time.Time
}

// Manager is the reservation manager.  All mutation of hold state for
// a (seat, showing) pair goes through it or through settlement; no
// other component writes seat_holds.
type Manager struct {
    db     *sql.DB
    holds  *repository.HoldRepo
    states *repository.SeatStatusRepo
    pub    Publisher
    ttl    time.Duration
}

// NewManager wires the manager.  A nil publisher disables broadcasting
// (useful in tests); everything else must be non-nil.
func NewManager(db *sql.DB, holds *repository.HoldRepo, states *repository.SeatStatusRepo, pub Publisher) *Manager {
    if db == nil || holds == nil || states == nil {
        panic("nil dependency passed to reservation.NewManager")
    }
    return &Manager{db: db, holds: holds, states: states, pub: pub, ttl: HoldTTL}
}

// Reserve attempts to acquire holds on the given seat set for the
// holder.  Within a single transaction it rejects if any seat is
// booked, rejects with the conflicting subset if any seat carries a
// live foreign hold, and otherwise replaces the holder's own holds on
// those seats with fresh ones expiring at now+TTL.  On success a
// seats.held event is broadcast to the showing's topic.
func (m *Manager) Reserve(ctx context.Context, showingID uint64, seatIDs []uint64, holderID uint64) (*ReserveResult, error) {
    if len(seatIDs) == 0 {
        return &ReserveResult{Granted: false, Conflicts: []uint64{}}, nil
    }
    tx, err := m.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    booked, err := m.states.BookedSubsetTx(ctx, tx, showingID, seatIDs)
    if err != nil {
        return nil, err
    }
    foreign, err := m.holds.ForeignActiveTx(ctx, tx, showingID, seatIDs, holderID)
    if err != nil {
        return nil, err
    }
    if len(booked) > 0 || len(foreign) > 0 {
        return &ReserveResult{Granted: false, Conflicts: mergeSeatIDs(booked, foreign)}, nil
    }

    // Replace the holder's own holds so a re-reserve extends the TTL.
    if _, err := m.holds.DeleteByHolderSeatsTx(ctx, tx, showingID, seatIDs, holderID); err != nil {
        return nil, err
    }
    expiresAt := time.Now().UTC().Add(m.ttl)
    records := make([]repository.HoldRecord, 0, len(seatIDs))
    for _, sid := range seatIDs {
        records = append(records, repository.HoldRecord{
            ShowingID: showingID,
            SeatID:    sid,
            HolderID:  holderID,
            ExpiresAt: expiresAt,
        })
    }
    if err := m.holds.CreateMultipleTx(ctx, tx, records); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    if m.pub != nil {
        m.pub.Publish(broadcast.Event{
            Type:      broadcast.EventSeatsHeld,
            ShowingID: showingID,
            SeatIDs:   seatIDs,
            HolderID:  holderID,
        })
    }
    return &ReserveResult{Granted: true, Conflicts: []uint64{}, ExpiresAt: expiresAt}, nil
}

// Release drops the holder's holds on the given seats and broadcasts
// seats.released for whatever was actually removed.  Releasing a seat
// the holder does not hold is a no-op, not an error.
func (m *Manager) Release(ctx context.Context, showingID uint64, seatIDs []uint64, holderID uint64) ([]uint64, error) {
    if len(seatIDs) == 0 {
        return []uint64{}, nil
    }
    tx, err := m.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    released, err := m.holds.DeleteByHolderSeatsTx(ctx, tx, showingID, seatIDs, holderID)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    if len(released) > 0 && m.pub != nil {
        m.pub.Publish(broadcast.Event{
            Type:      broadcast.EventSeatsReleased,
            ShowingID: showingID,
            SeatIDs:   released,
        })
    }
    return released, nil
}

// ReleaseAll drops every hold the holder has on the showing.  Used by
// the bodyless release endpoint and safe to call when nothing is held.
func (m *Manager) ReleaseAll(ctx context.Context, showingID uint64, holderID uint64) ([]uint64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	released, err := m.holds.DeleteByHolderTx(ctx, tx, showingID, holderID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if len(released) > 0 && m.pub != nil {
		m.pub.Publish(broadcast.Event{
			Type:      broadcast.EventSeatsReleased,
			ShowingID: showingID,
			SeatIDs:   released,
		})
	}
	return released, nil
}

// mergeSeatIDs unions two seat ID slices preserving first-seen order.
func mergeSeatIDs(a, b []uint64) []uint64 {
    out := make([]uint64, 0, len(a)+len(b))
    seen := make(map[uint64]struct{}, len(a)+len(b))
    for _, list := range [][]uint64{a, b} {
        for _, id := range list {
            if _, ok := seen[id]; ok {
                continue
            }
            seen[id] = struct{}{}
            out = append(out, id)
        }
    }
    return out
}
