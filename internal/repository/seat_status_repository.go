package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"
)

// SeatStatusRecord mirrors the seat_statuses table: the permanent
// record that a (seat, showing) pair has been sold.
type SeatStatusRecord struct {
    ID        uint64
    ShowingID uint64
    SeatID    uint64
    HolderID  uint64
    CreatedAt time.Time
}

// SeatStatusRepo provides access to finalized seat state.  Rows are
// written exclusively by settlement; everything else only reads.
type SeatStatusRepo struct {
    db *sql.DB
}

// NewSeatStatusRepo returns a new SeatStatusRepo bound to the provided database.
func NewSeatStatusRepo(db *sql.DB) *SeatStatusRepo { return &SeatStatusRepo{db: db} }

// BookedSubsetTx returns which of the given seats are already booked
// for the showing.  Reserve attempts reject immediately when the
// result is non-empty; settlement uses it as a safety net before
// inserting its own rows.
func (r *SeatStatusRepo) BookedSubsetTx(ctx context.Context, tx *sql.Tx, showingID uint64, seatIDs []uint64) ([]uint64, error) {
    if len(seatIDs) == 0 {
        return []uint64{}, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
    query := `SELECT seat_id FROM seat_statuses
              WHERE showing_id = ? AND seat_id IN (` + placeholders + `)`
    args := make([]interface{}, 0, len(seatIDs)+1)
    args = append(args, showingID)
    for _, id := range seatIDs {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    booked := []uint64{}
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        booked = append(booked, sid)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return booked, nil
}

// CreateMultipleTx inserts a finalized-state row per seat inside the
// settlement transaction.  The UNIQUE(showing_id, seat_id) key makes a
// concurrent double-finalization fail the whole transaction, which is
// exactly the safety net settlement relies on.
func (r *SeatStatusRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, showingID uint64, seatIDs []uint64, holderID uint64) error {
    if len(seatIDs) == 0 {
        return nil
    }
    query := `INSERT INTO seat_statuses (showing_id, seat_id, holder_id) VALUES `
    args := make([]interface{}, 0, len(seatIDs)*3)
    for i, sid := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, showingID, sid, holderID)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// BookedSeatIDs returns all booked seat IDs for a showing, outside any
// transaction.  The availability resolver combines this with active
// holds to compute effective seat state.
func (r *SeatStatusRepo) BookedSeatIDs(ctx context.Context, showingID uint64) ([]uint64, error) {
    const q = `SELECT seat_id FROM seat_statuses WHERE showing_id = ?`
    rows, err := r.db.QueryContext(ctx, q, showingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    booked := []uint64{}
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        booked = append(booked, sid)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return booked, nil
}
