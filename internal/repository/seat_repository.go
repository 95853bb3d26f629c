package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/cinema-ticketing/internal/model"
)

// SeatRepo encapsulates read access to the seats table.  Seat rows are
// administered by the out-of-scope CRUD surface; this core only reads
// them to resolve availability and price seat sets.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// ListActiveByRoom returns all sellable seats of a room ordered by row
// and number for deterministic output.
func (r *SeatRepo) ListActiveByRoom(ctx context.Context, roomID uint64) ([]model.Seat, error) {
    const q = `SELECT id, room_id, row_label, seat_number, seat_type, is_active, created_at, updated_at
               FROM seats WHERE room_id = ? AND is_active = 1
               ORDER BY row_label, seat_number`
    rows, err := r.db.QueryContext(ctx, q, roomID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    seats := []model.Seat{}
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(&s.ID, &s.RoomID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// GetByIDsTx loads the given seats inside a transaction and reports
// them keyed by ID.  Checkout uses it to price a seat set and to make
// sure every requested seat exists, is active and belongs to the
// showing's room.
func (r *SeatRepo) GetByIDsTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) (map[uint64]model.Seat, error) {
    if len(seatIDs) == 0 {
        return map[uint64]model.Seat{}, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
    query := `SELECT id, room_id, row_label, seat_number, seat_type, is_active, created_at, updated_at
              FROM seats WHERE id IN (` + placeholders + `)`
    args := make([]interface{}, 0, len(seatIDs))
    for _, id := range seatIDs {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64]model.Seat, len(seatIDs))
    for rows.Next() {
        var s model.Seat
        if err := rows.Scan(&s.ID, &s.RoomID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
            return nil, err
        }
        out[s.ID] = s
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
