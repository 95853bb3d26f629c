package repository

import (
    "context"
    "database/sql"
)

// SeatTypePriceRepo reads the per-seat-type price multipliers.  The
// table is tiny and rarely changes; the pricing cache in front of this
// repository is where the hot path reads from.
type SeatTypePriceRepo struct {
    db *sql.DB
}

// NewSeatTypePriceRepo returns a repo bound to the given database.
func NewSeatTypePriceRepo(db *sql.DB) *SeatTypePriceRepo { return &SeatTypePriceRepo{db: db} }

// MultiplierBP returns the basis-point multiplier for a seat type
// (10000 = base price unchanged).  Unknown seat types fall back to
// 10000 so a missing row never blocks a sale.
func (r *SeatTypePriceRepo) MultiplierBP(ctx context.Context, seatType string) (uint32, error) {
    const q = `SELECT multiplier_bp FROM seat_type_prices WHERE seat_type = ?`
    var bp uint32
    err := r.db.QueryRowContext(ctx, q, seatType).Scan(&bp)
    if err == sql.ErrNoRows {
        return 10000, nil
    }
    if err != nil {
        return 0, err
    }
    return bp, nil
}
