package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/cinema-ticketing/internal/model"
)

// ShowingRepo encapsulates database operations for showings.
type ShowingRepo struct {
    db *sql.DB
}

// NewShowingRepo constructs a ShowingRepo given a DB handle.
func NewShowingRepo(db *sql.DB) *ShowingRepo { return &ShowingRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *ShowingRepo) DB() *sql.DB { return r.db }

// GetByID loads a single showing.  It returns ErrShowingNotFound when
// the ID does not resolve to a row.
func (r *ShowingRepo) GetByID(ctx context.Context, id uint64) (*model.Showing, error) {
    const q = `SELECT id, room_id, title, starts_at, ends_at, base_price_cents, status, created_at, updated_at
               FROM showings WHERE id = ?`
    var s model.Showing
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.RoomID, &s.Title, &s.StartsAt, &s.EndsAt,
        &s.BasePriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrShowingNotFound
        }
        return nil, err
    }
    return &s, nil
}
