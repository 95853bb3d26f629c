package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/cinema-ticketing/internal/model"
)

// UserRepo provides the minimal user access this core needs: loading a
// contact address for ticket delivery and accruing loyalty points on
// settlement.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID loads a user.  Returns ErrUserNotFound when the ID does not
// resolve to a row.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    const q = `SELECT id, email, points, created_at, updated_at FROM users WHERE id = ?`
    var u model.User
    err := r.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Email, &u.Points, &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrUserNotFound
        }
        return nil, err
    }
    return &u, nil
}

// AddPointsTx increments a user's loyalty balance inside the settlement
// transaction so the accrual commits or rolls back with the payment.
func (r *UserRepo) AddPointsTx(ctx context.Context, tx *sql.Tx, userID uint64, points uint32) error {
    const q = `UPDATE users SET points = points + ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, points, userID)
    return err
}
