package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/cinema-ticketing/internal/model"
)

// OrderRepo provides CRUD operations for orders and their line items.
// Orders group together one or more seats (and optional add-on items)
// for a particular showing and holder.  All timestamp fields are
// stored in UTC.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new order within the scope of an existing
// transaction.  The caller supplies the UUID; status should be
// model.OrderPending for fresh orders.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    const q = `INSERT INTO orders (id, holder_id, showing_id, total_cents, status) VALUES (?, ?, ?, ?, ?)`
    _, err := tx.ExecContext(ctx, q, o.ID, o.HolderID, o.ShowingID, o.TotalCents, o.Status)
    return err
}

// CreateSeatsBulkTx inserts multiple order_seats rows in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *OrderRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.OrderSeat) error {
    if len(seats) == 0 {
        return nil
    }
    query := `INSERT INTO order_seats (order_id, showing_id, seat_id, price_cents) VALUES `
    args := make([]interface{}, 0, len(seats)*4)
    for i, s := range seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, s.OrderID, s.ShowingID, s.SeatID, s.PriceCents)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// CreateItemsBulkTx inserts the optional add-on line items of an order.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
    if len(items) == 0 {
        return nil
    }
    query := `INSERT INTO order_items (order_id, combo_id, quantity, price_cents) VALUES `
    args := make([]interface{}, 0, len(items)*4)
    for i, it := range items {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, it.OrderID, it.ComboID, it.Quantity, it.PriceCents)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID loads a single order.  It returns ErrOrderNotFound when the
// ID does not resolve to a row.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
    const q = `SELECT id, holder_id, showing_id, total_cents, status,
                      COALESCE(failure_reason, ''), COALESCE(qr_code, ''), created_at, updated_at
               FROM orders WHERE id = ?`
    var o model.Order
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &o.ID, &o.HolderID, &o.ShowingID, &o.TotalCents, &o.Status,
        &o.FailureReason, &o.QRCode, &o.CreatedAt, &o.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    return &o, nil
}

// SeatsByOrderTx returns the seat line items of an order within a
// transaction.  Settlement iterates these to finalize seats and issue
// tickets.
func (r *OrderRepo) SeatsByOrderTx(ctx context.Context, tx *sql.Tx, orderID string) ([]model.OrderSeat, error) {
    const q = `SELECT order_id, showing_id, seat_id, price_cents FROM order_seats WHERE order_id = ?`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []model.OrderSeat
    for rows.Next() {
        var s model.OrderSeat
        if err := rows.Scan(&s.OrderID, &s.ShowingID, &s.SeatID, &s.PriceCents); err != nil {
            return nil, err
        }
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// MarkPaidTx flips an order from pending to paid.  The WHERE clause
// includes the current status, so only one of several concurrent
// settlement attempts can win; the losers observe zero affected rows
// and receive ErrOrderFinalized.
func (r *OrderRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, orderID string) error {
    const q = `UPDATE orders SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`
    res, err := tx.ExecContext(ctx, q, model.OrderPaid, orderID, model.OrderPending)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrOrderFinalized
    }
    return nil
}

// MarkFailed records a declined or expired payment together with the
// gateway's reason.  Only pending orders can fail; a paid order is
// never demoted.
func (r *OrderRepo) MarkFailed(ctx context.Context, orderID, reason string) error {
    const q = `UPDATE orders SET status = ?, failure_reason = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND status = ?`
    _, err := r.db.ExecContext(ctx, q, model.OrderFailed, reason, orderID, model.OrderPending)
    return err
}

// MarkFailedTx is the transactional variant of MarkFailed.  Settlement
// uses it so the failure transition commits atomically with the hold
// release and the payment result.
func (r *OrderRepo) MarkFailedTx(ctx context.Context, tx *sql.Tx, orderID, reason string) error {
    const q = `UPDATE orders SET status = ?, failure_reason = ?, updated_at = UTC_TIMESTAMP()
               WHERE id = ? AND status = ?`
    _, err := tx.ExecContext(ctx, q, model.OrderFailed, reason, orderID, model.OrderPending)
    return err
}

// MarkCompleted transitions a paid order to completed once settlement
// post-processing (the delivery attempt) has finished.
func (r *OrderRepo) MarkCompleted(ctx context.Context, orderID string) error {
    const q = `UPDATE orders SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`
    _, err := r.db.ExecContext(ctx, q, model.OrderCompleted, orderID, model.OrderPaid)
    return err
}

// SetQRCode stores the generated scannable code on the order.  Called
// after the settlement transaction committed, so a failure here never
// rolls back the financial state.
func (r *OrderRepo) SetQRCode(ctx context.Context, orderID, qr string) error {
    const q = `UPDATE orders SET qr_code = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, qr, orderID)
    return err
}
