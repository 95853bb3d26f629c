package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/cinema-ticketing/internal/model"
)

// PaymentRepo provides access to the payments table, one row per
// (order, gateway) pairing carrying the external reference and the raw
// provider response for auditing.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a pending payment record at checkout time.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
    const q = `INSERT INTO payments (order_id, gateway, gateway_ref, amount_cents, status, response_data)
               VALUES (?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, p.OrderID, p.Gateway, p.GatewayRef, p.AmountCents, p.Status, p.ResponseData)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}

// GetByOrderAndGateway loads the payment record for an order and
// gateway.  Returns ErrPaymentNotFound when no such record exists.
func (r *PaymentRepo) GetByOrderAndGateway(ctx context.Context, orderID, gateway string) (*model.Payment, error) {
    const q = `SELECT id, order_id, gateway, gateway_ref, amount_cents, status,
                      COALESCE(response_data, ''), created_at, updated_at
               FROM payments WHERE order_id = ? AND gateway = ?`
    var p model.Payment
    err := r.db.QueryRowContext(ctx, q, orderID, gateway).Scan(
        &p.ID, &p.OrderID, &p.Gateway, &p.GatewayRef, &p.AmountCents,
        &p.Status, &p.ResponseData, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrPaymentNotFound
        }
        return nil, err
    }
    return &p, nil
}

// MarkResultTx records the gateway's verified outcome on the payment
// row inside the settlement transaction, preserving the raw response.
func (r *PaymentRepo) MarkResultTx(ctx context.Context, tx *sql.Tx, paymentID uint64, status, responseData string) error {
    const q = `UPDATE payments SET status = ?, response_data = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, status, responseData, paymentID)
    return err
}
