package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/cinema-ticketing/internal/model"
)

// TicketRepo provides access to the tickets table.  Tickets are
// created exclusively inside the settlement transaction, one per seat
// line item of a paid order.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateBulkTx inserts the tickets of an order in a single statement.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) error {
    if len(tickets) == 0 {
        return nil
    }
    query := `INSERT INTO tickets (order_id, seat_id, price_cents, code) VALUES `
    args := make([]interface{}, 0, len(tickets)*4)
    for i, t := range tickets {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, t.OrderID, t.SeatID, t.PriceCents, t.Code)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ListByOrder returns an order's tickets ordered by seat ID.
func (r *TicketRepo) ListByOrder(ctx context.Context, orderID string) ([]model.Ticket, error) {
    const q = `SELECT id, order_id, seat_id, price_cents, code, created_at
               FROM tickets WHERE order_id = ? ORDER BY seat_id`
    rows, err := r.db.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tickets := []model.Ticket{}
    for rows.Next() {
        var t model.Ticket
        if err := rows.Scan(&t.ID, &t.OrderID, &t.SeatID, &t.PriceCents, &t.Code, &t.CreatedAt); err != nil {
            return nil, err
        }
        tickets = append(tickets, t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return tickets, nil
}

// CountByOrder reports how many tickets exist for an order.
func (r *TicketRepo) CountByOrder(ctx context.Context, orderID string) (int, error) {
    const q = `SELECT COUNT(*) FROM tickets WHERE order_id = ?`
    var n int
    if err := r.db.QueryRowContext(ctx, q, orderID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}
