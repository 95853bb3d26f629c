package model

import "time"

// Order lifecycle states.  The only legal transitions are
// pending→paid→completed and pending→failed; an order reaches paid at
// most once regardless of how many times a gateway redelivers its
// callback.
const (
    OrderPending   = "pending"
    OrderPaid      = "paid"
    OrderCompleted = "completed"
    OrderFailed    = "failed"
)

// Order aggregates one showing, a requester, a monetary total and a
// list of seat and add-on line items.  Orders carry UUID identifiers
// so the reference embedded in gateway transaction refs cannot be
// guessed from a sequence.
type Order struct {
    ID            string    // orders.id (UUIDv4)
    HolderID      uint64    // orders.holder_id
    ShowingID     uint64    // orders.showing_id
    TotalCents    uint32    // orders.total_cents
    Status        string    // orders.status
    FailureReason string    // orders.failure_reason
    QRCode        string    // orders.qr_code (base64 PNG, set after settlement)
    CreatedAt     time.Time // orders.created_at
    UpdatedAt     time.Time // orders.updated_at
}

// OrderSeat is one seat line item of an order with the price captured
// at checkout time.
type OrderSeat struct {
    OrderID    string // order_seats.order_id
    ShowingID  uint64 // order_seats.showing_id
    SeatID     uint64 // order_seats.seat_id
    PriceCents uint32 // order_seats.price_cents
}

// OrderItem is an optional add-on line item (combo, snack bundle).
type OrderItem struct {
    OrderID    string // order_items.order_id
    ComboID    uint64 // order_items.combo_id
    Quantity   uint32 // order_items.quantity
    PriceCents uint32 // order_items.price_cents
}
