package model

import "time"

// Ticket is one entry credential per seat line item of a paid order.
// Tickets exist only after the order reached paid and their code is
// immutable afterwards; the entry-scanning flow that consumes the
// code lives outside this service.
type Ticket struct {
    ID         uint64    // tickets.id
    OrderID    string    // tickets.order_id
    SeatID     uint64    // tickets.seat_id
    PriceCents uint32    // tickets.price_cents
    Code       string    // tickets.code (opaque, embedded in the order QR)
    CreatedAt  time.Time // tickets.created_at
}
