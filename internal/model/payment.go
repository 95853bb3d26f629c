package model

import "time"

// Payment statuses mirror but are logically separate from order
// statuses; an order could in principle be attempted through more
// than one gateway session.
const (
    PaymentPending = "PENDING"
    PaymentSuccess = "SUCCESS"
    PaymentFailed  = "FAILED"
)

// Payment is one row per (order, gateway) pairing holding the external
// transaction reference, the amount in base currency units and the raw
// gateway response for auditing.
type Payment struct {
    ID           uint64    // payments.id
    OrderID      string    // payments.order_id
    Gateway      string    // payments.gateway ("vnpay", "momo")
    GatewayRef   string    // payments.gateway_ref (provider transaction ref)
    AmountCents  uint32    // payments.amount_cents
    Status       string    // payments.status
    ResponseData string    // payments.response_data (raw JSON from provider)
    CreatedAt    time.Time // payments.created_at
    UpdatedAt    time.Time // payments.updated_at
}
