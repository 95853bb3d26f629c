// Package queue defines the message payloads exchanged over the broker
// and the background worker that consumes them.
package queue

import "time"

// QueueTicketIssued is the durable queue carrying delivery jobs from
// settlement to the delivery worker.
const QueueTicketIssued = "ticket.issued"

// TicketCode is one issued credential inside a delivery job.
type TicketCode struct {
	SeatID uint64 `json:"seat_id"`
	Code   string `json:"code"`
}

// TicketIssuedEvent is published once per paid order, after the
// settlement transaction committed.  Broker delivery is at-least-once,
// so the consumer must tolerate seeing the same order twice.
type TicketIssuedEvent struct {
	OrderID    string       `json:"order_id"`
	HolderID   uint64       `json:"holder_id"`
	Email      string       `json:"email"`
	ShowingID  uint64       `json:"showing_id"`
	TotalCents uint32       `json:"total_cents"`
	Tickets    []TicketCode `json:"tickets"`
	QRCode     string       `json:"qr_code,omitempty"`
	IssuedAt   time.Time    `json:"issued_at"`
}
