// Package settlement turns verified gateway callbacks into order
// state.  It owns the pending→paid→completed and pending→failed
// transitions and guarantees that the financial side effects of an
// order (seat finalization, tickets, loyalty points) happen exactly
// once no matter how many times a gateway redelivers its callback.
package settlement

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/cinema-ticketing/internal/broadcast"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/reservation"
)

// LoyaltyPoints is the flat accrual per settled order.
const LoyaltyPoints = 3

// DeliveryPublisher hands finished orders to the delivery worker.  The
// AMQP publisher satisfies it; tests substitute a recorder.
type DeliveryPublisher interface {
	PublishTicketIssued(ctx context.Context, ev queue.TicketIssuedEvent) error
}

// Result reports what a settlement attempt did.  Duplicate means the
// order was already finalized before this attempt and nothing was
// written; the caller still acks the gateway with success so it stops
// redelivering.
type Result struct {
	Duplicate bool
	Settled   bool
	Failed    bool
	Order     *model.Order
}

// Orchestrator coordinates the settlement transaction and its
// post-commit side effects.
type Orchestrator struct {
	db       *sql.DB
	orders   *repository.OrderRepo
	payments *repository.PaymentRepo
	holds    *repository.HoldRepo
	states   *repository.SeatStatusRepo
	tickets  *repository.TicketRepo
	users    *repository.UserRepo
	pub      reservation.Publisher
	delivery DeliveryPublisher
}

// NewOrchestrator wires the orchestrator.  pub and delivery may be nil,
// which disables broadcasting and delivery respectively; the database
// side must be fully wired.
func NewOrchestrator(
	db *sql.DB,
	orders *repository.OrderRepo,
	payments *repository.PaymentRepo,
	holds *repository.HoldRepo,
	states *repository.SeatStatusRepo,
	tickets *repository.TicketRepo,
	users *repository.UserRepo,
	pub reservation.Publisher,
	delivery DeliveryPublisher,
) *Orchestrator {
	if db == nil || orders == nil || payments == nil || holds == nil || states == nil || tickets == nil || users == nil {
		panic("nil dependency passed to settlement.NewOrchestrator")
	}
	return &Orchestrator{
		db: db, orders: orders, payments: payments, holds: holds,
		states: states, tickets: tickets, users: users, pub: pub, delivery: delivery,
	}
}

// Settle applies a signature-verified callback from the named gateway.
// Callers must have checked cb.Valid already; an unverified callback
// passed here is a programming error.
//
// A failure outcome marks the order failed, records the gateway reason
// and releases the order's holds immediately so the seats go back on
// sale before the TTL would have freed them.  A success outcome runs
// the settlement transaction; losing a race against a concurrent
// attempt for the same order surfaces as Duplicate, not as an error.
func (o *Orchestrator) Settle(ctx context.Context, gateway string, cb *payment.CallbackResult) (*Result, error) {
	if cb == nil || !cb.Valid {
		return nil, errors.New("settlement: callback not verified")
	}
	order, err := o.orders.GetByID(ctx, cb.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderPending {
		log.Printf("settlement: order %s already %s, ignoring %s callback", order.ID, order.Status, gateway)
		return &Result{Duplicate: true, Order: order}, nil
	}
	pay, err := o.payments.GetByOrderAndGateway(ctx, order.ID, gateway)
	if err != nil {
		return nil, err
	}
	rawJSON := marshalRaw(cb.Raw)

	outcome := cb.Outcome
	reason := cb.Message
	if outcome == payment.OutcomeSuccess && cb.Amount != int64(order.TotalCents) {
		outcome = payment.OutcomeFailure
		reason = fmt.Sprintf("amount mismatch: callback %d, order %d", cb.Amount, order.TotalCents)
	}
	if outcome != payment.OutcomeSuccess {
		return o.settleFailure(ctx, order, pay, reason, rawJSON)
	}
	return o.settleSuccess(ctx, order, pay, cb, rawJSON)
}

func (o *Orchestrator) settleFailure(ctx context.Context, order *model.Order, pay *model.Payment, reason, rawJSON string) (*Result, error) {
	if reason == "" {
		reason = "payment declined"
	}
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	seats, err := o.orders.SeatsByOrderTx(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}
	seatIDs := make([]uint64, 0, len(seats))
	for _, s := range seats {
		seatIDs = append(seatIDs, s.SeatID)
	}
	// Only the buyer's own holds come back on sale.  A seat whose hold
	// already expired may carry another customer's live hold by now, and
	// that hold must survive this order's failure.
	released, err := o.holds.DeleteByHolderSeatsTx(ctx, tx, order.ShowingID, seatIDs, order.HolderID)
	if err != nil {
		return nil, err
	}
	if err := o.orders.MarkFailedTx(ctx, tx, order.ID, reason); err != nil {
		return nil, err
	}
	if err := o.payments.MarkResultTx(ctx, tx, pay.ID, model.PaymentFailed, rawJSON); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	if o.pub != nil && len(released) > 0 {
		o.pub.Publish(broadcast.Event{
			Type:      broadcast.EventSeatsReleased,
			ShowingID: order.ShowingID,
			SeatIDs:   released,
		})
	}
	log.Printf("settlement: order %s failed: %s", order.ID, reason)
	order.Status = model.OrderFailed
	order.FailureReason = reason
	return &Result{Failed: true, Order: order}, nil
}

func (o *Orchestrator) settleSuccess(ctx context.Context, order *model.Order, pay *model.Payment, cb *payment.CallbackResult, rawJSON string) (*Result, error) {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The conditional UPDATE is the exactly-once gate: only one
	// concurrent attempt observes an affected row.
	if err := o.orders.MarkPaidTx(ctx, tx, order.ID); err != nil {
		if errors.Is(err, repository.ErrOrderFinalized) {
			return &Result{Duplicate: true, Order: order}, nil
		}
		return nil, err
	}
	seats, err := o.orders.SeatsByOrderTx(ctx, tx, order.ID)
	if err != nil {
		return nil, err
	}
	seatIDs := make([]uint64, 0, len(seats))
	tickets := make([]model.Ticket, 0, len(seats))
	for _, s := range seats {
		seatIDs = append(seatIDs, s.SeatID)
		tickets = append(tickets, model.Ticket{
			OrderID:    order.ID,
			SeatID:     s.SeatID,
			PriceCents: s.PriceCents,
			Code:       uuid.NewString(),
		})
	}
	if err := o.states.CreateMultipleTx(ctx, tx, order.ShowingID, seatIDs, order.HolderID); err != nil {
		return nil, err
	}
	if err := o.holds.DeleteBySeatsTx(ctx, tx, order.ShowingID, seatIDs); err != nil {
		return nil, err
	}
	if err := o.tickets.CreateBulkTx(ctx, tx, tickets); err != nil {
		return nil, err
	}
	if err := o.users.AddPointsTx(ctx, tx, order.HolderID, LoyaltyPoints); err != nil {
		return nil, err
	}
	if err := o.payments.MarkResultTx(ctx, tx, pay.ID, model.PaymentSuccess, rawJSON); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	order.Status = model.OrderPaid
	log.Printf("settlement: order %s paid via %s ref=%s", order.ID, pay.Gateway, cb.GatewayRef)

	// Everything below is best-effort: the money moved, so a QR or
	// delivery hiccup must never undo the commit above.
	qr := o.generateQR(ctx, order)
	if o.pub != nil {
		o.pub.Publish(broadcast.Event{
			Type:      broadcast.EventSeatsBooked,
			ShowingID: order.ShowingID,
			SeatIDs:   seatIDs,
			HolderID:  order.HolderID,
		})
	}
	o.enqueueDelivery(ctx, order, tickets, qr)
	if err := o.orders.MarkCompleted(ctx, order.ID); err != nil {
		log.Printf("settlement: order %s: mark completed: %v", order.ID, err)
	} else {
		order.Status = model.OrderCompleted
	}
	return &Result{Settled: true, Order: order}, nil
}

// generateQR renders the order reference as a PNG and stores it
// base64-encoded on the order row.  Failures are logged and leave the
// order without a code; the diagnostics endpoint shows the gap.
func (o *Orchestrator) generateQR(ctx context.Context, order *model.Order) string {
	png, err := qrcode.Encode(order.ID, qrcode.Medium, 256)
	if err != nil {
		log.Printf("settlement: order %s: qr generation: %v", order.ID, err)
		return ""
	}
	qr := base64.StdEncoding.EncodeToString(png)
	if err := o.orders.SetQRCode(ctx, order.ID, qr); err != nil {
		log.Printf("settlement: order %s: store qr: %v", order.ID, err)
	}
	order.QRCode = qr
	return qr
}

// enqueueDelivery publishes the ticket.issued job.  A broker outage is
// logged, not propagated; the buyer can still fetch tickets from the
// order endpoint.
func (o *Orchestrator) enqueueDelivery(ctx context.Context, order *model.Order, tickets []model.Ticket, qr string) {
	if o.delivery == nil {
		return
	}
	email := ""
	if u, err := o.users.GetByID(ctx, order.HolderID); err == nil {
		email = u.Email
	} else {
		log.Printf("settlement: order %s: load holder %d: %v", order.ID, order.HolderID, err)
	}
	codes := make([]queue.TicketCode, 0, len(tickets))
	for _, t := range tickets {
		codes = append(codes, queue.TicketCode{SeatID: t.SeatID, Code: t.Code})
	}
	ev := queue.TicketIssuedEvent{
		OrderID:    order.ID,
		HolderID:   order.HolderID,
		Email:      email,
		ShowingID:  order.ShowingID,
		TotalCents: order.TotalCents,
		Tickets:    codes,
		QRCode:     qr,
		IssuedAt:   time.Now().UTC(),
	}
	if err := o.delivery.PublishTicketIssued(ctx, ev); err != nil {
		log.Printf("settlement: order %s: enqueue delivery: %v", order.ID, err)
	}
}

func marshalRaw(raw map[string]string) string {
	if len(raw) == 0 {
		return "{}"
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "{}"
	}
	return string(b)
}
