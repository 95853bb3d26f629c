package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/pricing"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// CheckoutHandler turns a set of held seats into a pending order with
// a payment redirect.  It verifies inside a transaction that every
// requested seat is still held by the buyer, prices the seats through
// the pricing service and creates the order rows; the charge is only
// initiated after the order committed.
type CheckoutHandler struct {
	Showings *repository.ShowingRepo
	Seats    *repository.SeatRepo
	Holds    *repository.HoldRepo
	Orders   *repository.OrderRepo
	Payments *repository.PaymentRepo
	Pricing  *pricing.Service
	Gateways map[string]payment.Gateway
}

// NewCheckoutHandler constructs a CheckoutHandler.  All dependencies
// must be non-nil and at least one gateway must be registered.
func NewCheckoutHandler(
	showings *repository.ShowingRepo,
	seats *repository.SeatRepo,
	holds *repository.HoldRepo,
	orders *repository.OrderRepo,
	payments *repository.PaymentRepo,
	prices *pricing.Service,
	gateways map[string]payment.Gateway,
) *CheckoutHandler {
	if showings == nil || seats == nil || holds == nil || orders == nil || payments == nil || prices == nil || len(gateways) == 0 {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{
		Showings: showings, Seats: seats, Holds: holds,
		Orders: orders, Payments: payments, Pricing: prices, Gateways: gateways,
	}
}

// Caps on client-priced combo line items.  Combo prices arrive from the
// client, so the caps bound both a fat-fingered payload and the uint32
// total: maxItems * maxQuantity * maxPriceCents stays far below the
// overflow point.
const (
	maxOrderItems     = 10
	maxItemQuantity   = 10
	maxItemPriceCents = 5_000_000
)

type checkoutItem struct {
	ComboID    uint64 `json:"combo_id"`
	Quantity   uint32 `json:"quantity"`
	PriceCents uint32 `json:"price_cents"`
}

type checkoutRequest struct {
	ShowingID uint64         `json:"showing_id"`
	SeatIDs   []uint64       `json:"seat_ids"`
	Gateway   string         `json:"gateway"`
	Items     []checkoutItem `json:"items"`
}

// CreateOrder handles POST /v1/orders.  It returns 201 Created with
// the order ID and the gateway pay URL.  A seat whose hold expired (or
// was never held by the buyer) yields 409 with the offending seats so
// the client can re-reserve; the order is not created in that case.
func (h *CheckoutHandler) CreateOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body checkoutRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	gw, ok := h.Gateways[body.Gateway]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown gateway"})
	}
	unique := dedupeSeatIDs(body.SeatIDs)
	if body.ShowingID == 0 || len(unique) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showing_id and seat_ids are required"})
	}
	if len(body.Items) > maxOrderItems {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many order items"})
	}
	for _, it := range body.Items {
		if it.ComboID == 0 || it.Quantity == 0 || it.Quantity > maxItemQuantity || it.PriceCents > maxItemPriceCents {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order item"})
		}
	}
	ctx := c.Request().Context()
	showing, err := h.Showings.GetByID(ctx, body.ShowingID)
	if err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if showing.Status != "ACTIVE" || !showing.StartsAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "showing is not on sale"})
	}

	tx, err := h.Showings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Every seat of the order must still be under the buyer's hold.
	held, err := h.Holds.ActiveByHolderSeatsTx(ctx, tx, showing.ID, unique, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify holds"})
	}
	if len(held) != len(unique) {
		heldSet := make(map[uint64]struct{}, len(held))
		for _, hld := range held {
			heldSet[hld.SeatID] = struct{}{}
		}
		missing := make([]uint64, 0, len(unique)-len(held))
		for _, sid := range unique {
			if _, ok := heldSet[sid]; !ok {
				missing = append(missing, sid)
			}
		}
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "hold expired or missing",
			"seats": missing,
		})
	}
	seatMap, err := h.Seats.GetByIDsTx(ctx, tx, unique)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	total := uint32(0)
	orderSeats := make([]model.OrderSeat, 0, len(unique))
	orderID := uuid.NewString()
	for _, sid := range unique {
		seat, ok := seatMap[sid]
		if !ok || !seat.IsActive || seat.RoomID != showing.RoomID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat does not belong to this showing"})
		}
		price, err := h.Pricing.PriceCents(ctx, showing.BasePriceCents, seat.SeatType)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to price seats"})
		}
		total += price
		orderSeats = append(orderSeats, model.OrderSeat{
			OrderID:    orderID,
			ShowingID:  showing.ID,
			SeatID:     sid,
			PriceCents: price,
		})
	}
	items := make([]model.OrderItem, 0, len(body.Items))
	for _, it := range body.Items {
		total += it.Quantity * it.PriceCents
		items = append(items, model.OrderItem{
			OrderID:    orderID,
			ComboID:    it.ComboID,
			Quantity:   it.Quantity,
			PriceCents: it.PriceCents,
		})
	}
	order := &model.Order{
		ID:         orderID,
		HolderID:   userID,
		ShowingID:  showing.ID,
		TotalCents: total,
		Status:     model.OrderPending,
	}
	if err := h.Orders.CreateTx(ctx, tx, order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}
	if err := h.Orders.CreateSeatsBulkTx(ctx, tx, orderSeats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order seats"})
	}
	if err := h.Orders.CreateItemsBulkTx(ctx, tx, items); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order items"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	intent, err := gw.BuildCharge(ctx, payment.ChargeRequest{
		OrderID:   orderID,
		Amount:    int64(total),
		OrderInfo: "Tickets for " + showing.Title,
		ClientIP:  c.RealIP(),
	})
	if err != nil {
		// The order exists but no charge was started; fail it so the
		// sweeper frees the seats at TTL and the buyer can retry.
		_ = h.Orders.MarkFailed(ctx, orderID, "payment gateway unavailable")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
	}
	pay := &model.Payment{
		OrderID:     orderID,
		Gateway:     gw.Name(),
		GatewayRef:  intent.GatewayRef,
		AmountCents: total,
		Status:      model.PaymentPending,
	}
	if err := h.Payments.Create(ctx, pay); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payment"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":    orderID,
		"total_cents": total,
		"gateway":     gw.Name(),
		"pay_url":     intent.PayURL,
	})
}
