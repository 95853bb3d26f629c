// This file defines the public read surface: showing details, the live
// seat map and the hold diagnostics view.  Seat state is computed by
// the availability resolver, never read straight from tables, so a
// stale hold row can never surface as an unavailable seat.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/reservation"
)

// BrowseHandler aggregates the read-side dependencies for showings,
// seat maps and orders.
type BrowseHandler struct {
	Showings *repository.ShowingRepo
	Resolver *reservation.Resolver
	Holds    *repository.HoldRepo
	Orders   *repository.OrderRepo
	Tickets  *repository.TicketRepo
}

// NewBrowseHandler constructs a BrowseHandler.  All dependencies must
// be non-nil.
func NewBrowseHandler(showings *repository.ShowingRepo, resolver *reservation.Resolver, holds *repository.HoldRepo, orders *repository.OrderRepo, tickets *repository.TicketRepo) *BrowseHandler {
	if showings == nil || resolver == nil || holds == nil || orders == nil || tickets == nil {
		panic("nil dependency passed to NewBrowseHandler")
	}
	return &BrowseHandler{Showings: showings, Resolver: resolver, Holds: holds, Orders: orders, Tickets: tickets}
}

// showingView is a showing sanitized for public consumption.
type showingView struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	RoomID         uint64    `json:"room_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BasePriceCents uint32    `json:"base_price_cents"`
	Status         string    `json:"status"`
}

// GetShowing handles GET /v1/showings/:id.
func (h *BrowseHandler) GetShowing(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	s, err := h.Showings.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": showingView{
		ID: s.ID, Title: s.Title, RoomID: s.RoomID,
		StartsAt: s.StartsAt, EndsAt: s.EndsAt,
		BasePriceCents: s.BasePriceCents, Status: s.Status,
	}})
}

// GetShowingSeats handles GET /v1/showings/:id/seats.  It returns the
// full seat map of the showing with each seat's effective state.
func (h *BrowseHandler) GetShowingSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	seats, err := h.Resolver.Resolve(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": seats})
}

// holdView is one raw hold row in the diagnostics response, with the
// expiry evaluated at render time.
type holdView struct {
	SeatID    uint64    `json:"seat_id"`
	HolderID  uint64    `json:"holder_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

// GetShowingHolds handles GET /v1/showings/:id/holds, a diagnostics
// view of the raw hold rows including ones the sweeper has not removed
// yet.  Clients wanting effective availability use /seats instead.
func (h *BrowseHandler) GetShowingHolds(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Showings.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	holds, err := h.Holds.ListByShowing(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	out := make([]holdView, 0, len(holds))
	for _, hld := range holds {
		out = append(out, holdView{
			SeatID:    hld.SeatID,
			HolderID:  hld.HolderID,
			CreatedAt: hld.CreatedAt,
			ExpiresAt: hld.ExpiresAt,
			Expired:   !hld.ExpiresAt.After(now),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetOrder handles GET /v1/orders/:id.  Buyers can only see their own
// orders; the response includes tickets and the QR code once the order
// is paid.
func (h *BrowseHandler) GetOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if order.HolderID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	tickets, err := h.Tickets.ListByOrder(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item": echo.Map{
			"id":             order.ID,
			"showing_id":     order.ShowingID,
			"total_cents":    order.TotalCents,
			"status":         order.Status,
			"failure_reason": order.FailureReason,
			"qr_code":        order.QRCode,
			"created_at":     order.CreatedAt,
			"tickets":        tickets,
		},
	})
}
