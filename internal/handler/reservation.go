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

// ReservationHandler exposes the seat hold endpoints.  All methods
// assume that JWT authentication has already been performed by
// middleware and may return 401 Unauthorized if the user ID cannot be
// extracted from the context.  The actual exclusion logic lives in the
// reservation manager; the handler only validates input and maps
// outcomes to HTTP.
type ReservationHandler struct {
	Showings *repository.ShowingRepo
	Manager  *reservation.Manager
}

// NewReservationHandler constructs a ReservationHandler.  Both
// dependencies must be non-nil.
func NewReservationHandler(showings *repository.ShowingRepo, manager *reservation.Manager) *ReservationHandler {
	if showings == nil || manager == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Showings: showings, Manager: manager}
}

// HoldSeats handles POST /v1/showings/:id/hold.  The request body must
// contain a JSON object with a "seat_ids" array of positive integers.
// On success it returns 201 Created with the hold expiration; when any
// requested seat is booked or held by someone else it returns 409 with
// the full list of conflicting seats and grants nothing.
func (h *ReservationHandler) HoldSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	showing, err := h.Showings.GetByID(c.Request().Context(), showingID)
	if err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if showing.Status != "ACTIVE" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "showing is not on sale"})
	}
	if !showing.StartsAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "showing already started"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	unique := dedupeSeatIDs(body.SeatIDs)
	if len(unique) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	res, err := h.Manager.Reserve(c.Request().Context(), showingID, unique, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve seats"})
	}
	if !res.Granted {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "some seats are unavailable",
			"unavailable": res.Conflicts,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"seat_ids":   unique,
		"expires_at": res.ExpiresAt.Format(time.RFC3339),
	})
}

// ReleaseHolds handles DELETE /v1/showings/:id/hold.  It releases the
// caller's holds on the seats named in the body, or every hold the
// caller has on the showing when the body is empty.  Releasing seats
// the caller does not hold is a no-op, so the endpoint is safe to
// retry.  Returns 200 OK with the seats actually released.
func (h *ReservationHandler) ReleaseHolds(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	// DELETE bodies are optional; a bind failure just means "all".
	_ = c.Bind(&body)
	seatIDs := dedupeSeatIDs(body.SeatIDs)
	ctx := c.Request().Context()
	if len(seatIDs) == 0 {
		all, err := h.Manager.ReleaseAll(ctx, showingID, userID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release holds"})
		}
		return c.JSON(http.StatusOK, echo.Map{"released": all})
	}
	released, err := h.Manager.Release(ctx, showingID, seatIDs, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release holds"})
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}
