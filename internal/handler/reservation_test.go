package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/reservation"
)

func newHoldContext(t *testing.T, body string, authed bool) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/showings/7/hold", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/showings/:id/hold")
	c.SetParamNames("id")
	c.SetParamValues("7")
	if authed {
		c.Set("user_id", uint64(42))
	}
	return c, rec
}

func newReservationHandler(t *testing.T) (*handler.ReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	manager := reservation.NewManager(db, repository.NewHoldRepo(db), repository.NewSeatStatusRepo(db), nil)
	return handler.NewReservationHandler(repository.NewShowingRepo(db), manager), mock
}

func activeShowingRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "room_id", "title", "starts_at", "ends_at", "base_price_cents", "status", "created_at", "updated_at"}).
		AddRow(7, 3, "Dune", now.Add(2*time.Hour), now.Add(4*time.Hour), 90000, "ACTIVE", now, now)
}

func seatIDRows(ids ...uint64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"seat_id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestHoldSeatsCreated(t *testing.T) {
	h, mock := newReservationHandler(t)

	mock.ExpectQuery(`FROM showings WHERE id = \?`).WillReturnRows(activeShowingRow())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT seat_id FROM seat_statuses`).WillReturnRows(seatIDRows())
	mock.ExpectQuery(`holder_id <> \?`).WillReturnRows(seatIDRows())
	mock.ExpectQuery(`holder_id = \? AND seat_id IN`).WillReturnRows(seatIDRows())
	mock.ExpectExec(`INSERT INTO seat_holds`).WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	c, rec := newHoldContext(t, `{"seat_ids":[11,12,11]}`, true)
	require.NoError(t, h.HoldSeats(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "expires_at")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldSeatsConflict(t *testing.T) {
	h, mock := newReservationHandler(t)

	mock.ExpectQuery(`FROM showings WHERE id = \?`).WillReturnRows(activeShowingRow())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT seat_id FROM seat_statuses`).WillReturnRows(seatIDRows(11))
	mock.ExpectQuery(`holder_id <> \?`).WillReturnRows(seatIDRows())
	mock.ExpectRollback()

	c, rec := newHoldContext(t, `{"seat_ids":[11,12]}`, true)
	require.NoError(t, h.HoldSeats(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldSeatsUnknownShowing(t *testing.T) {
	h, mock := newReservationHandler(t)
	mock.ExpectQuery(`FROM showings WHERE id = \?`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, rec := newHoldContext(t, `{"seat_ids":[11]}`, true)
	require.NoError(t, h.HoldSeats(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHoldSeatsRequiresAuth(t *testing.T) {
	h, _ := newReservationHandler(t)
	c, rec := newHoldContext(t, `{"seat_ids":[11]}`, false)
	require.NoError(t, h.HoldSeats(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHoldSeatsEmptyBody(t *testing.T) {
	h, mock := newReservationHandler(t)
	mock.ExpectQuery(`FROM showings WHERE id = \?`).WillReturnRows(activeShowingRow())

	c, rec := newHoldContext(t, `{"seat_ids":[]}`, true)
	require.NoError(t, h.HoldSeats(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
