package reservation_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/reservation"
)

func newResolver(t *testing.T) (*reservation.Resolver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	r := reservation.NewResolver(
		repository.NewShowingRepo(db), repository.NewSeatRepo(db),
		repository.NewHoldRepo(db), repository.NewSeatStatusRepo(db))
	return r, mock
}

func showingRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "room_id", "title", "starts_at", "ends_at", "base_price_cents", "status", "created_at", "updated_at"}).
		AddRow(7, 3, "Dune", now.Add(2*time.Hour), now.Add(4*time.Hour), 90000, "ACTIVE", now, now)
}

func roomSeatRows() *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "room_id", "row_label", "seat_number", "seat_type", "is_active", "created_at", "updated_at"})
	rows.AddRow(1, 3, "A", 1, "standard", true, now, now)
	rows.AddRow(2, 3, "A", 2, "standard", true, now, now)
	rows.AddRow(3, 3, "B", 1, "vip", true, now, now)
	return rows
}

func TestResolveBookedWinsOverHeld(t *testing.T) {
	r, mock := newResolver(t)

	mock.ExpectQuery(`FROM showings WHERE id = \?`).WillReturnRows(showingRow())
	mock.ExpectQuery(`FROM seats WHERE room_id = \?`).WillReturnRows(roomSeatRows())
	// Seat 2 is booked; a stale hold row for it still exists.
	mock.ExpectQuery(`FROM seat_statuses WHERE showing_id = \?`).WillReturnRows(seatRows(2))
	mock.ExpectQuery(`FROM seat_holds\s+WHERE showing_id = \? AND expires_at > UTC_TIMESTAMP\(\)`).
		WillReturnRows(seatRows(2, 3))

	seats, err := r.Resolve(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, seats, 3)

	byID := map[uint64]model.SeatState{}
	for _, s := range seats {
		byID[s.SeatID] = s.State
	}
	assert.Equal(t, model.SeatAvailable, byID[1])
	assert.Equal(t, model.SeatBooked, byID[2])
	assert.Equal(t, model.SeatHeld, byID[3])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveUnknownShowing(t *testing.T) {
	r, mock := newResolver(t)
	mock.ExpectQuery(`FROM showings WHERE id = \?`).WillReturnError(sql.ErrNoRows)

	_, err := r.Resolve(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrShowingNotFound)
}
