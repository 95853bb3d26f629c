package reservation_test

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinema-ticketing/internal/broadcast"
    "github.com/iliyamo/cinema-ticketing/internal/repository"
    "github.com/iliyamo/cinema-ticketing/internal/reservation"
)

// recorder captures published events so tests can assert on fan-out
// without a running hub.
type recorder struct {
    events []broadcast.Event
}

func (r *recorder) Publish(ev broadcast.Event) { r.events = append(r.events, ev) }

func newManager(t *testing.T) (*reservation.Manager, sqlmock.Sqlmock, *recorder) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    rec := &recorder{}
    m := reservation.NewManager(db, repository.NewHoldRepo(db), repository.NewSeatStatusRepo(db), rec)
    return m, mock, rec
}

func seatRows(ids ...uint64) *sqlmock.Rows {
    rows := sqlmock.NewRows([]string{"seat_id"})
    for _, id := range ids {
        rows.AddRow(id)
    }
    return rows
}

func TestReserveGrantsFreshHolds(t *testing.T) {
    m, mock, rec := newManager(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT seat_id FROM seat_statuses`).WillReturnRows(seatRows())
    mock.ExpectQuery(`holder_id <> \?`).WillReturnRows(seatRows())
    // Renewal path: seat 1 was already held by this holder and is replaced.
    mock.ExpectQuery(`holder_id = \? AND seat_id IN`).WillReturnRows(seatRows(1))
    mock.ExpectExec(`DELETE FROM seat_holds`).WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(`INSERT INTO seat_holds`).WillReturnResult(sqlmock.NewResult(1, 2))
    mock.ExpectCommit()

    before := time.Now().UTC()
    res, err := m.Reserve(context.Background(), 7, []uint64{1, 2}, 42)
    require.NoError(t, err)
    require.True(t, res.Granted)
    assert.Empty(t, res.Conflicts)
    assert.WithinDuration(t, before.Add(reservation.HoldTTL), res.ExpiresAt, 2*time.Second)

    require.Len(t, rec.events, 1)
    assert.Equal(t, broadcast.EventSeatsHeld, rec.events[0].Type)
    assert.Equal(t, uint64(7), rec.events[0].ShowingID)
    assert.Equal(t, []uint64{1, 2}, rec.events[0].SeatIDs)
    assert.Equal(t, uint64(42), rec.events[0].HolderID)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRejectsBookedSeat(t *testing.T) {
    m, mock, rec := newManager(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT seat_id FROM seat_statuses`).WillReturnRows(seatRows(2))
    mock.ExpectQuery(`holder_id <> \?`).WillReturnRows(seatRows())
    mock.ExpectRollback()

    res, err := m.Reserve(context.Background(), 7, []uint64{1, 2}, 42)
    require.NoError(t, err)
    assert.False(t, res.Granted)
    assert.Equal(t, []uint64{2}, res.Conflicts)
    assert.Empty(t, rec.events, "conflict must not broadcast")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveIsAllOrNothingOnForeignHold(t *testing.T) {
    m, mock, rec := newManager(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`SELECT seat_id FROM seat_statuses`).WillReturnRows(seatRows())
    // Seat 3 is held by someone else; seats 1 and 2 are free but must
    // not be granted either.
    mock.ExpectQuery(`holder_id <> \?`).WillReturnRows(seatRows(3))
    mock.ExpectRollback()

    res, err := m.Reserve(context.Background(), 7, []uint64{1, 2, 3}, 42)
    require.NoError(t, err)
    assert.False(t, res.Granted)
    assert.Equal(t, []uint64{3}, res.Conflicts)
    assert.Empty(t, rec.events)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveEmptySeatSet(t *testing.T) {
    m, _, rec := newManager(t)
    res, err := m.Reserve(context.Background(), 7, nil, 42)
    require.NoError(t, err)
    assert.False(t, res.Granted)
    assert.Empty(t, rec.events)
}

func TestReleaseBroadcastsWhatWasRemoved(t *testing.T) {
    m, mock, rec := newManager(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`holder_id = \? AND seat_id IN`).WillReturnRows(seatRows(5, 6))
    mock.ExpectExec(`DELETE FROM seat_holds`).WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectCommit()

    released, err := m.Release(context.Background(), 7, []uint64{5, 6, 9}, 42)
    require.NoError(t, err)
    assert.Equal(t, []uint64{5, 6}, released)

    require.Len(t, rec.events, 1)
    assert.Equal(t, broadcast.EventSeatsReleased, rec.events[0].Type)
    assert.Equal(t, []uint64{5, 6}, rec.events[0].SeatIDs)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseOfForeignHoldIsNoOp(t *testing.T) {
    m, mock, rec := newManager(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`holder_id = \? AND seat_id IN`).WillReturnRows(seatRows())
    mock.ExpectCommit()

    released, err := m.Release(context.Background(), 7, []uint64{5}, 99)
    require.NoError(t, err)
    assert.Empty(t, released)
    assert.Empty(t, rec.events)
    assert.NoError(t, mock.ExpectationsWereMet())
}
