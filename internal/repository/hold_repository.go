package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"
)

// HoldRecord represents the persistence model for a seat hold.  It is
// used internally by the repository layer when creating and querying holds.
// The exported model.Hold should be used for business logic.
type HoldRecord struct {
    ID        uint64    // primary key of the seat_holds row
    ShowingID uint64    // showing to which this hold applies
    SeatID    uint64    // seat being held
    HolderID  uint64    // user who holds the seat
    CreatedAt time.Time // creation timestamp
    ExpiresAt time.Time // expiration timestamp
}

// HoldRepo provides data access to the seat_holds table, the durable
// lock store.  It is the only component that writes hold rows; the
// reservation manager and the settlement orchestrator drive it, always
// inside a transaction.  All methods compare expirations in UTC.
type HoldRepo struct {
    db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions
// spanning several repositories.
func (r *HoldRepo) DB() *sql.DB { return r.db }

// ForeignActiveTx returns the subset of the given seats that carry a
// non-expired hold owned by a different holder.  The returned IDs are
// exactly the conflicting seats a reserve attempt must report.  An
// empty seat list yields an empty result without touching the database.
func (r *HoldRepo) ForeignActiveTx(ctx context.Context, tx *sql.Tx, showingID uint64, seatIDs []uint64, holderID uint64) ([]uint64, error) {
    if len(seatIDs) == 0 {
        return []uint64{}, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
    query := `SELECT seat_id FROM seat_holds
              WHERE showing_id = ? AND holder_id <> ? AND expires_at > UTC_TIMESTAMP()
                AND seat_id IN (` + placeholders + `)`
    args := make([]interface{}, 0, len(seatIDs)+2)
    args = append(args, showingID, holderID)
    for _, id := range seatIDs {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    conflicts := []uint64{}
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        conflicts = append(conflicts, sid)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return conflicts, nil
}

// CreateMultipleTx inserts multiple seat_holds within the provided
// transaction.  Each hold must specify ShowingID, SeatID, HolderID and
// ExpiresAt; CreatedAt is set by the database.  Passing an empty slice
// has no effect and returns nil.
func (r *HoldRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, holds []HoldRecord) error {
    if len(holds) == 0 {
        return nil
    }
    query := `INSERT INTO seat_holds (showing_id, seat_id, holder_id, expires_at) VALUES `
    args := make([]interface{}, 0, len(holds)*4)
    for i, h := range holds {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, h.ShowingID, h.SeatID, h.HolderID, h.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// DeleteByHolderSeatsTx removes the holder's own holds on the given
// seats for a showing and returns the seat IDs that were actually
// released.  Foreign holds are untouched, which makes release a no-op
// for seats the caller never held.
func (r *HoldRepo) DeleteByHolderSeatsTx(ctx context.Context, tx *sql.Tx, showingID uint64, seatIDs []uint64, holderID uint64) ([]uint64, error) {
    if len(seatIDs) == 0 {
        return []uint64{}, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
    selQ := `SELECT seat_id FROM seat_holds
             WHERE showing_id = ? AND holder_id = ? AND seat_id IN (` + placeholders + `)`
    args := make([]interface{}, 0, len(seatIDs)+2)
    args = append(args, showingID, holderID)
    for _, id := range seatIDs {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, selQ, args...)
    if err != nil {
        return nil, err
    }
    released := []uint64{}
    for rows.Next() {
        var sid uint64
        if scanErr := rows.Scan(&sid); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        released = append(released, sid)
    }
    if err = rows.Close(); err != nil {
        return nil, err
    }
    if len(released) == 0 {
        return released, nil
    }
    delQ := `DELETE FROM seat_holds
             WHERE showing_id = ? AND holder_id = ? AND seat_id IN (` + placeholders + `)`
    if _, err := tx.ExecContext(ctx, delQ, args...); err != nil {
        return nil, err
    }
    return released, nil
}

// DeleteByHolderTx removes every hold the holder has on a showing and
// returns the seat IDs that were released.  Backs the bodyless release
// endpoint ("let go of everything I have here").
func (r *HoldRepo) DeleteByHolderTx(ctx context.Context, tx *sql.Tx, showingID uint64, holderID uint64) ([]uint64, error) {
	const selQ = `SELECT seat_id FROM seat_holds WHERE showing_id = ? AND holder_id = ?`
	rows, err := tx.QueryContext(ctx, selQ, showingID, holderID)
	if err != nil {
		return nil, err
	}
	released := []uint64{}
	for rows.Next() {
		var sid uint64
		if scanErr := rows.Scan(&sid); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		released = append(released, sid)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}
	if len(released) == 0 {
		return released, nil
	}
	const delQ = `DELETE FROM seat_holds WHERE showing_id = ? AND holder_id = ?`
	if _, err := tx.ExecContext(ctx, delQ, showingID, holderID); err != nil {
		return nil, err
	}
	return released, nil
}

// DeleteBySeatsTx removes holds on the given seats for a showing
// regardless of holder.  Only the settlement success path uses it,
// where the seat is being finalized and any hold on it is obsolete;
// the failure path stays holder-scoped so a competing customer's
// fresh hold survives.
func (r *HoldRepo) DeleteBySeatsTx(ctx context.Context, tx *sql.Tx, showingID uint64, seatIDs []uint64) error {
    if len(seatIDs) == 0 {
        return nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
    query := `DELETE FROM seat_holds WHERE showing_id = ? AND seat_id IN (` + placeholders + `)`
    args := make([]interface{}, 0, len(seatIDs)+1)
    args = append(args, showingID)
    for _, id := range seatIDs {
        args = append(args, id)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ActiveByHolderSeatsTx retrieves the holder's non-expired holds on the
// given seats.  Checkout uses this to verify that every seat of an
// order is still held by the buyer before an order is created.
func (r *HoldRepo) ActiveByHolderSeatsTx(ctx context.Context, tx *sql.Tx, showingID uint64, seatIDs []uint64, holderID uint64) ([]HoldRecord, error) {
    if len(seatIDs) == 0 {
        return []HoldRecord{}, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
    query := `SELECT id, showing_id, seat_id, holder_id, created_at, expires_at
              FROM seat_holds
              WHERE showing_id = ? AND holder_id = ? AND expires_at > UTC_TIMESTAMP()
                AND seat_id IN (` + placeholders + `)`
    args := make([]interface{}, 0, len(seatIDs)+2)
    args = append(args, showingID, holderID)
    for _, id := range seatIDs {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var holds []HoldRecord
    for rows.Next() {
        var h HoldRecord
        if err := rows.Scan(&h.ID, &h.ShowingID, &h.SeatID, &h.HolderID, &h.CreatedAt, &h.ExpiresAt); err != nil {
            return nil, err
        }
        holds = append(holds, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return holds, nil
}

// ExpireDueTx removes every hold whose expires_at has passed, across
// all showings, and returns the removed rows grouped for broadcasting.
// The DELETE repeats the expiry predicate rather than deleting by ID,
// so a hold renewed between the SELECT and the DELETE survives.
func (r *HoldRepo) ExpireDueTx(ctx context.Context, tx *sql.Tx) ([]HoldRecord, error) {
    const selQ = `SELECT id, showing_id, seat_id, holder_id, created_at, expires_at
                  FROM seat_holds WHERE expires_at <= UTC_TIMESTAMP()`
    rows, err := tx.QueryContext(ctx, selQ)
    if err != nil {
        return nil, err
    }
    var expired []HoldRecord
    for rows.Next() {
        var h HoldRecord
        if scanErr := rows.Scan(&h.ID, &h.ShowingID, &h.SeatID, &h.HolderID, &h.CreatedAt, &h.ExpiresAt); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        expired = append(expired, h)
    }
    if err = rows.Close(); err != nil {
        return nil, err
    }
    if len(expired) == 0 {
        return []HoldRecord{}, nil
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM seat_holds WHERE expires_at <= UTC_TIMESTAMP()`); err != nil {
        return nil, err
    }
    return expired, nil
}

// ActiveSeatIDs returns the seats of a showing that carry a
// non-expired hold, evaluated against the database clock at query
// time.  The availability resolver depends on this time check rather
// than on the sweeper having run, so reads are never stale due to
// sweeper lag.
func (r *HoldRepo) ActiveSeatIDs(ctx context.Context, showingID uint64) ([]uint64, error) {
    const q = `SELECT seat_id FROM seat_holds
               WHERE showing_id = ? AND expires_at > UTC_TIMESTAMP()`
    rows, err := r.db.QueryContext(ctx, q, showingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    held := []uint64{}
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, err
        }
        held = append(held, sid)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return held, nil
}

// ListByShowing returns all hold rows for a showing, expired or not,
// for the diagnostics endpoint.  Callers interested in effective state
// should use the availability resolver instead.
func (r *HoldRepo) ListByShowing(ctx context.Context, showingID uint64) ([]HoldRecord, error) {
    const q = `SELECT id, showing_id, seat_id, holder_id, created_at, expires_at
               FROM seat_holds WHERE showing_id = ? ORDER BY seat_id`
    rows, err := r.db.QueryContext(ctx, q, showingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    holds := []HoldRecord{}
    for rows.Next() {
        var h HoldRecord
        if err := rows.Scan(&h.ID, &h.ShowingID, &h.SeatID, &h.HolderID, &h.CreatedAt, &h.ExpiresAt); err != nil {
            return nil, err
        }
        holds = append(holds, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return holds, nil
}
