package reservation

import (
    "context"
    "database/sql"
    "log"
    "time"

    "github.com/iliyamo/cinema-ticketing/internal/broadcast"
    "github.com/iliyamo/cinema-ticketing/internal/repository"
)

// Sweeper is the background hygiene pass that removes expired holds
// and tells watchers their seats came back.  It is not a correctness
// dependency: the resolver and the reserve path both evaluate expiry
// against the clock, so a crashed sweeper only delays the broadcast,
// never the availability.
type Sweeper struct {
    db       *sql.DB
    holds    *repository.HoldRepo
    pub      Publisher
    interval time.Duration
}

// NewSweeper builds a sweeper ticking at the given interval.
func NewSweeper(db *sql.DB, holds *repository.HoldRepo, pub Publisher, interval time.Duration) *Sweeper {
    if interval <= 0 {
        interval = time.Minute
    }
    return &Sweeper{db: db, holds: holds, pub: pub, interval: interval}
}

// Run loops until the context is cancelled, sweeping once per tick.
// Errors are logged and the loop keeps going; a failed tick just means
// the next one has more rows to clean.
func (s *Sweeper) Run(ctx context.Context) {
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()
    log.Printf("sweeper: started, interval=%s", s.interval)
    for {
        select {
        case <-ctx.Done():
            log.Printf("sweeper: stopped")
            return
        case <-ticker.C:
            if err := s.Sweep(ctx); err != nil {
                log.Printf("sweeper: sweep failed: %v", err)
            }
        }
    }
}

// Sweep deletes every expired hold in one transaction and broadcasts a
// seats.released event per affected showing.  The delete predicate
// re-checks expiry, so a hold renewed mid-sweep is never released.
func (s *Sweeper) Sweep(ctx context.Context) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    expired, err := s.holds.ExpireDueTx(ctx, tx)
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    if len(expired) == 0 {
        return nil
    }

    byShowing := make(map[uint64][]uint64)
    for _, h := range expired {
        byShowing[h.ShowingID] = append(byShowing[h.ShowingID], h.SeatID)
    }
    if s.pub != nil {
        for showingID, seatIDs := range byShowing {
            s.pub.Publish(broadcast.Event{
                Type:      broadcast.EventSeatsReleased,
                ShowingID: showingID,
                SeatIDs:   seatIDs,
            })
        }
    }
    log.Printf("sweeper: released %d expired holds across %d showings", len(expired), len(byShowing))
    return nil
}
