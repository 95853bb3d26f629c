// Package pricing computes seat prices: the showing's base price
// scaled by a per-seat-type multiplier.  Multipliers live in MySQL and
// are read through a small Redis cache, since every checkout prices
// every seat and the table changes maybe once a season.
package pricing

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// DefaultTTL bounds how stale a cached multiplier can get after an
// operator edits seat_type_prices without calling Invalidate.
const DefaultTTL = 5 * time.Minute

const keyPrefix = "pricing:multiplier:"

// Service resolves seat prices.  A nil Redis client degrades to
// hitting MySQL on every lookup, mirroring how the response cache and
// rate limiter behave when Redis is down.
type Service struct {
	prices *repository.SeatTypePriceRepo
	rdb    *redis.Client
	ttl    time.Duration
}

// NewService wires the pricing service.  ttl <= 0 selects DefaultTTL.
func NewService(prices *repository.SeatTypePriceRepo, rdb *redis.Client, ttl time.Duration) *Service {
	if prices == nil {
		panic("nil repository passed to pricing.NewService")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{prices: prices, rdb: rdb, ttl: ttl}
}

// MultiplierBP returns the basis-point multiplier for a seat type,
// preferring the cache.  Cache errors are logged and fall through to
// the database; a cache outage must never block a sale.
func (s *Service) MultiplierBP(ctx context.Context, seatType string) (uint32, error) {
	if s.rdb != nil {
		val, err := s.rdb.Get(ctx, keyPrefix+seatType).Result()
		if err == nil {
			if bp, convErr := strconv.ParseUint(val, 10, 32); convErr == nil {
				return uint32(bp), nil
			}
		} else if err != redis.Nil {
			log.Printf("pricing: cache get %q: %v", seatType, err)
		}
	}
	bp, err := s.prices.MultiplierBP(ctx, seatType)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, keyPrefix+seatType, strconv.FormatUint(uint64(bp), 10), s.ttl).Err(); err != nil {
			log.Printf("pricing: cache set %q: %v", seatType, err)
		}
	}
	return bp, nil
}

// PriceCents applies the seat type multiplier to a showing's base
// price.  Math is integer basis points, rounding down.
func (s *Service) PriceCents(ctx context.Context, basePriceCents uint32, seatType string) (uint32, error) {
	bp, err := s.MultiplierBP(ctx, seatType)
	if err != nil {
		return 0, err
	}
	return uint32(uint64(basePriceCents) * uint64(bp) / 10000), nil
}

// Invalidate drops the cached multiplier for a seat type after an
// operator price change.
func (s *Service) Invalidate(ctx context.Context, seatType string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, keyPrefix+seatType).Err()
}
