package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/pricing"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

func TestMultiplierServedFromCache(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, rMock := redismock.NewClientMock()

	rMock.ExpectGet("pricing:multiplier:vip").SetVal("15000")

	svc := pricing.NewService(repository.NewSeatTypePriceRepo(db), rdb, time.Minute)
	bp, err := svc.MultiplierBP(context.Background(), "vip")
	require.NoError(t, err)
	assert.Equal(t, uint32(15000), bp)

	assert.NoError(t, rMock.ExpectationsWereMet())
	assert.NoError(t, dbMock.ExpectationsWereMet(), "cache hit must not touch the database")
}

func TestMultiplierMissFillsCache(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, rMock := redismock.NewClientMock()

	rMock.ExpectGet("pricing:multiplier:vip").RedisNil()
	dbMock.ExpectQuery(`SELECT multiplier_bp FROM seat_type_prices`).
		WithArgs("vip").
		WillReturnRows(sqlmock.NewRows([]string{"multiplier_bp"}).AddRow(15000))
	rMock.ExpectSet("pricing:multiplier:vip", "15000", time.Minute).SetVal("OK")

	svc := pricing.NewService(repository.NewSeatTypePriceRepo(db), rdb, time.Minute)
	bp, err := svc.MultiplierBP(context.Background(), "vip")
	require.NoError(t, err)
	assert.Equal(t, uint32(15000), bp)

	assert.NoError(t, rMock.ExpectationsWereMet())
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestPriceCentsAppliesBasisPoints(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, rMock := redismock.NewClientMock()
	rMock.ExpectGet("pricing:multiplier:vip").SetVal("15000")

	svc := pricing.NewService(repository.NewSeatTypePriceRepo(db), rdb, time.Minute)
	price, err := svc.PriceCents(context.Background(), 90000, "vip")
	require.NoError(t, err)
	assert.Equal(t, uint32(135000), price)
}

func TestNilRedisFallsBackToDatabase(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectQuery(`SELECT multiplier_bp FROM seat_type_prices`).
		WithArgs("standard").
		WillReturnRows(sqlmock.NewRows([]string{"multiplier_bp"}).AddRow(10000))

	svc := pricing.NewService(repository.NewSeatTypePriceRepo(db), nil, 0)
	bp, err := svc.MultiplierBP(context.Background(), "standard")
	require.NoError(t, err)
	assert.Equal(t, uint32(10000), bp)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestInvalidateDropsKey(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	rdb, rMock := redismock.NewClientMock()
	rMock.ExpectDel("pricing:multiplier:vip").SetVal(1)

	svc := pricing.NewService(repository.NewSeatTypePriceRepo(db), rdb, time.Minute)
	require.NoError(t, svc.Invalidate(context.Background(), "vip"))
	assert.NoError(t, rMock.ExpectationsWereMet())
}
