package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/pricing"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

func newCheckoutHandler(t *testing.T) (*handler.CheckoutHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	prices := pricing.NewService(repository.NewSeatTypePriceRepo(db), nil, 0)
	gateways := map[string]payment.Gateway{"vnpay": &stubGateway{name: "vnpay"}}
	return handler.NewCheckoutHandler(
		repository.NewShowingRepo(db), repository.NewSeatRepo(db),
		repository.NewHoldRepo(db), repository.NewOrderRepo(db),
		repository.NewPaymentRepo(db), prices, gateways), mock
}

func postOrder(t *testing.T, h *handler.CheckoutHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(42))
	require.NoError(t, h.CreateOrder(c))
	return rec
}

// Combo items are client-priced, so the handler has to refuse payloads
// that could inflate or overflow the uint32 order total.
func TestCreateOrderRejectsOutOfRangeItems(t *testing.T) {
	h, mock := newCheckoutHandler(t)

	oversizedList := make([]string, 11)
	for i := range oversizedList {
		oversizedList[i] = fmt.Sprintf(`{"combo_id":%d,"quantity":1,"price_cents":100}`, i+1)
	}

	cases := map[string]string{
		"zero quantity":     `{"combo_id":1,"quantity":0,"price_cents":100}`,
		"quantity over cap": `{"combo_id":1,"quantity":99,"price_cents":100}`,
		"price over cap":    `{"combo_id":1,"quantity":1,"price_cents":4000000000}`,
		"missing combo id":  `{"quantity":1,"price_cents":100}`,
	}
	for name, item := range cases {
		t.Run(name, func(t *testing.T) {
			body := `{"showing_id":7,"seat_ids":[11],"gateway":"vnpay","items":[` + item + `]}`
			rec := postOrder(t, h, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	t.Run("too many items", func(t *testing.T) {
		body := `{"showing_id":7,"seat_ids":[11],"gateway":"vnpay","items":[` +
			strings.Join(oversizedList, ",") + `]}`
		rec := postOrder(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
	assert.NoError(t, mock.ExpectationsWereMet(), "item validation must reject before touching storage")
}
