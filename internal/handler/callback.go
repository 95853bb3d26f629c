package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/settlement"
)

// CallbackHandler terminates the gateway callback flows.  Each
// endpoint speaks its provider's acknowledgement dialect: VNPay's IPN
// wants an RspCode JSON no matter what, MoMo wants a 204.  Signature
// verification happens in the gateway adapter, settlement in the
// orchestrator; duplicates are acknowledged as success so providers
// stop redelivering.
type CallbackHandler struct {
	Orchestrator *settlement.Orchestrator
	VNPay        payment.Gateway
	MoMo         payment.Gateway
}

// NewCallbackHandler constructs a CallbackHandler.  All dependencies
// must be non-nil.
func NewCallbackHandler(orch *settlement.Orchestrator, vnp, momo payment.Gateway) *CallbackHandler {
	if orch == nil || vnp == nil || momo == nil {
		panic("nil dependency passed to NewCallbackHandler")
	}
	return &CallbackHandler{Orchestrator: orch, VNPay: vnp, MoMo: momo}
}

// VNPayReturn handles GET /v1/payments/vnpay/return, the browser
// redirect after the buyer leaves the payment page.  It settles the
// order (the IPN may or may not have arrived first; settlement is
// idempotent either way) and reports the outcome to the client.
func (h *CallbackHandler) VNPayReturn(c echo.Context) error {
	params := queryToMap(c)
	res, err := h.VNPay.VerifyCallback(params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify callback"})
	}
	if !res.Valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}
	out, err := h.Orchestrator.Settle(c.Request().Context(), h.VNPay.Name(), res)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settlement failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_id": out.Order.ID,
		"status":   out.Order.Status,
	})
}

// VNPayIPN handles GET /v1/payments/vnpay/ipn, the server-to-server
// confirmation.  VNPay retries until it receives RspCode "00", so
// duplicates and settled failures both acknowledge with "00"; only
// conditions the provider can fix (bad signature, unknown order) get
// their dedicated codes.
func (h *CallbackHandler) VNPayIPN(c echo.Context) error {
	params := queryToMap(c)
	res, err := h.VNPay.VerifyCallback(params)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"RspCode": "99", "Message": "Unknown error"})
	}
	if !res.Valid {
		return c.JSON(http.StatusOK, echo.Map{"RspCode": "97", "Message": "Invalid signature"})
	}
	out, err := h.Orchestrator.Settle(c.Request().Context(), h.VNPay.Name(), res)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"RspCode": "01", "Message": "Order not found"})
		}
		return c.JSON(http.StatusOK, echo.Map{"RspCode": "99", "Message": "Unknown error"})
	}
	if out.Duplicate {
		return c.JSON(http.StatusOK, echo.Map{"RspCode": "02", "Message": "Order already confirmed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"RspCode": "00", "Message": "Confirm Success"})
}

// MoMoIPN handles POST /v1/payments/momo/ipn.  MoMo delivers a JSON
// body and treats any 204 as a final acknowledgement.
func (h *CallbackHandler) MoMoIPN(c echo.Context) error {
	var raw map[string]interface{}
	if err := c.Bind(&raw); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.MoMo.VerifyCallback(flattenJSON(raw))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify callback"})
	}
	if !res.Valid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}
	if _, err := h.Orchestrator.Settle(c.Request().Context(), h.MoMo.Name(), res); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settlement failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// queryToMap flattens echo's url.Values into the single-valued map the
// gateway adapters verify against.
func queryToMap(c echo.Context) map[string]string {
	out := map[string]string{}
	for k, vs := range c.QueryParams() {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// flattenJSON renders a decoded JSON object as strings the way the
// provider formats them when signing: integers without an exponent or
// trailing zeros.
func flattenJSON(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(t)
		case nil:
			out[k] = ""
		}
	}
	return out
}
