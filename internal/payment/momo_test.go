package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMoMoConfig(endpoint string) MoMoConfig {
	return MoMoConfig{
		PartnerCode: "MOMODEMO",
		AccessKey:   "access123",
		SecretKey:   "secret456",
		Endpoint:    endpoint,
		RedirectURL: "https://tickets.example.com/payment/result",
		IPNURL:      "https://tickets.example.com/v1/payments/momo/ipn",
	}
}

func TestMoMoBuildChargeSignsCreateRequest(t *testing.T) {
	var got momoCreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(momoCreateResponse{ResultCode: 0, PayURL: "https://test-payment.momo.vn/pay/abc"})
	}))
	defer srv.Close()

	g := NewMoMo(testMoMoConfig(srv.URL), srv.Client())
	intent, err := g.BuildCharge(context.Background(), ChargeRequest{
		OrderID:   "7f9c24e8-3b12-4c61-9f0a-5d8a1b2c3d4e",
		Amount:    180000,
		OrderInfo: "Thanh toan don hang",
	})
	require.NoError(t, err)
	assert.Equal(t, "momo", intent.Gateway)
	assert.Equal(t, "https://test-payment.momo.vn/pay/abc", intent.PayURL)
	assert.Equal(t, got.RequestID, intent.GatewayRef)

	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=captureWallet",
		g.cfg.AccessKey, got.Amount, g.cfg.IPNURL, got.OrderID, got.OrderInfo, g.cfg.PartnerCode, g.cfg.RedirectURL, got.RequestID)
	assert.Equal(t, momoSign(g.cfg.SecretKey, raw), got.Signature)
	assert.Equal(t, int64(180000), got.Amount, "momo amounts stay in base units")
}

func TestMoMoBuildChargeRejectedByProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(momoCreateResponse{ResultCode: 41, Message: "duplicate orderId"})
	}))
	defer srv.Close()

	g := NewMoMo(testMoMoConfig(srv.URL), srv.Client())
	_, err := g.BuildCharge(context.Background(), ChargeRequest{OrderID: "abc", Amount: 1000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "41")
}

func signedMoMoIPN(g *MoMo, params map[string]string) map[string]string {
	raw := fmt.Sprintf("accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		g.cfg.AccessKey, params["amount"], params["extraData"], params["message"],
		params["orderId"], params["orderInfo"], params["orderType"], params["partnerCode"],
		params["payType"], params["requestId"], params["responseTime"], params["resultCode"],
		params["transId"])
	out := make(map[string]string, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out["signature"] = momoSign(g.cfg.SecretKey, raw)
	return out
}

func TestMoMoSuccessIPN(t *testing.T) {
	g := NewMoMo(testMoMoConfig("unused"), nil)
	params := signedMoMoIPN(g, map[string]string{
		"partnerCode":  "MOMODEMO",
		"orderId":      "7f9c24e8-3b12-4c61-9f0a-5d8a1b2c3d4e",
		"requestId":    "req-1",
		"amount":       "180000",
		"orderInfo":    "Thanh toan don hang",
		"orderType":    "momo_wallet",
		"transId":      "4088878653",
		"resultCode":   "0",
		"message":      "Successful.",
		"payType":      "qr",
		"responseTime": "1748772645000",
		"extraData":    "",
	})
	res, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, "7f9c24e8-3b12-4c61-9f0a-5d8a1b2c3d4e", res.OrderID)
	assert.Equal(t, "4088878653", res.GatewayRef)
	assert.Equal(t, int64(180000), res.Amount)
}

func TestMoMoFailureIPN(t *testing.T) {
	g := NewMoMo(testMoMoConfig("unused"), nil)
	params := signedMoMoIPN(g, map[string]string{
		"orderId":    "7f9c24e8-3b12-4c61-9f0a-5d8a1b2c3d4e",
		"amount":     "180000",
		"resultCode": "1006",
		"message":    "Transaction denied by user.",
	})
	res, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, OutcomeFailure, res.Outcome)
}

func TestMoMoRejectsForgedIPN(t *testing.T) {
	g := NewMoMo(testMoMoConfig("unused"), nil)
	params := signedMoMoIPN(g, map[string]string{
		"orderId":    "7f9c24e8-3b12-4c61-9f0a-5d8a1b2c3d4e",
		"amount":     "180000",
		"resultCode": "0",
	})
	params["amount"] = "1"
	res, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = g.VerifyCallback(map[string]string{"orderId": "x", "resultCode": "0"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
}
