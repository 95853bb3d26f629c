package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// MoMoConfig holds the partner credentials and endpoints issued by
// MoMo.  SecretKey signs the create-payment request and verifies the
// IPN callback.
type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	RedirectURL string
	IPNURL      string
}

// MoMo implements the MoMo wallet flow.  Unlike VNPay, the charge is
// created by a server-to-server POST: the adapter signs the request
// with HMAC-SHA256 over a fixed-order field string and receives the
// pay URL in the response.  Amounts travel in base units unchanged.
type MoMo struct {
	cfg    MoMoConfig
	client *http.Client
}

// NewMoMo returns an adapter for the given partner credentials.  A nil
// client gets a default with a 10s timeout.
func NewMoMo(cfg MoMoConfig, client *http.Client) *MoMo {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &MoMo{cfg: cfg, client: client}
}

// Name identifies the adapter; it matches the payments.gateway column.
func (g *MoMo) Name() string { return "momo" }

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
}

// BuildCharge signs and posts a captureWallet create-payment request
// and returns the pay URL MoMo answers with.  The order UUID is used
// directly as the provider-side orderId, so the IPN maps back to the
// order without a lookup table.
func (g *MoMo) BuildCharge(ctx context.Context, req ChargeRequest) (*ChargeIntent, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("momo: empty order id")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("momo: non-positive amount %d", req.Amount)
	}
	requestID := uuid.NewString()
	raw := fmt.Sprintf("accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		g.cfg.AccessKey, req.Amount, "", g.cfg.IPNURL, req.OrderID, req.OrderInfo,
		g.cfg.PartnerCode, g.cfg.RedirectURL, requestID, "captureWallet")
	body := momoCreateRequest{
		PartnerCode: g.cfg.PartnerCode,
		RequestID:   requestID,
		Amount:      req.Amount,
		OrderID:     req.OrderID,
		OrderInfo:   req.OrderInfo,
		RedirectURL: g.cfg.RedirectURL,
		IPNURL:      g.cfg.IPNURL,
		RequestType: "captureWallet",
		ExtraData:   "",
		Lang:        "vi",
		Signature:   momoSign(g.cfg.SecretKey, raw),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("momo: create payment: %w", err)
	}
	defer resp.Body.Close()
	var out momoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("momo: decode response: %w", err)
	}
	if out.ResultCode != 0 {
		return nil, fmt.Errorf("momo: create payment rejected: %d %s", out.ResultCode, out.Message)
	}
	return &ChargeIntent{
		Gateway:    g.Name(),
		GatewayRef: requestID,
		PayURL:     out.PayURL,
	}, nil
}

// VerifyCallback checks the IPN signature.  MoMo signs the IPN over a
// fixed field order that differs from the create-request order; both
// use HMAC-SHA256 with the partner secret.
func (g *MoMo) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	res := &CallbackResult{Raw: params}
	sig := params["signature"]
	if sig == "" {
		return res, nil
	}
	raw := fmt.Sprintf("accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		g.cfg.AccessKey, params["amount"], params["extraData"], params["message"],
		params["orderId"], params["orderInfo"], params["orderType"], params["partnerCode"],
		params["payType"], params["requestId"], params["responseTime"], params["resultCode"],
		params["transId"])
	if !hmac.Equal([]byte(sig), []byte(momoSign(g.cfg.SecretKey, raw))) {
		return res, nil
	}
	res.Valid = true
	res.OrderID = params["orderId"]
	res.GatewayRef = params["transId"]
	res.ResponseCode = params["resultCode"]
	res.Message = params["message"]
	if raw := params["amount"]; raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("momo: bad amount %q: %w", raw, err)
		}
		res.Amount = amount
	}
	if res.ResponseCode == "0" {
		res.Outcome = OutcomeSuccess
	} else {
		res.Outcome = OutcomeFailure
	}
	return res, nil
}

func momoSign(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
