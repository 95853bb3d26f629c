package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// vnpTimeZone is the provider's clock; VNPay timestamps are always GMT+7.
var vnpTimeZone = time.FixedZone("ICT", 7*60*60)

// VNPayConfig holds the merchant credentials and endpoints issued by
// VNPay.  HashSecret signs every outgoing request and verifies every
// callback.
type VNPayConfig struct {
	TmnCode    string
	HashSecret string
	BaseURL    string
	ReturnURL  string
}

// VNPay implements the VNPay payment-page flow: the charge is a signed
// redirect URL, the callback comes back as query parameters signed
// with HMAC-SHA512 over the sorted, url-encoded parameter string.
type VNPay struct {
	cfg VNPayConfig
	now func() time.Time
}

// NewVNPay returns an adapter for the given merchant credentials.
func NewVNPay(cfg VNPayConfig) *VNPay {
	return &VNPay{cfg: cfg, now: time.Now}
}

// Name identifies the adapter; it matches the payments.gateway column.
func (g *VNPay) Name() string { return "vnpay" }

// BuildCharge constructs the signed payment-page URL.  The transaction
// reference embeds the order ID plus an HHmmss suffix so that retried
// charges for the same order get distinct references.
func (g *VNPay) BuildCharge(_ context.Context, req ChargeRequest) (*ChargeIntent, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("vnpay: empty order id")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("vnpay: non-positive amount %d", req.Amount)
	}
	now := g.now().In(vnpTimeZone)
	txnRef := "VNP" + req.OrderID + now.Format("150405")
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Locale":     "vn",
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": now.Format("20060102150405"),
	}
	data := vnpHashData(params)
	sig := vnpSign(g.cfg.HashSecret, data)
	return &ChargeIntent{
		Gateway:    g.Name(),
		GatewayRef: txnRef,
		PayURL:     g.cfg.BaseURL + "?" + data + "&vnp_SecureHash=" + sig,
	}, nil
}

// VerifyCallback checks the vnp_SecureHash over every vnp_ parameter
// except the hash fields themselves, then normalizes the result.  The
// wire amount is the real amount multiplied by 100, so it is divided
// back down here.
func (g *VNPay) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	res := &CallbackResult{Raw: params}
	sig := params["vnp_SecureHash"]
	if sig == "" {
		return res, nil
	}
	filtered := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		filtered[k] = v
	}
	expected := vnpSign(g.cfg.HashSecret, vnpHashData(filtered))
	if !hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected)) {
		return res, nil
	}
	res.Valid = true
	res.GatewayRef = params["vnp_TxnRef"]
	res.OrderID = orderIDFromTxnRef(res.GatewayRef)
	res.ResponseCode = params["vnp_ResponseCode"]
	res.Message = params["vnp_OrderInfo"]
	if raw := params["vnp_Amount"]; raw != "" {
		wire, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("vnpay: bad amount %q: %w", raw, err)
		}
		res.Amount = wire / 100
	}
	if res.ResponseCode == "00" {
		res.Outcome = OutcomeSuccess
	} else {
		res.Outcome = OutcomeFailure
	}
	return res, nil
}

// orderIDFromTxnRef strips the VNP prefix and the HHmmss suffix added
// by BuildCharge.  A malformed reference yields an empty order ID,
// which the callback handler treats as order-not-found.
func orderIDFromTxnRef(ref string) string {
	if !strings.HasPrefix(ref, "VNP") || len(ref) <= 9 {
		return ""
	}
	return ref[3 : len(ref)-6]
}

// vnpHashData renders params as the sorted, url-encoded k=v&k=v string
// VNPay signs.  The same string doubles as the redirect query.
func vnpHashData(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

func vnpSign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
