// Package payment contains the gateway adapters for the two supported
// payment providers.  Each adapter knows how to build a signed charge
// for its provider and how to verify the signature of a callback the
// provider sends back.  Everything downstream of signature
// verification is provider-agnostic and lives in the settlement
// package.
package payment

import "context"

// Outcome is the provider-agnostic result of a verified callback.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// ChargeRequest carries what the adapters need to start a payment.
// Amount is in the smallest currency unit; adapters apply their own
// wire scaling.
type ChargeRequest struct {
	OrderID   string
	Amount    int64
	OrderInfo string
	ClientIP  string
}

// ChargeIntent is the result of initiating a charge: the URL the buyer
// is redirected to and the reference the provider will echo back in
// its callback.
type ChargeIntent struct {
	Gateway    string
	GatewayRef string
	PayURL     string
}

// CallbackResult is the verified, normalized content of a provider
// callback.  Valid is false when the signature does not check out; in
// that case every other field except Raw is meaningless and the
// callback must be ignored.
type CallbackResult struct {
	Valid        bool
	Outcome      Outcome
	OrderID      string
	GatewayRef   string
	Amount       int64
	ResponseCode string
	Message      string
	Raw          map[string]string
}

// Gateway is the adapter contract.  BuildCharge may call out to the
// provider (MoMo does); VerifyCallback is always local computation.
type Gateway interface {
	Name() string
	BuildCharge(ctx context.Context, req ChargeRequest) (*ChargeIntent, error)
	VerifyCallback(params map[string]string) (*CallbackResult, error)
}
