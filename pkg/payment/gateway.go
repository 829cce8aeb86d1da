package payment

import (
	"context"
	"fmt"
)

// Status is the gateway-side settlement state of a checkout.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// CheckoutParams describes one checkout to open with a gateway. OrderNo is
// our locally generated order number; it is attached to the gateway session
// so redirects can be correlated back to the order row.
type CheckoutParams struct {
	OrderNo     string
	SKU         string
	DisplayName string
	AmountCents int64
	Email       string
}

// Amount formats the charge the way decimal-string gateways want it ("9.99").
func (p CheckoutParams) Amount() string {
	return fmt.Sprintf("%d.%02d", p.AmountCents/100, p.AmountCents%100)
}

// CheckoutSession is what a gateway returns for a newly created checkout.
// URL is empty for smart-button flows, which render in-page instead of
// redirecting.
type CheckoutSession struct {
	URL         string
	ProviderRef string
}

// Gateway is the interface payment providers implement.
type Gateway interface {
	// CreateCheckout opens a checkout with the provider.
	CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	// CheckStatus asks the provider whether the checkout settled.
	CheckStatus(ctx context.Context, providerRef string) (Status, error)
}

// CaptureGateway is implemented by providers whose smart-button flow needs
// an explicit server-side capture step.
type CaptureGateway interface {
	Gateway
	Capture(ctx context.Context, providerRef string) (Status, error)
}
