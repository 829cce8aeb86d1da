package payment

import (
	"context"
	"fmt"

	"github.com/plutov/paypal/v4"
)

// PayPalGateway drives the PayPal Orders API. The same client serves the
// redirect flow (approval link) and the smart-button flow (no redirect URL;
// the button script renders in-page and the server captures afterwards).
type PayPalGateway struct {
	client    *paypal.Client
	returnURL string
	cancelURL string
}

// NewPayPalGateway builds a client against the sandbox or live API base.
func NewPayPalGateway(clientID, secret string, live bool, returnURL, cancelURL string) (*PayPalGateway, error) {
	base := paypal.APIBaseSandBox
	if live {
		base = paypal.APIBaseLive
	}
	c, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		return nil, fmt.Errorf("paypal client init failed: %w", err)
	}
	return &PayPalGateway{client: c, returnURL: returnURL, cancelURL: cancelURL}, nil
}

func (g *PayPalGateway) CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	units := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: p.OrderNo,
			Description: p.DisplayName,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    p.Amount(),
			},
		},
	}
	appCtx := &paypal.ApplicationContext{
		ReturnURL: g.returnURL,
		CancelURL: g.cancelURL,
	}

	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, fmt.Errorf("paypal order create failed: %w", err)
	}

	var approveURL string
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
			break
		}
	}
	return &CheckoutSession{URL: approveURL, ProviderRef: order.ID}, nil
}

// CheckStatus reports settlement for a PayPal order. An order the payer has
// approved but the server has not captured yet is captured here, so the
// verify endpoint works the same for both PayPal flows.
func (g *PayPalGateway) CheckStatus(ctx context.Context, providerRef string) (Status, error) {
	order, err := g.client.GetOrder(ctx, providerRef)
	if err != nil {
		return StatusPending, fmt.Errorf("paypal order get failed: %w", err)
	}
	switch order.Status {
	case "COMPLETED":
		return StatusPaid, nil
	case "APPROVED":
		return g.Capture(ctx, providerRef)
	case "VOIDED":
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}

func (g *PayPalGateway) Capture(ctx context.Context, providerRef string) (Status, error) {
	resp, err := g.client.CaptureOrder(ctx, providerRef, paypal.CaptureOrderRequest{})
	if err != nil {
		return StatusPending, fmt.Errorf("paypal order capture failed: %w", err)
	}
	if resp.Status == "COMPLETED" {
		return StatusPaid, nil
	}
	return StatusPending, nil
}
