package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
)

// StripeGateway creates Checkout Sessions for the redirect flow.
type StripeGateway struct {
	successURL string
	cancelURL  string
}

// NewStripeGateway wires the Stripe API key and redirect URLs.
func NewStripeGateway(secretKey, successURL, cancelURL string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{successURL: successURL, cancelURL: cancelURL}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(p.OrderNo),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.DisplayName),
					},
				},
			},
		},
	}
	params.Context = ctx
	if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session create failed: %w", err)
	}
	return &CheckoutSession{URL: s.URL, ProviderRef: s.ID}, nil
}

func (g *StripeGateway) CheckStatus(ctx context.Context, providerRef string) (Status, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(providerRef, params)
	if err != nil {
		return StatusPending, fmt.Errorf("stripe checkout session get failed: %w", err)
	}
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return StatusPaid, nil
	case s.Status == stripe.CheckoutSessionStatusExpired:
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}
