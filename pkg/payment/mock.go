package payment

import "context"

// MockGateway is a dummy implementation for tests and local development.
type MockGateway struct {
	// Err, when set, is returned from every call.
	Err error
	// PaidRefs marks provider refs that report as settled.
	PaidRefs map[string]bool
	// Created records the params of every CreateCheckout call.
	Created []CheckoutParams
}

func NewMockGateway() *MockGateway {
	return &MockGateway{PaidRefs: map[string]bool{}}
}

func (g *MockGateway) CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	g.Created = append(g.Created, p)
	return &CheckoutSession{
		URL:         "https://example.com/pay?order_no=" + p.OrderNo,
		ProviderRef: "mock_" + p.OrderNo,
	}, nil
}

func (g *MockGateway) CheckStatus(ctx context.Context, providerRef string) (Status, error) {
	if g.Err != nil {
		return StatusPending, g.Err
	}
	if g.PaidRefs[providerRef] {
		return StatusPaid, nil
	}
	return StatusPending, nil
}

func (g *MockGateway) Capture(ctx context.Context, providerRef string) (Status, error) {
	if g.Err != nil {
		return StatusPending, g.Err
	}
	g.PaidRefs[providerRef] = true
	return StatusPaid, nil
}
