package service

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/clipdigest/backend/internal/domain"
	"github.com/clipdigest/backend/pkg/payment"
)

// OrderStore is the persistence the payment service needs.
// *repository.OrderRepository implements it.
type OrderStore interface {
	Create(ctx context.Context, o *domain.PaymentOrder) error
	FindByOrderNo(ctx context.Context, orderNo string) (*domain.PaymentOrder, error)
	FindByProviderRef(ctx context.Context, ref string) (*domain.PaymentOrder, error)
	MarkTerminal(ctx context.Context, orderNo string, status domain.OrderStatus) (bool, error)
}

// VerifyResult is the verify endpoint's answer: did the order settle, and
// if so what does the ledger look like now.
type VerifyResult struct {
	Status string               `json:"status"` // success | pending | failed
	Order  *domain.PaymentOrder `json:"order,omitempty"`
	Usage  *domain.UsageRecord  `json:"usage,omitempty"`
}

// PaymentService creates checkout orders and reconciles their settlement
// into plan upgrades.
type PaymentService struct {
	orders   OrderStore
	ledger   *LedgerService
	prices   *domain.PriceTable
	gateways map[domain.BusinessType]payment.Gateway
	now      func() time.Time
}

// NewPaymentService wires the order store, ledger, price table and one
// gateway per business type. now is injectable for tests; nil means wall
// clock.
func NewPaymentService(orders OrderStore, ledger *LedgerService, prices *domain.PriceTable, gateways map[domain.BusinessType]payment.Gateway, now func() time.Time) *PaymentService {
	if now == nil {
		now = time.Now
	}
	return &PaymentService{orders: orders, ledger: ledger, prices: prices, gateways: gateways, now: now}
}

func (s *PaymentService) gateway(bt domain.BusinessType) (payment.Gateway, error) {
	gw, ok := s.gateways[bt]
	if !ok || gw == nil {
		return nil, domain.ErrInternal("no gateway configured for "+string(bt), nil)
	}
	return gw, nil
}

// CreateOrder opens a checkout for a SKU. The SKU is resolved before any
// network call; the gateway call must succeed before anything is persisted,
// so a gateway failure never leaves an orphan pending row.
func (s *PaymentService) CreateOrder(ctx context.Context, subject domain.Subject, email, sku string, bt domain.BusinessType) (*domain.PaymentOrder, error) {
	price, err := s.prices.Resolve(sku)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateway(bt)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderNo := domain.NewOrderNo(now)
	sess, err := gw.CreateCheckout(ctx, payment.CheckoutParams{
		OrderNo:     orderNo,
		SKU:         sku,
		DisplayName: price.DisplayName,
		AmountCents: price.AmountCents,
		Email:       email,
	})
	if err != nil {
		return nil, domain.ErrUpstream("payment gateway unavailable", err)
	}

	order := &domain.PaymentOrder{
		OrderNo:      orderNo,
		Status:       domain.OrderPending,
		BusinessType: bt,
		SKU:          sku,
		Plan:         price.Plan,
		AmountCents:  price.AmountCents,
		Months:       price.Months,
		UserID:       subject.UserID,
		GuestID:      subject.GuestID,
		Email:        email,
		CheckoutURL:  sess.URL,
		ProviderRef:  sess.ProviderRef,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, domain.ErrInternal("failed to persist order", err)
	}
	return order, nil
}

// CreateSmartOrder opens a PayPal smart-button checkout. The gateway call
// already succeeded by the time we persist, and the button flow must
// proceed regardless, so a persistence failure here is logged and
// swallowed rather than failing the request.
func (s *PaymentService) CreateSmartOrder(ctx context.Context, subject domain.Subject, email, sku string) (*domain.PaymentOrder, error) {
	price, err := s.prices.Resolve(sku)
	if err != nil {
		return nil, err
	}
	gw, err := s.gateway(domain.BusinessPayPalSmart)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderNo := domain.NewOrderNo(now)
	sess, err := gw.CreateCheckout(ctx, payment.CheckoutParams{
		OrderNo:     orderNo,
		SKU:         sku,
		DisplayName: price.DisplayName,
		AmountCents: price.AmountCents,
		Email:       email,
	})
	if err != nil {
		return nil, domain.ErrUpstream("payment gateway unavailable", err)
	}

	order := &domain.PaymentOrder{
		OrderNo:      orderNo,
		Status:       domain.OrderPending,
		BusinessType: domain.BusinessPayPalSmart,
		SKU:          sku,
		Plan:         price.Plan,
		AmountCents:  price.AmountCents,
		Months:       price.Months,
		UserID:       subject.UserID,
		GuestID:      subject.GuestID,
		Email:        email,
		// Smart-button flows render in-page; there is no redirect URL.
		CheckoutURL: "smart_button",
		ProviderRef: sess.ProviderRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		log.Printf("smart order log failed (order_no=%s): %v", orderNo, err)
	}
	return order, nil
}

// CaptureSmart captures an approved smart-button order and, on settlement,
// confirms it and upgrades the ledger.
func (s *PaymentService) CaptureSmart(ctx context.Context, providerRef string) (*VerifyResult, error) {
	order, err := s.orders.FindByProviderRef(ctx, providerRef)
	if err != nil {
		return nil, domain.ErrInternal("failed to load order", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound("unknown paypal order")
	}

	gw, err := s.gateway(domain.BusinessPayPalSmart)
	if err != nil {
		return nil, err
	}
	capturer, ok := gw.(payment.CaptureGateway)
	if !ok {
		return nil, domain.ErrInternal("gateway does not support capture", nil)
	}

	status, err := capturer.Capture(ctx, providerRef)
	if err != nil {
		return nil, domain.ErrUpstream("payment gateway unavailable", err)
	}
	return s.settle(ctx, order, status)
}

// Verify is the backend half of the client-driven reconciler: it proxies a
// redirect query to the owning gateway and performs the confirm-and-upgrade
// on settlement. The caller must supply both correlation parameters
// (order_no plus the gateway's session/token ref); a request missing either
// is rejected outright, with no gateway call.
func (s *PaymentService) Verify(ctx context.Context, query url.Values) (*VerifyResult, error) {
	orderNo := query.Get("order_no")
	ref := query.Get("session_id")
	if ref == "" {
		ref = query.Get("token")
	}
	if orderNo == "" || ref == "" {
		return nil, domain.ErrBadRequest("missing payment correlation parameters")
	}

	order, err := s.orders.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, domain.ErrInternal("failed to load order", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound("unknown order")
	}
	// The gateway ref must be the one issued for this order, or a settled
	// session from some other order could confirm it.
	if ref != order.ProviderRef {
		return nil, domain.ErrBadRequest("payment reference does not match order")
	}

	switch order.Status {
	case domain.OrderConfirmed:
		// Re-poll after settlement is a no-op.
		return &VerifyResult{Status: "success", Order: order}, nil
	case domain.OrderFailed:
		return &VerifyResult{Status: "failed", Order: order}, nil
	}

	if order.Expired(s.now()) {
		// Lazy TTL for abandoned checkouts; no cleanup job exists.
		if _, err := s.orders.MarkTerminal(ctx, order.OrderNo, domain.OrderFailed); err != nil {
			return nil, domain.ErrInternal("failed to expire order", err)
		}
		order.Status = domain.OrderFailed
		return &VerifyResult{Status: "failed", Order: order}, nil
	}

	gw, err := s.gateway(order.BusinessType)
	if err != nil {
		return nil, err
	}
	status, err := gw.CheckStatus(ctx, ref)
	if err != nil {
		// The client owns retry; report pending and let it poll again.
		log.Printf("verify: gateway check failed (order_no=%s): %v", order.OrderNo, err)
		return &VerifyResult{Status: "pending", Order: order}, nil
	}
	return s.settle(ctx, order, status)
}

// settle folds a gateway status into the order row and, on payment, the
// ledger. Confirm-then-upgrade is the one cross-aggregate write in the
// system; the terminal transition is single-shot so the upgrade runs at
// most once.
func (s *PaymentService) settle(ctx context.Context, order *domain.PaymentOrder, status payment.Status) (*VerifyResult, error) {
	switch status {
	case payment.StatusPaid:
		won, err := s.orders.MarkTerminal(ctx, order.OrderNo, domain.OrderConfirmed)
		if err != nil {
			return nil, domain.ErrInternal("failed to confirm order", err)
		}
		order.Status = domain.OrderConfirmed
		res := &VerifyResult{Status: "success", Order: order}
		if !won {
			return res, nil
		}
		subject := domain.Subject{UserID: order.UserID, GuestID: order.GuestID}
		if subject.IsZero() {
			log.Printf("confirmed order %s has no subject, skipping ledger upgrade", order.OrderNo)
			return res, nil
		}
		expire := s.now().AddDate(0, order.Months, 0)
		usage, err := s.ledger.Upgrade(ctx, subject, order.Plan, expire)
		if err != nil {
			return nil, domain.ErrInternal("failed to upgrade plan", err)
		}
		res.Usage = usage
		return res, nil

	case payment.StatusFailed:
		if _, err := s.orders.MarkTerminal(ctx, order.OrderNo, domain.OrderFailed); err != nil {
			return nil, domain.ErrInternal("failed to fail order", err)
		}
		order.Status = domain.OrderFailed
		return &VerifyResult{Status: "failed", Order: order}, nil

	default:
		return &VerifyResult{Status: "pending", Order: order}, nil
	}
}
