package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a checkout attempt. An order starts
// pending and transitions at most once to a terminal state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderFailed    OrderStatus = "failed"
)

// BusinessType records which gateway/flow created an order.
type BusinessType string

const (
	BusinessStripeCheckout BusinessType = "stripe_checkout"
	BusinessPayPalCheckout BusinessType = "paypal_checkout"
	BusinessPayPalSmart    BusinessType = "paypal_smart"
)

// PendingOrderTTL bounds how long an abandoned order stays pending. An order
// older than this is lazily marked failed the next time the verifier sees it.
const PendingOrderTTL = 24 * time.Hour

// PaymentOrder is one row per checkout attempt. The subject fields are
// denormalized so reconciliation never needs a join.
type PaymentOrder struct {
	OrderNo      string       `json:"orderNo"`
	Status       OrderStatus  `json:"status"`
	BusinessType BusinessType `json:"businessType"`
	SKU          string       `json:"type"`
	Plan         Plan         `json:"plan"`
	AmountCents  int64        `json:"amount"`
	Months       int          `json:"-"`
	UserID       int64        `json:"userId,omitempty"`
	GuestID      string       `json:"guestId,omitempty"`
	Email        string       `json:"email,omitempty"`
	CheckoutURL  string       `json:"checkoutUrl,omitempty"`
	ProviderRef  string       `json:"providerRef,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Expired reports whether a still-pending order has outlived its TTL.
func (o *PaymentOrder) Expired(now time.Time) bool {
	return o.Status == OrderPending && now.Sub(o.CreatedAt) > PendingOrderTTL
}

// NewOrderNo generates a globally unique, human-diagnosable order number.
// It is minted locally before any gateway round-trip so the system always
// has an identifier to persist.
func NewOrderNo(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102150405"), uuid.NewString()[:8])
}
