package repository

import (
	"context"
	"fmt"

	"github.com/clipdigest/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `order_no, status, business_type, sku, plan, amount_cents, months,
		user_id, guest_id, email, checkout_url, provider_ref, created_at, updated_at`

// OrderRepository owns the payment_orders table.
type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row pgx.Row) (*domain.PaymentOrder, error) {
	var (
		o       domain.PaymentOrder
		userID  *int64
		guestID *string
		email   *string
		url     *string
		ref     *string
	)
	err := row.Scan(
		&o.OrderNo, &o.Status, &o.BusinessType, &o.SKU, &o.Plan,
		&o.AmountCents, &o.Months, &userID, &guestID, &email, &url, &ref,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		o.UserID = *userID
	}
	if guestID != nil {
		o.GuestID = *guestID
	}
	if email != nil {
		o.Email = *email
	}
	if url != nil {
		o.CheckoutURL = *url
	}
	if ref != nil {
		o.ProviderRef = *ref
	}
	return &o, nil
}

// Create persists a new order. Callers only reach this after the gateway
// call succeeded, so a gateway failure never leaves an orphan pending row.
func (r *OrderRepository) Create(ctx context.Context, o *domain.PaymentOrder) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO payment_orders
			(order_no, status, business_type, sku, plan, amount_cents, months,
			 user_id, guest_id, email, checkout_url, provider_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			NULLIF($8, 0), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), $13, $14)`,
		o.OrderNo, o.Status, o.BusinessType, o.SKU, o.Plan, o.AmountCents, o.Months,
		o.UserID, o.GuestID, o.Email, o.CheckoutURL, o.ProviderRef, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment order: %w", err)
	}
	return nil
}

// FindByOrderNo returns the order or nil when unknown.
func (r *OrderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*domain.PaymentOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM payment_orders WHERE order_no = $1", orderNo))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment order: %w", err)
	}
	return o, nil
}

// FindByProviderRef looks an order up by the gateway's own identifier
// (Stripe session id, PayPal order id).
func (r *OrderRepository) FindByProviderRef(ctx context.Context, ref string) (*domain.PaymentOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM payment_orders WHERE provider_ref = $1", ref))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment order: %w", err)
	}
	return o, nil
}

// MarkTerminal moves a pending order to its terminal state. The predicate
// keeps the transition single-shot: a row that already settled is left
// alone, and the false return tells the caller someone else got there first.
func (r *OrderRepository) MarkTerminal(ctx context.Context, orderNo string, status domain.OrderStatus) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE payment_orders SET status = $2, updated_at = NOW()
		WHERE order_no = $1 AND status = $3`,
		orderNo, status, domain.OrderPending)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
