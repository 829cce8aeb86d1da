package payment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clipdigest/backend/pkg/payment"
)

func TestCheckoutParams_Amount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "9.99", payment.CheckoutParams{AmountCents: 999}.Amount())
	assert.Equal(t, "119.99", payment.CheckoutParams{AmountCents: 11999}.Amount())
	assert.Equal(t, "10.05", payment.CheckoutParams{AmountCents: 1005}.Amount())
}
