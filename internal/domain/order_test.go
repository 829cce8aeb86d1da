package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipdigest/backend/internal/domain"
)

func timeMustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestPaymentOrder_Expired(t *testing.T) {
	t.Parallel()

	created := timeMustParse(t, "2026-03-01T00:00:00Z")

	t.Run("pending order within ttl", func(t *testing.T) {
		t.Parallel()

		o := &domain.PaymentOrder{Status: domain.OrderPending, CreatedAt: created}

		assert.False(t, o.Expired(created.Add(23*time.Hour)))
	})

	t.Run("pending order past ttl", func(t *testing.T) {
		t.Parallel()

		o := &domain.PaymentOrder{Status: domain.OrderPending, CreatedAt: created}

		assert.True(t, o.Expired(created.Add(25*time.Hour)))
	})

	t.Run("terminal orders never expire", func(t *testing.T) {
		t.Parallel()

		o := &domain.PaymentOrder{Status: domain.OrderConfirmed, CreatedAt: created}

		assert.False(t, o.Expired(created.Add(100*time.Hour)))
	})
}
