package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipdigest/backend/internal/domain"
	"github.com/clipdigest/backend/internal/service"
)

var march = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newLedger(store *fakeUsageStore, now time.Time) *service.LedgerService {
	return service.NewLedgerService(store, domain.DefaultRegistry(), fixedClock(now))
}

func TestLedgerService_GetOrCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates a free record for a new subject", func(t *testing.T) {
		t.Parallel()

		ledger := newLedger(newFakeUsageStore(), march)

		rec, err := ledger.GetOrCreate(ctx, domain.Subject{GuestID: "guest-1"})

		require.NoError(t, err)
		assert.Equal(t, domain.PlanFree, rec.Plan)
		assert.Equal(t, 0, rec.DownloadCount)
		assert.Equal(t, 3, rec.LastResetMonth)
		assert.Equal(t, 2026, rec.LastResetYear)
	})

	t.Run("second call in the same month changes nothing", func(t *testing.T) {
		t.Parallel()

		store := newFakeUsageStore()
		ledger := newLedger(store, march)
		subject := domain.Subject{UserID: 7}

		_, err := ledger.GetOrCreate(ctx, subject)
		require.NoError(t, err)
		_, err = ledger.Consume(ctx, subject, domain.ActionDownload)
		require.NoError(t, err)

		rec, err := ledger.GetOrCreate(ctx, subject)

		require.NoError(t, err)
		assert.Equal(t, 1, rec.DownloadCount)
	})
}

func TestLedgerService_AllowanceWalkthrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// FREE download ceiling is 3: a subject at 2 is allowed, consumes to 3,
	// and is then blocked.
	store := newFakeUsageStore()
	ledger := newLedger(store, march)
	subject := domain.Subject{UserID: 42}

	_, err := ledger.GetOrCreate(ctx, subject)
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, subject, domain.ActionDownload, 2)
	require.NoError(t, err)

	allow, err := ledger.CheckAllowance(ctx, subject, domain.ActionDownload)
	require.NoError(t, err)
	assert.True(t, allow.Allowed)

	rec, err := ledger.Consume(ctx, subject, domain.ActionDownload)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.DownloadCount)

	allow, err = ledger.CheckAllowance(ctx, subject, domain.ActionDownload)
	require.NoError(t, err)
	assert.False(t, allow.Allowed)
}

func TestLedgerService_CheckAndConsume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("consumes while under the ceiling", func(t *testing.T) {
		t.Parallel()

		ledger := newLedger(newFakeUsageStore(), march)
		subject := domain.Subject{GuestID: "g-cc"}

		// Summary ceiling on FREE is 2.
		for i := 1; i <= 2; i++ {
			allow, err := ledger.CheckAndConsume(ctx, subject, domain.ActionSummary)
			require.NoError(t, err)
			assert.True(t, allow.Allowed)
			assert.Equal(t, i, allow.Usage.SummaryCount)
		}

		allow, err := ledger.CheckAndConsume(ctx, subject, domain.ActionSummary)
		require.NoError(t, err)
		assert.False(t, allow.Allowed)
		assert.Equal(t, 2, allow.Usage.SummaryCount)
	})

	t.Run("unknown action is a 400 and touches nothing", func(t *testing.T) {
		t.Parallel()

		store := newFakeUsageStore()
		ledger := newLedger(store, march)
		subject := domain.Subject{GuestID: "g-bad"}

		_, err := ledger.CheckAndConsume(ctx, subject, domain.Action("upload"))

		require.Error(t, err)
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.Code)

		_, err = ledger.Consume(ctx, subject, domain.Action("upload"))
		require.Error(t, err)
		assert.Empty(t, store.records)
	})

	t.Run("paid plan is effectively unlimited", func(t *testing.T) {
		t.Parallel()

		store := newFakeUsageStore()
		ledger := newLedger(store, march)
		subject := domain.Subject{UserID: 9}

		_, err := ledger.GetOrCreate(ctx, subject)
		require.NoError(t, err)
		_, err = ledger.Upgrade(ctx, subject, domain.PlanPro, march.AddDate(0, 1, 0))
		require.NoError(t, err)
		_, err = ledger.Credit(ctx, subject, domain.ActionDownload, 5000)
		require.NoError(t, err)

		allow, err := ledger.CheckAndConsume(ctx, subject, domain.ActionDownload)

		require.NoError(t, err)
		assert.True(t, allow.Allowed)
	})
}

func TestLedgerService_ExpiryDemotion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newFakeUsageStore()
	subject := domain.Subject{UserID: 11}

	// Upgrade in March with an expiry in April...
	ledger := newLedger(store, march)
	_, err := ledger.GetOrCreate(ctx, subject)
	require.NoError(t, err)
	expire := time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC)
	_, err = ledger.Upgrade(ctx, subject, domain.PlanPro, expire)
	require.NoError(t, err)

	// ...then read in May: demoted lazily, FREE ceilings apply again.
	may := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	ledgerLater := newLedger(store, may)

	rec, err := ledgerLater.GetOrCreate(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, rec.Plan)

	_, err = ledgerLater.Credit(ctx, subject, domain.ActionDownload, 3)
	require.NoError(t, err)
	allow, err := ledgerLater.CheckAllowance(ctx, subject, domain.ActionDownload)
	require.NoError(t, err)
	assert.False(t, allow.Allowed)
}

func TestLedgerService_CreditCanGoNegative(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ledger := newLedger(newFakeUsageStore(), march)
	subject := domain.Subject{UserID: 5}

	rec, err := ledger.Credit(ctx, subject, domain.ActionDownload, -domain.RewardDownloadCredits)

	require.NoError(t, err)
	assert.Equal(t, -5, rec.DownloadCount)

	allow, err := ledger.CheckAllowance(ctx, subject, domain.ActionDownload)
	require.NoError(t, err)
	assert.True(t, allow.Allowed)
}
