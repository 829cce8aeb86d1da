package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipdigest/backend/internal/domain"
	"github.com/clipdigest/backend/internal/service"
)

func TestRewardService_SubmitSurvey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first submission credits five downloads", func(t *testing.T) {
		t.Parallel()

		store := newFakeUsageStore()
		ledger := newLedger(store, march)
		reward := service.NewRewardService(store, ledger)

		_, err := ledger.Consume(ctx, domain.Subject{UserID: 3}, domain.ActionDownload)
		require.NoError(t, err)

		rec, err := reward.SubmitSurvey(ctx, 3, `{"q1":"yes"}`)

		require.NoError(t, err)
		assert.Equal(t, -4, rec.DownloadCount)
	})

	t.Run("credit may drive the counter negative", func(t *testing.T) {
		t.Parallel()

		store := newFakeUsageStore()
		reward := service.NewRewardService(store, newLedger(store, march))

		rec, err := reward.SubmitSurvey(ctx, 4, "{}")

		require.NoError(t, err)
		assert.Equal(t, -5, rec.DownloadCount)
	})

	t.Run("second submission conflicts and leaves counters alone", func(t *testing.T) {
		t.Parallel()

		store := newFakeUsageStore()
		ledger := newLedger(store, march)
		reward := service.NewRewardService(store, ledger)

		_, err := reward.SubmitSurvey(ctx, 8, "{}")
		require.NoError(t, err)

		_, err = reward.SubmitSurvey(ctx, 8, "{}")

		require.Error(t, err)
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 409, appErr.Code)

		rec, err := ledger.GetOrCreate(ctx, domain.Subject{UserID: 8})
		require.NoError(t, err)
		assert.Equal(t, -5, rec.DownloadCount)
	})

	t.Run("concurrent submissions credit exactly once", func(t *testing.T) {
		t.Parallel()

		store := newFakeUsageStore()
		ledger := newLedger(store, march)
		reward := service.NewRewardService(store, ledger)

		const racers = 8
		errs := make(chan error, racers)
		var wg sync.WaitGroup
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := reward.SubmitSurvey(ctx, 9, "{}")
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var ok, conflicts int
		for err := range errs {
			if err == nil {
				ok++
				continue
			}
			appErr, isApp := domain.AsAppError(err)
			require.True(t, isApp)
			assert.Equal(t, 409, appErr.Code)
			conflicts++
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, racers-1, conflicts)

		rec, err := ledger.GetOrCreate(ctx, domain.Subject{UserID: 9})
		require.NoError(t, err)
		assert.Equal(t, -5, rec.DownloadCount)
	})

	t.Run("anonymous submission is rejected", func(t *testing.T) {
		t.Parallel()

		store := newFakeUsageStore()
		reward := service.NewRewardService(store, newLedger(store, march))

		_, err := reward.SubmitSurvey(ctx, 0, "{}")

		require.Error(t, err)
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 401, appErr.Code)
	})
}
