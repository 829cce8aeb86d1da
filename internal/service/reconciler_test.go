package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clipdigest/backend/internal/service"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestPollReconciler_Run(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("always pending stops after exactly ten attempts in error", func(t *testing.T) {
		t.Parallel()

		polls := 0
		rec := service.NewPollReconciler(func(ctx context.Context) (bool, error) {
			polls++
			return false, nil
		}, service.WithSleep(noSleep))

		state := rec.Run(ctx)

		assert.Equal(t, service.StateError, state)
		assert.Equal(t, 10, polls)
		assert.Equal(t, 10, rec.Attempts())
	})

	t.Run("success on the third attempt stops polling", func(t *testing.T) {
		t.Parallel()

		polls := 0
		rec := service.NewPollReconciler(func(ctx context.Context) (bool, error) {
			polls++
			return polls == 3, nil
		}, service.WithSleep(noSleep))

		state := rec.Run(ctx)

		assert.Equal(t, service.StateSuccess, state)
		assert.Equal(t, 3, polls)
	})

	t.Run("poll errors count as pending", func(t *testing.T) {
		t.Parallel()

		polls := 0
		rec := service.NewPollReconciler(func(ctx context.Context) (bool, error) {
			polls++
			if polls < 4 {
				return false, errors.New("network blip")
			}
			return true, nil
		}, service.WithSleep(noSleep))

		state := rec.Run(ctx)

		assert.Equal(t, service.StateSuccess, state)
		assert.Equal(t, 4, polls)
	})

	t.Run("context cancellation lands in error", func(t *testing.T) {
		t.Parallel()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		rec := service.NewPollReconciler(func(ctx context.Context) (bool, error) {
			return false, nil
		}, service.WithSleep(func(ctx context.Context, d time.Duration) error {
			return ctx.Err()
		}))

		state := rec.Run(cancelled)

		assert.Equal(t, service.StateError, state)
	})

	t.Run("attempt ceiling is configurable", func(t *testing.T) {
		t.Parallel()

		polls := 0
		rec := service.NewPollReconciler(func(ctx context.Context) (bool, error) {
			polls++
			return false, nil
		}, service.WithSleep(noSleep), service.WithMaxAttempts(2), service.WithPollInterval(time.Millisecond))

		assert.Equal(t, service.StateError, rec.Run(ctx))
		assert.Equal(t, 2, polls)
	})
}

func TestPollReconciler_Recheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("manual recheck after exhaustion can still succeed", func(t *testing.T) {
		t.Parallel()

		settled := false
		polls := 0
		rec := service.NewPollReconciler(func(ctx context.Context) (bool, error) {
			polls++
			return settled, nil
		}, service.WithSleep(noSleep))

		assert.Equal(t, service.StateError, rec.Run(ctx))

		// Still pending: stays in error, one extra poll outside the cadence.
		assert.Equal(t, service.StateError, rec.Recheck(ctx))
		assert.Equal(t, 11, polls)

		settled = true
		assert.Equal(t, service.StateSuccess, rec.Recheck(ctx))
	})

	t.Run("invalidated machine never polls", func(t *testing.T) {
		t.Parallel()

		polls := 0
		rec := service.NewPollReconciler(func(ctx context.Context) (bool, error) {
			polls++
			return true, nil
		}, service.WithSleep(noSleep))

		rec.Invalidate()

		assert.Equal(t, service.StateError, rec.State())
		assert.Equal(t, service.StateError, rec.Run(ctx))
		assert.Equal(t, service.StateError, rec.Recheck(ctx))
		assert.Equal(t, 0, polls)
	})
}
