package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipdigest/backend/internal/domain"
	"github.com/clipdigest/backend/internal/service"
)

// Real Google subs run past 20 decimal digits, well beyond int64.
const googleSub = "104858149296627663619185"

type fakeProvider struct {
	id  service.ProviderIdentity
	err error
}

func (p *fakeProvider) Verify(ctx context.Context, bearer string) (service.ProviderIdentity, error) {
	if p.err != nil {
		return service.ProviderIdentity{}, p.err
	}
	return p.id, nil
}

// fakeUserStore assigns sequential internal ids per provider subject.
type fakeUserStore struct {
	ids  map[string]int64
	next int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{ids: map[string]int64{}, next: 1}
}

func (f *fakeUserStore) Ensure(ctx context.Context, providerSub, email string) (int64, error) {
	if id, ok := f.ids[providerSub]; ok {
		return id, nil
	}
	id := f.next
	f.next++
	f.ids[providerSub] = id
	return id, nil
}

func TestGoogleProvider_Verify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("keeps an oversized sub intact", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"sub":"` + googleSub + `","email":"a@b.co"}`))
		}))
		defer srv.Close()

		pid, err := service.NewGoogleProvider(srv.URL).Verify(ctx, "bearer")

		require.NoError(t, err)
		assert.Equal(t, googleSub, pid.Sub)
		assert.Equal(t, "a@b.co", pid.Email)
	})

	t.Run("missing sub is a 401", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"email":"a@b.co"}`))
		}))
		defer srv.Close()

		_, err := service.NewGoogleProvider(srv.URL).Verify(ctx, "bearer")

		require.Error(t, err)
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 401, appErr.Code)
	})

	t.Run("provider rejection is a 401", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := service.NewGoogleProvider(srv.URL).Verify(ctx, "expired")

		require.Error(t, err)
		appErr, ok := domain.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 401, appErr.Code)
	})
}

func TestIdentityService_Exchange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provider := &fakeProvider{id: service.ProviderIdentity{Sub: googleSub, Email: "a@b.co"}}
	users := newFakeUserStore()
	svc := service.NewIdentityService("test-secret", provider, users)

	token, id, err := svc.Exchange(ctx, "bearer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.UserID)
	assert.Equal(t, "a@b.co", id.Email)

	verified, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, verified)

	// Same subject on a later login resolves to the same internal id.
	_, again, err := svc.Exchange(ctx, "bearer")
	require.NoError(t, err)
	assert.Equal(t, id.UserID, again.UserID)
}
