package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clipdigest/backend/internal/domain"
)

// fakeUsageStore is an in-memory UsageStore mirroring the repository's
// semantics: lazy normalization on GetOrCreate, unconditional counter
// updates, survey row as redemption guard.
type fakeUsageStore struct {
	mu      sync.Mutex
	records map[string]*domain.UsageRecord
	surveys map[int64]string
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{
		records: map[string]*domain.UsageRecord{},
		surveys: map[int64]string{},
	}
}

func subjectKey(s domain.Subject) string {
	if s.IsUser() {
		return fmt.Sprintf("u:%d", s.UserID)
	}
	return "g:" + s.GuestID
}

func (f *fakeUsageStore) GetOrCreate(ctx context.Context, subject domain.Subject, now time.Time) (*domain.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := subjectKey(subject)
	rec, ok := f.records[key]
	if !ok {
		rec = domain.NewUsageRecord(subject, now)
		f.records[key] = rec
	}
	domain.Normalize(rec, now)
	return rec, nil
}

func (f *fakeUsageStore) get(subject domain.Subject) (*domain.UsageRecord, error) {
	rec, ok := f.records[subjectKey(subject)]
	if !ok {
		return nil, domain.ErrInternal("usage record missing for subject", nil)
	}
	return rec, nil
}

func (f *fakeUsageStore) Increment(ctx context.Context, subject domain.Subject, action domain.Action) (*domain.UsageRecord, error) {
	return f.AddDelta(ctx, subject, action, 1)
}

func (f *fakeUsageStore) AddDelta(ctx context.Context, subject domain.Subject, action domain.Action, delta int) (*domain.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.get(subject)
	if err != nil {
		return nil, err
	}
	switch action {
	case domain.ActionDownload:
		rec.DownloadCount += delta
	case domain.ActionExtract:
		rec.ExtractionCount += delta
	case domain.ActionSummary:
		rec.SummaryCount += delta
	}
	return rec, nil
}

func (f *fakeUsageStore) Upgrade(ctx context.Context, subject domain.Subject, plan domain.Plan, expireTime time.Time) (*domain.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.get(subject)
	if err != nil {
		return nil, err
	}
	rec.Plan = plan
	rec.ExpireTime = &expireTime
	return rec, nil
}

func (f *fakeUsageStore) SubmitSurvey(ctx context.Context, userID int64, payload string, credits int) (*domain.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.surveys[userID]; dup {
		return nil, domain.ErrConflict("survey already submitted")
	}
	rec, err := f.get(domain.Subject{UserID: userID})
	if err != nil {
		return nil, err
	}
	f.surveys[userID] = payload
	rec.DownloadCount -= credits
	return rec, nil
}

// fakeOrderStore is an in-memory OrderStore with the single-shot terminal
// transition.
type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[string]*domain.PaymentOrder
	createErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]*domain.PaymentOrder{}}
}

func (f *fakeOrderStore) Create(ctx context.Context, o *domain.PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *o
	f.orders[o.OrderNo] = &cp
	return nil
}

func (f *fakeOrderStore) FindByOrderNo(ctx context.Context, orderNo string) (*domain.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderNo]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) FindByProviderRef(ctx context.Context, ref string) (*domain.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ProviderRef == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderStore) MarkTerminal(ctx context.Context, orderNo string, status domain.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderNo]
	if !ok || o.Status != domain.OrderPending {
		return false, nil
	}
	o.Status = status
	return true, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
