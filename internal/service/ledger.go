package service

import (
	"context"
	"time"

	"github.com/clipdigest/backend/internal/domain"
)

// UsageStore is the persistence the ledger needs. *repository.UsageRepository
// implements it; tests substitute an in-memory fake.
type UsageStore interface {
	GetOrCreate(ctx context.Context, subject domain.Subject, now time.Time) (*domain.UsageRecord, error)
	Increment(ctx context.Context, subject domain.Subject, action domain.Action) (*domain.UsageRecord, error)
	AddDelta(ctx context.Context, subject domain.Subject, action domain.Action, delta int) (*domain.UsageRecord, error)
	Upgrade(ctx context.Context, subject domain.Subject, plan domain.Plan, expireTime time.Time) (*domain.UsageRecord, error)
	SubmitSurvey(ctx context.Context, userID int64, payload string, credits int) (*domain.UsageRecord, error)
}

// LedgerService owns per-subject usage counters and plan state.
type LedgerService struct {
	store    UsageStore
	registry *domain.Registry
	now      func() time.Time
}

// NewLedgerService creates a LedgerService. now is injectable for tests;
// pass nil for the wall clock.
func NewLedgerService(store UsageStore, registry *domain.Registry, now func() time.Time) *LedgerService {
	if now == nil {
		now = time.Now
	}
	return &LedgerService{store: store, registry: registry, now: now}
}

// GetOrCreate returns the subject's record for the current billing period.
// Rollover and expiry demotion happen lazily inside the store; no record is
// ever handed out stale.
func (s *LedgerService) GetOrCreate(ctx context.Context, subject domain.Subject) (*domain.UsageRecord, error) {
	return s.store.GetOrCreate(ctx, subject, s.now())
}

// Every counter mutation is keyed by action; an unknown one would reach the
// store's column mapping, so it is rejected here for all entry points.
func validateAction(action domain.Action) error {
	if !domain.ValidAction(string(action)) {
		return domain.ErrBadRequest("unknown action type: " + string(action))
	}
	return nil
}

// CheckAllowance reports whether the subject may perform the action, without
// consuming anything.
func (s *LedgerService) CheckAllowance(ctx context.Context, subject domain.Subject, action domain.Action) (domain.Allowance, error) {
	if err := validateAction(action); err != nil {
		return domain.Allowance{}, err
	}
	rec, err := s.GetOrCreate(ctx, subject)
	if err != nil {
		return domain.Allowance{}, err
	}
	return s.allowance(rec, action), nil
}

func (s *LedgerService) allowance(rec *domain.UsageRecord, action domain.Action) domain.Allowance {
	ceiling := s.registry.LimitsFor(rec.Plan).Ceiling(action)
	return domain.Allowance{Allowed: rec.Count(action) < ceiling, Usage: rec}
}

// Consume unconditionally increments the action's counter. Callers wanting
// check-and-consume semantics use CheckAndConsume; the check/increment pair
// is not atomic and a concurrent pair can overshoot the ceiling by one,
// which is an accepted soft limit.
func (s *LedgerService) Consume(ctx context.Context, subject domain.Subject, action domain.Action) (*domain.UsageRecord, error) {
	if err := validateAction(action); err != nil {
		return nil, err
	}
	if _, err := s.GetOrCreate(ctx, subject); err != nil {
		return nil, err
	}
	return s.store.Increment(ctx, subject, action)
}

// CheckAndConsume checks the ceiling and, when allowed, consumes one unit.
func (s *LedgerService) CheckAndConsume(ctx context.Context, subject domain.Subject, action domain.Action) (domain.Allowance, error) {
	if err := validateAction(action); err != nil {
		return domain.Allowance{}, err
	}
	rec, err := s.GetOrCreate(ctx, subject)
	if err != nil {
		return domain.Allowance{}, err
	}
	allow := s.allowance(rec, action)
	if !allow.Allowed {
		return allow, nil
	}
	updated, err := s.store.Increment(ctx, subject, action)
	if err != nil {
		return domain.Allowance{}, err
	}
	return domain.Allowance{Allowed: true, Usage: updated}, nil
}

// Credit applies a signed delta to the action's consumed counter. A negative
// delta grants allowance and may drive the counter below zero.
func (s *LedgerService) Credit(ctx context.Context, subject domain.Subject, action domain.Action, delta int) (*domain.UsageRecord, error) {
	if err := validateAction(action); err != nil {
		return nil, err
	}
	if _, err := s.GetOrCreate(ctx, subject); err != nil {
		return nil, err
	}
	return s.store.AddDelta(ctx, subject, action, delta)
}

// Upgrade sets the subject's plan and expiry, used on confirmed payment.
// It only changes the ceiling, never the counters, so ordering against a
// concurrent Consume cannot corrupt state.
func (s *LedgerService) Upgrade(ctx context.Context, subject domain.Subject, plan domain.Plan, expireTime time.Time) (*domain.UsageRecord, error) {
	if _, err := s.GetOrCreate(ctx, subject); err != nil {
		return nil, err
	}
	return s.store.Upgrade(ctx, subject, plan, expireTime)
}

// Registry exposes the plan limits table for the public plans endpoint.
func (s *LedgerService) Registry() *domain.Registry {
	return s.registry
}
