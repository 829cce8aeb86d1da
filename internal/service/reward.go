package service

import (
	"context"

	"github.com/clipdigest/backend/internal/domain"
)

// RewardService handles the one-time survey-for-quota exchange.
type RewardService struct {
	store  UsageStore
	ledger *LedgerService
}

func NewRewardService(store UsageStore, ledger *LedgerService) *RewardService {
	return &RewardService{store: store, ledger: ledger}
}

// SubmitSurvey redeems the survey reward for a registered user. The survey
// insert and the counter credit run in one all-or-nothing transaction; a
// second submission observes a conflict and leaves the counters untouched.
func (s *RewardService) SubmitSurvey(ctx context.Context, userID int64, payload string) (*domain.UsageRecord, error) {
	if userID == 0 {
		return nil, domain.ErrUnauthorized("survey reward requires a registered user")
	}

	// Normalize the ledger row first so the credit lands in the current
	// billing period.
	if _, err := s.ledger.GetOrCreate(ctx, domain.Subject{UserID: userID}); err != nil {
		return nil, err
	}

	return s.store.SubmitSurvey(ctx, userID, payload, domain.RewardDownloadCredits)
}
