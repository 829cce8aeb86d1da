package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/clipdigest/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usageColumns = `id, user_id, guest_id, plan, download_count, extraction_count,
		summary_count, last_reset_month, last_reset_year, expire_time, created_at, updated_at`

// UsageRepository owns the usage_records table and the survey-reward
// transaction.
type UsageRepository struct {
	db *pgxpool.Pool
}

func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: db}
}

// subjectWhere returns the predicate and argument that pin a query to one
// subject's row.
func subjectWhere(subject domain.Subject) (string, any) {
	if subject.IsUser() {
		return "user_id = $1", subject.UserID
	}
	return "guest_id = $1", subject.GuestID
}

func scanUsage(row pgx.Row) (*domain.UsageRecord, error) {
	var (
		rec     domain.UsageRecord
		userID  *int64
		guestID *string
	)
	err := row.Scan(
		&rec.ID, &userID, &guestID, &rec.Plan,
		&rec.DownloadCount, &rec.ExtractionCount, &rec.SummaryCount,
		&rec.LastResetMonth, &rec.LastResetYear, &rec.ExpireTime,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		rec.UserID = *userID
	}
	if guestID != nil {
		rec.GuestID = *guestID
	}
	return &rec, nil
}

// GetOrCreate fetches the subject's record, creating a fresh FREE row when
// absent. The row is locked, normalized for the given instant (period
// rollover, then expiry demotion, as two separate updates) and the result
// committed before it is returned.
func (r *UsageRepository) GetOrCreate(ctx context.Context, subject domain.Subject, now time.Time) (*domain.UsageRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin usage tx: %w", err)
	}
	defer tx.Rollback(ctx)

	where, arg := subjectWhere(subject)
	rec, err := scanUsage(tx.QueryRow(ctx,
		"SELECT "+usageColumns+" FROM usage_records WHERE "+where+" FOR UPDATE", arg))
	if err == pgx.ErrNoRows {
		fresh := domain.NewUsageRecord(subject, now)
		// Concurrent first-touch races on the unique index; DO NOTHING and
		// re-lock whichever row won.
		_, err = tx.Exec(ctx, `
			INSERT INTO usage_records (user_id, guest_id, plan, last_reset_month, last_reset_year)
			VALUES (NULLIF($1, 0), NULLIF($2, ''), $3, $4, $5)
			ON CONFLICT DO NOTHING`,
			fresh.UserID, fresh.GuestID, fresh.Plan, fresh.LastResetMonth, fresh.LastResetYear)
		if err == nil {
			rec, err = scanUsage(tx.QueryRow(ctx,
				"SELECT "+usageColumns+" FROM usage_records WHERE "+where+" FOR UPDATE", arg))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load usage record: %w", err)
	}

	res := domain.Normalize(rec, now)
	if res.Rollover {
		_, err = tx.Exec(ctx, `
			UPDATE usage_records
			SET download_count = 0, extraction_count = 0, summary_count = 0,
				last_reset_month = $1, last_reset_year = $2, updated_at = NOW()
			WHERE id = $3`,
			rec.LastResetMonth, rec.LastResetYear, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to roll over usage period: %w", err)
		}
	}
	if res.Demote {
		_, err = tx.Exec(ctx,
			"UPDATE usage_records SET plan = $1, expire_time = NULL, updated_at = NOW() WHERE id = $2",
			domain.PlanFree, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to demote expired plan: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit usage tx: %w", err)
	}
	return rec, nil
}

// usageColumn maps an action to its counter column. Actions are validated at
// the handler boundary; anything else is a programming error.
func usageColumn(action domain.Action) string {
	switch action {
	case domain.ActionDownload:
		return "download_count"
	case domain.ActionExtract:
		return "extraction_count"
	case domain.ActionSummary:
		return "summary_count"
	}
	panic("unknown action: " + string(action))
}

// Increment unconditionally adds one to the action's counter and returns the
// updated record.
func (r *UsageRepository) Increment(ctx context.Context, subject domain.Subject, action domain.Action) (*domain.UsageRecord, error) {
	return r.addDelta(ctx, subject, action, 1)
}

// AddDelta applies a signed delta to the action's counter. Negative deltas
// may drive the counter below zero; that only means extra allowance.
func (r *UsageRepository) AddDelta(ctx context.Context, subject domain.Subject, action domain.Action, delta int) (*domain.UsageRecord, error) {
	return r.addDelta(ctx, subject, action, delta)
}

func (r *UsageRepository) addDelta(ctx context.Context, subject domain.Subject, action domain.Action, delta int) (*domain.UsageRecord, error) {
	where, arg := subjectWhere(subject)
	col := usageColumn(action)
	rec, err := scanUsage(r.db.QueryRow(ctx,
		"UPDATE usage_records SET "+col+" = "+col+" + $2, updated_at = NOW() WHERE "+where+
			" RETURNING "+usageColumns, arg, delta))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrInternal("usage record missing for subject", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update usage counter: %w", err)
	}
	return rec, nil
}

// Upgrade sets the subject's plan and expiry. Counters are untouched.
func (r *UsageRepository) Upgrade(ctx context.Context, subject domain.Subject, plan domain.Plan, expireTime time.Time) (*domain.UsageRecord, error) {
	where, arg := subjectWhere(subject)
	rec, err := scanUsage(r.db.QueryRow(ctx,
		"UPDATE usage_records SET plan = $2, expire_time = $3, updated_at = NOW() WHERE "+where+
			" RETURNING "+usageColumns, arg, plan, expireTime))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrInternal("usage record missing for subject", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade plan: %w", err)
	}
	return rec, nil
}

// SubmitSurvey performs the one-time reward exchange in a single
// transaction: insert the survey row (its existence is the redemption
// guard) and credit the download counter. Concurrent double-submission
// serializes on the unique index; the loser sees a conflict.
func (r *UsageRepository) SubmitSurvey(ctx context.Context, userID int64, payload string, credits int) (*domain.UsageRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin survey tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO surveys (user_id, payload) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`, userID, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to insert survey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrConflict("survey already submitted")
	}

	rec, err := scanUsage(tx.QueryRow(ctx, `
		UPDATE usage_records SET download_count = download_count - $2, updated_at = NOW()
		WHERE user_id = $1 RETURNING `+usageColumns, userID, credits))
	if err == pgx.ErrNoRows {
		return nil, domain.ErrInternal("usage record missing for survey reward", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply survey credit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit survey tx: %w", err)
	}
	return rec, nil
}
