package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository maps OAuth provider subjects to internal user ids.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure returns the internal id for a provider subject, creating the row on
// first login. The email is refreshed on every exchange so it tracks the
// provider.
func (r *UserRepository) Ensure(ctx context.Context, providerSub, email string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (provider_sub, email)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (provider_sub)
		DO UPDATE SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email), updated_at = NOW()
		RETURNING id`,
		providerSub, email).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
