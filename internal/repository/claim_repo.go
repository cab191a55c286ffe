package repository

import (
	"context"
	"errors"

	"vipclub_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClaimRepository struct {
	db *pgxpool.Pool
}

func NewClaimRepository(db *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// последняя награда пользователя, nil если еще не получал
func (r *ClaimRepository) GetLast(ctx context.Context, userID int64) (*domain.DailyClaim, error) {
	return scanClaim(r.db.QueryRow(ctx, `
		SELECT id, user_id, amount, vip_level, created_at
		FROM daily_claims WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, userID))
}

func (r *ClaimRepository) GetLastWithTx(ctx context.Context, tx pgx.Tx, userID int64) (*domain.DailyClaim, error) {
	return scanClaim(tx.QueryRow(ctx, `
		SELECT id, user_id, amount, vip_level, created_at
		FROM daily_claims WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, userID))
}

func (r *ClaimRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, c *domain.DailyClaim) error {
	return tx.QueryRow(ctx, `
		INSERT INTO daily_claims (user_id, amount, vip_level, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.UserID, c.Amount, c.VIPLevel, c.CreatedAt).Scan(&c.ID)
}

func scanClaim(row pgx.Row) (*domain.DailyClaim, error) {
	var c domain.DailyClaim
	if err := row.Scan(&c.ID, &c.UserID, &c.Amount, &c.VIPLevel, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
