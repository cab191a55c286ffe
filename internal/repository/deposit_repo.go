package repository

import (
	"context"
	"errors"

	"vipclub_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DepositRepository struct {
	db *pgxpool.Pool
}

func NewDepositRepository(db *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{db: db}
}

// вставляет депозит, false если такой payment_id уже обработан
func (r *DepositRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, d *domain.Deposit) (bool, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO deposits (user_id, provider_payment_id, amount_usd, currency, status, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider_payment_id) DO NOTHING
		RETURNING id, created_at
	`, d.UserID, d.ProviderPaymentID, d.AmountUSD, d.Currency, d.Status, d.ConfirmedAt).Scan(&d.ID, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *DepositRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]domain.Deposit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, provider_payment_id, amount_usd, currency, status, created_at, confirmed_at
		FROM deposits WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Deposit
	for rows.Next() {
		var d domain.Deposit
		if err := rows.Scan(&d.ID, &d.UserID, &d.ProviderPaymentID, &d.AmountUSD, &d.Currency, &d.Status, &d.CreatedAt, &d.ConfirmedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
