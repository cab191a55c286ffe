package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"vipclub_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Приглашенный пользователь первого уровня
type Referral struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	VIPLevel  int       `json:"vip_level"`
	CreatedAt time.Time `json:"created_at"`
}

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Генерирует уникальный реферальный код
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Возвращает цепочку пригласивших: [0] - прямой пригласивший, дальше вверх до depth уровней
func (r *ReferralRepository) GetUplinesWithTx(ctx context.Context, tx pgx.Tx, userID int64, depth int) ([]int64, error) {
	var uplines []int64
	current := userID
	for i := 0; i < depth; i++ {
		var referredBy *int64
		err := tx.QueryRow(ctx, `SELECT referred_by FROM profiles WHERE id = $1`, current).Scan(&referredBy)
		if errors.Is(err, pgx.ErrNoRows) || referredBy == nil {
			break
		}
		if err != nil {
			return nil, err
		}
		// защита от циклов в битых данных
		if *referredBy == userID {
			break
		}
		uplines = append(uplines, *referredBy)
		current = *referredBy
	}
	return uplines, nil
}

// Записывает начисленную комиссию
func (r *ReferralRepository) CreateCommissionWithTx(ctx context.Context, tx pgx.Tx, c *domain.ReferralCommission) error {
	return tx.QueryRow(ctx, `
		INSERT INTO referral_commissions (referrer_id, referred_id, level, amount, source_transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.ReferrerID, c.ReferredID, c.Level, c.Amount, c.SourceTransactionID).Scan(&c.ID, &c.CreatedAt)
}

// Суммы комиссий пользователя по уровням
func (r *ReferralRepository) GetCommissionTotals(ctx context.Context, referrerID int64) ([]domain.CommissionLevelTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT level, COUNT(*), COALESCE(SUM(amount), 0)
		FROM referral_commissions
		WHERE referrer_id = $1
		GROUP BY level
		ORDER BY level
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []domain.CommissionLevelTotal
	for rows.Next() {
		var t domain.CommissionLevelTotal
		var sum decimal.Decimal
		if err := rows.Scan(&t.Level, &t.Count, &sum); err != nil {
			return nil, err
		}
		t.Total = sum
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// Возвращает приглашенных пользователем напрямую
func (r *ReferralRepository) GetReferralsByUser(ctx context.Context, userID int64, limit int) ([]Referral, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, username, vip_level, created_at
		FROM profiles
		WHERE referred_by = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var referrals []Referral
	for rows.Next() {
		var ref Referral
		if err := rows.Scan(&ref.ID, &ref.Username, &ref.VIPLevel, &ref.CreatedAt); err != nil {
			return nil, err
		}
		referrals = append(referrals, ref)
	}
	return referrals, rows.Err()
}

// Считает приглашенных напрямую
func (r *ReferralRepository) CountReferrals(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE referred_by = $1`, userID).Scan(&count)
	return count, err
}
