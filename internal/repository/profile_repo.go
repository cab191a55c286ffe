package repository

import (
	"context"
	"errors"
	"time"

	"vipclub_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `
	id, email, password_hash, username, telegram_id, is_admin, balance, total_earned,
	vip_level, daily_challenges, last_withdrawal_at, referral_code, referred_by, created_at`

// создает профиль, id и created_at заполняются из БД
func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO profiles (email, password_hash, username, telegram_id, is_admin, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, balance, total_earned, created_at
	`, p.Email, p.PasswordHash, p.Username, p.TelegramID, p.IsAdmin, p.ReferralCode, p.ReferredBy,
	).Scan(&p.ID, &p.Balance, &p.TotalEarned, &p.CreatedAt)
}

func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email))
}

func (r *ProfileRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE telegram_id = $1`, telegramID))
}

func (r *ProfileRepository) GetByReferralCode(ctx context.Context, code string) (*domain.Profile, error) {
	return scanProfile(r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE referral_code = $1`, code))
}

// читает профиль с блокировкой строки до конца транзакции
func (r *ProfileRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Profile, error) {
	return scanProfile(tx.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1 FOR UPDATE`, id))
}

// списывает сумму вывода с balance и total_earned и запоминает время вывода
func (r *ProfileRepository) ApplyWithdrawalWithTx(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal, at time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE profiles
		SET balance = balance - $2, total_earned = total_earned - $2, last_withdrawal_at = $3
		WHERE id = $1
	`, id, amount, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// меняет balance и total_earned на заданные дельты (могут быть отрицательными)
func (r *ProfileRepository) AdjustWithTx(ctx context.Context, tx pgx.Tx, id int64, balanceDelta, earnedDelta decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
		UPDATE profiles SET balance = balance + $2, total_earned = total_earned + $3 WHERE id = $1
	`, id, balanceDelta, earnedDelta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// начисляет ежедневную награду и увеличивает счетчик челленджей
func (r *ProfileRepository) CreditDailyRewardWithTx(ctx context.Context, tx pgx.Tx, id int64, amount decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
		UPDATE profiles
		SET balance = balance + $2, total_earned = total_earned + $2, daily_challenges = daily_challenges + 1
		WHERE id = $1
	`, id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// повышает VIP уровень, списывая цену. total_earned не может остаться больше balance
func (r *ProfileRepository) UpgradeVIPWithTx(ctx context.Context, tx pgx.Tx, id int64, level int, price decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `
		UPDATE profiles
		SET balance = balance - $3,
		    total_earned = LEAST(total_earned, balance - $3),
		    vip_level = $2
		WHERE id = $1
	`, id, level, price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// привязывает telegram аккаунт к профилю
func (r *ProfileRepository) SetTelegramID(ctx context.Context, id int64, telegramID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE profiles SET telegram_id = $2 WHERE id = $1`, id, telegramID)
	return err
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.Username, &p.TelegramID, &p.IsAdmin, &p.Balance, &p.TotalEarned,
		&p.VIPLevel, &p.DailyChallenges, &p.LastWithdrawalAt, &p.ReferralCode, &p.ReferredBy, &p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
