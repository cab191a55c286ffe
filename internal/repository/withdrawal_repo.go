package repository

import (
	"context"
	"errors"
	"time"

	"vipclub_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

const withdrawalColumns = `
	id, user_id, amount_usd, currency, network, wallet_address, status, payout_id, tx_hash,
	error_message, transaction_id, admin_notes, created_at, processed_at, processing_started_at`

// получает вывод средств по id
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error) {
	return scanWithdrawal(r.db.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
}

// получает вывод средств внутри транзакции с блокировкой строки
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Withdrawal, error) {
	return scanWithdrawal(tx.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id))
}

// получает все выводы средств для пользователя
func (r *WithdrawalRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// список для админки, пустой статус - все
func (r *WithdrawalRepository) GetByStatus(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at ASC
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// создает заявку внутри транзакции
func (r *WithdrawalRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawals (user_id, amount_usd, currency, network, wallet_address, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, w.UserID, w.AmountUSD, w.Currency, w.Network, w.WalletAddress, w.Status, w.TransactionID).Scan(&w.ID, &w.CreatedAt)
}

// проверяет, есть ли у пользователя необработанная заявка
func (r *WithdrawalRepository) HasOutstandingWithTx(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM withdrawals WHERE user_id = $1 AND status IN ('pending', 'processing'))
	`, userID).Scan(&exists)
	return exists, err
}

// то же без транзакции, для превью
func (r *WithdrawalRepository) HasOutstanding(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM withdrawals WHERE user_id = $1 AND status IN ('pending', 'processing'))
	`, userID).Scan(&exists)
	return exists, err
}

// pending -> processing, запоминает начало выплаты. false - строка уже в другом статусе
func (r *WithdrawalRepository) StartProcessingWithTx(ctx context.Context, tx pgx.Tx, id int64, at time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = 'processing', processing_started_at = $2
		WHERE id = $1 AND status = 'pending'
	`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// processing -> completed с данными провайдера
func (r *WithdrawalRepository) MarkCompletedWithTx(ctx context.Context, tx pgx.Tx, id int64, payoutID, txHash string, at time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals
		SET status = 'completed', payout_id = NULLIF($2, ''), tx_hash = NULLIF($3, ''), error_message = NULL, processed_at = $4
		WHERE id = $1 AND status = 'processing'
	`, id, payoutID, txHash, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// processing -> error, текст ошибки в отдельной колонке
func (r *WithdrawalRepository) MarkErrorWithTx(ctx context.Context, tx pgx.Tx, id int64, message string, at time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = 'error', error_message = $2, processed_at = $3
		WHERE id = $1 AND status = 'processing'
	`, id, message, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// pending -> rejected с причиной
func (r *WithdrawalRepository) MarkRejectedWithTx(ctx context.Context, tx pgx.Tx, id int64, reason string, at time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = 'rejected', admin_notes = $2, processed_at = $3
		WHERE id = $1 AND status = 'pending'
	`, id, reason, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// error -> pending для повторной выплаты, ошибка очищается
func (r *WithdrawalRepository) ResetForRetryWithTx(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawals SET status = 'pending', error_message = NULL, processed_at = NULL
		WHERE id = $1 AND status = 'error'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// заявки, которые ушли в processing раньше before.
// строки без processing_started_at (до миграции) считаются по created_at
func (r *WithdrawalRepository) GetProcessingBefore(ctx context.Context, before time.Time, limit int) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE status = 'processing' AND COALESCE(processing_started_at, created_at) < $1
		ORDER BY COALESCE(processing_started_at, created_at) ASC
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// количество заявок по статусам
func (r *WithdrawalRepository) CountByStatus(ctx context.Context) (map[domain.WithdrawalStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM withdrawals GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.WithdrawalStatus]int)
	for rows.Next() {
		var status domain.WithdrawalStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// сканирует строку из базы данных в структуру Withdrawal
func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	var payoutID, txHash, errorMessage *string

	if err := row.Scan(
		&w.ID, &w.UserID, &w.AmountUSD, &w.Currency, &w.Network, &w.WalletAddress, &w.Status, &payoutID, &txHash,
		&errorMessage, &w.TransactionID, &w.AdminNotes, &w.CreatedAt, &w.ProcessedAt, &w.ProcessingStartedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if payoutID != nil {
		w.PayoutID = *payoutID
	}
	if txHash != nil {
		w.TxHash = *txHash
	}
	if errorMessage != nil {
		w.ErrorMessage = *errorMessage
	}

	return &w, nil
}

func scanWithdrawals(rows pgx.Rows) ([]domain.Withdrawal, error) {
	var list []domain.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		if w != nil {
			list = append(list, *w)
		}
	}
	return list, rows.Err()
}
