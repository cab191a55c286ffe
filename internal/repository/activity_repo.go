package repository

import (
	"context"
	"encoding/json"

	"vipclub_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// отвечает за операции с базой данных для журнала действий админов
type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// создает новую запись в журнале
func (r *ActivityRepository) Create(ctx context.Context, log *domain.ActivityLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO activity_logs (admin_id, action, target_id, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, log.AdminID, log.Action, log.TargetID, detailsJSON).Scan(&log.ID, &log.CreatedAt)
}

// создает запись внутри транзакции
func (r *ActivityRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, log *domain.ActivityLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	return tx.QueryRow(ctx, `
		INSERT INTO activity_logs (admin_id, action, target_id, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, log.AdminID, log.Action, log.TargetID, detailsJSON).Scan(&log.ID, &log.CreatedAt)
}

// возвращает последние записи, action можно не указывать
func (r *ActivityRepository) GetRecent(ctx context.Context, action string, limit int) ([]*domain.ActivityLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, admin_id, action, target_id, details, created_at
		FROM activity_logs
		WHERE ($1 = '' OR action = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, action, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivityLogs(rows)
}

// преобразует строки из БД в структуры ActivityLog
func scanActivityLogs(rows pgx.Rows) ([]*domain.ActivityLog, error) {
	var logs []*domain.ActivityLog
	for rows.Next() {
		var log domain.ActivityLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.AdminID, &log.Action, &log.TargetID, &detailsJSON, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
