package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const StatTotalRewardsPaid = "total_rewards_paid"

// агрегаты по платформе
type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// атомарно прибавляет delta к счетчику
func (r *StatsRepository) Increment(ctx context.Context, key string, delta decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO platform_stats (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = platform_stats.value + EXCLUDED.value, updated_at = NOW()
	`, key, delta)
	return err
}

func (r *StatsRepository) GetAll(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT key, value FROM platform_stats`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]decimal.Decimal)
	for rows.Next() {
		var k string
		var v decimal.Decimal
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		stats[k] = v
	}
	return stats, rows.Err()
}
