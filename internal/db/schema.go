package db

var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		telegram_id BIGINT UNIQUE,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		balance NUMERIC(18,2) NOT NULL DEFAULT 0,
		total_earned NUMERIC(18,2) NOT NULL DEFAULT 0,
		vip_level INT NOT NULL DEFAULT 0,
		daily_challenges INT NOT NULL DEFAULT 0,
		last_withdrawal_at TIMESTAMPTZ,
		referral_code TEXT NOT NULL UNIQUE,
		referred_by BIGINT REFERENCES profiles(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		type TEXT NOT NULL,
		amount NUMERIC(18,2) NOT NULL,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		reference_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS withdrawals (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		amount_usd NUMERIC(18,2) NOT NULL,
		currency TEXT NOT NULL,
		network TEXT NOT NULL DEFAULT '',
		wallet_address TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payout_id TEXT,
		tx_hash TEXT,
		error_message TEXT,
		transaction_id BIGINT REFERENCES transactions(id),
		admin_notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ,
		processing_started_at TIMESTAMPTZ
	)`,
	`ALTER TABLE withdrawals ADD COLUMN IF NOT EXISTS processing_started_at TIMESTAMPTZ`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_user_status ON withdrawals(user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_withdrawals_processing ON withdrawals(processing_started_at) WHERE status = 'processing'`,

	`CREATE TABLE IF NOT EXISTS daily_claims (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		amount NUMERIC(18,2) NOT NULL,
		vip_level INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_claims_user ON daily_claims(user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS activity_logs (
		id BIGSERIAL PRIMARY KEY,
		admin_id BIGINT NOT NULL,
		action TEXT NOT NULL,
		target_id BIGINT NOT NULL DEFAULT 0,
		details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_action ON activity_logs(action, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS admin_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS platform_stats (
		key TEXT PRIMARY KEY,
		value NUMERIC(18,2) NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS referral_commissions (
		id BIGSERIAL PRIMARY KEY,
		referrer_id BIGINT NOT NULL REFERENCES profiles(id),
		referred_id BIGINT NOT NULL REFERENCES profiles(id),
		level INT NOT NULL CHECK (level BETWEEN 1 AND 3),
		amount NUMERIC(18,2) NOT NULL,
		source_transaction_id BIGINT REFERENCES transactions(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_referral_commissions_referrer ON referral_commissions(referrer_id, level)`,

	`CREATE TABLE IF NOT EXISTS deposits (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES profiles(id),
		provider_payment_id TEXT NOT NULL UNIQUE,
		amount_usd NUMERIC(18,2) NOT NULL,
		currency TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		confirmed_at TIMESTAMPTZ
	)`,
}
