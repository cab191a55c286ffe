package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/payout"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// pgx.Tx, который только считает Commit/Rollback
// ---------------------------------------------------------------------------

type recTx struct{ db *memDB }

func (t recTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t recTx) Commit(context.Context) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.db.failCommit {
		return errors.New("commit failed")
	}
	t.db.commits++
	return nil
}
func (t recTx) Rollback(context.Context) error { return nil }
func (recTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (recTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (recTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (recTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (recTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (recTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (recTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (recTx) Conn() *pgx.Conn { return nil }

// ---------------------------------------------------------------------------
// in-memory "база"
// ---------------------------------------------------------------------------

type memDB struct {
	mu          sync.Mutex
	commits     int
	failCommit  bool
	profiles    map[int64]*domain.Profile
	withdrawals map[int64]*domain.Withdrawal
	ledger      []*domain.Transaction
	claims      []*domain.DailyClaim
	activity    []*domain.ActivityLog
	settings    map[string]string
	stats       map[string]decimal.Decimal
	commissions []*domain.ReferralCommission
	deposits    map[string]*domain.Deposit
	nextID      int64

	failLedgerCreate bool
	failStats        bool
}

func newMemDB() *memDB {
	return &memDB{
		profiles:    make(map[int64]*domain.Profile),
		withdrawals: make(map[int64]*domain.Withdrawal),
		settings:    make(map[string]string),
		stats:       make(map[string]decimal.Decimal),
		deposits:    make(map[string]*domain.Deposit),
		nextID:      100,
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) Begin(context.Context) (pgx.Tx, error) { return recTx{db: db}, nil }

func (db *memDB) addProfile(p *domain.Profile) *domain.Profile {
	if p.ID == 0 {
		p.ID = db.id()
	}
	db.profiles[p.ID] = p
	return p
}

func (db *memDB) ledgerFor(userID int64) []*domain.Transaction {
	var out []*domain.Transaction
	for _, t := range db.ledger {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

func cloneProfile(p *domain.Profile) *domain.Profile {
	c := *p
	return &c
}

func cloneWithdrawal(w *domain.Withdrawal) *domain.Withdrawal {
	c := *w
	return &c
}

// --- profiles ---

type memProfiles struct{ db *memDB }

func (m memProfiles) Create(_ context.Context, p *domain.Profile) error {
	for _, existing := range m.db.profiles {
		if existing.Email == p.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	p.ID = m.db.id()
	p.CreatedAt = time.Now()
	m.db.profiles[p.ID] = cloneProfile(p)
	return nil
}
func (m memProfiles) GetByID(_ context.Context, id int64) (*domain.Profile, error) {
	if p, ok := m.db.profiles[id]; ok {
		return cloneProfile(p), nil
	}
	return nil, nil
}
func (m memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, p := range m.db.profiles {
		if p.Email == email {
			return cloneProfile(p), nil
		}
	}
	return nil, nil
}
func (m memProfiles) GetByTelegramID(_ context.Context, tg int64) (*domain.Profile, error) {
	for _, p := range m.db.profiles {
		if p.TelegramID != nil && *p.TelegramID == tg {
			return cloneProfile(p), nil
		}
	}
	return nil, nil
}
func (m memProfiles) GetByReferralCode(_ context.Context, code string) (*domain.Profile, error) {
	for _, p := range m.db.profiles {
		if p.ReferralCode == code {
			return cloneProfile(p), nil
		}
	}
	return nil, nil
}
func (m memProfiles) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id int64) (*domain.Profile, error) {
	return m.GetByID(ctx, id)
}
func (m memProfiles) ApplyWithdrawalWithTx(_ context.Context, _ pgx.Tx, id int64, amount decimal.Decimal, at time.Time) error {
	p, ok := m.db.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Balance = p.Balance.Sub(amount)
	p.TotalEarned = p.TotalEarned.Sub(amount)
	p.LastWithdrawalAt = &at
	return nil
}
func (m memProfiles) AdjustWithTx(_ context.Context, _ pgx.Tx, id int64, b, e decimal.Decimal) error {
	p, ok := m.db.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Balance = p.Balance.Add(b)
	p.TotalEarned = p.TotalEarned.Add(e)
	return nil
}
func (m memProfiles) CreditDailyRewardWithTx(_ context.Context, _ pgx.Tx, id int64, amount decimal.Decimal) error {
	p, ok := m.db.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Balance = p.Balance.Add(amount)
	p.TotalEarned = p.TotalEarned.Add(amount)
	p.DailyChallenges++
	return nil
}
func (m memProfiles) UpgradeVIPWithTx(_ context.Context, _ pgx.Tx, id int64, level int, price decimal.Decimal) error {
	p, ok := m.db.profiles[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.Balance = p.Balance.Sub(price)
	p.TotalEarned = decimal.Min(p.TotalEarned, p.Balance)
	p.VIPLevel = level
	return nil
}
func (m memProfiles) SetTelegramID(_ context.Context, id int64, tg int64) error {
	if p, ok := m.db.profiles[id]; ok {
		p.TelegramID = &tg
	}
	return nil
}

// --- withdrawals ---

type memWithdrawals struct{ db *memDB }

func (m memWithdrawals) GetByID(_ context.Context, id int64) (*domain.Withdrawal, error) {
	if w, ok := m.db.withdrawals[id]; ok {
		return cloneWithdrawal(w), nil
	}
	return nil, nil
}
func (m memWithdrawals) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id int64) (*domain.Withdrawal, error) {
	return m.GetByID(ctx, id)
}
func (m memWithdrawals) GetByUserID(_ context.Context, userID int64, limit int) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	for _, w := range m.db.withdrawals {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}
func (m memWithdrawals) GetByStatus(_ context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	for _, w := range m.db.withdrawals {
		if status == "" || w.Status == status {
			out = append(out, *w)
		}
	}
	return out, nil
}
func (m memWithdrawals) CreateWithTx(_ context.Context, _ pgx.Tx, w *domain.Withdrawal) error {
	w.ID = m.db.id()
	w.CreatedAt = time.Now()
	m.db.withdrawals[w.ID] = cloneWithdrawal(w)
	return nil
}
func (m memWithdrawals) HasOutstanding(_ context.Context, userID int64) (bool, error) {
	for _, w := range m.db.withdrawals {
		if w.UserID == userID && w.Status.IsOutstanding() {
			return true, nil
		}
	}
	return false, nil
}
func (m memWithdrawals) HasOutstandingWithTx(ctx context.Context, _ pgx.Tx, userID int64) (bool, error) {
	return m.HasOutstanding(ctx, userID)
}
func (m memWithdrawals) StartProcessingWithTx(_ context.Context, _ pgx.Tx, id int64, at time.Time) (bool, error) {
	w, ok := m.db.withdrawals[id]
	if !ok || w.Status != domain.WithdrawalStatusPending {
		return false, nil
	}
	w.Status = domain.WithdrawalStatusProcessing
	w.ProcessingStartedAt = &at
	return true, nil
}
func (m memWithdrawals) MarkCompletedWithTx(_ context.Context, _ pgx.Tx, id int64, payoutID, txHash string, at time.Time) (bool, error) {
	w, ok := m.db.withdrawals[id]
	if !ok || w.Status != domain.WithdrawalStatusProcessing {
		return false, nil
	}
	w.Status = domain.WithdrawalStatusCompleted
	w.PayoutID, w.TxHash, w.ErrorMessage = payoutID, txHash, ""
	w.ProcessedAt = &at
	return true, nil
}
func (m memWithdrawals) MarkErrorWithTx(_ context.Context, _ pgx.Tx, id int64, msg string, at time.Time) (bool, error) {
	w, ok := m.db.withdrawals[id]
	if !ok || w.Status != domain.WithdrawalStatusProcessing {
		return false, nil
	}
	w.Status = domain.WithdrawalStatusError
	w.ErrorMessage = msg
	w.ProcessedAt = &at
	return true, nil
}
func (m memWithdrawals) MarkRejectedWithTx(_ context.Context, _ pgx.Tx, id int64, reason string, at time.Time) (bool, error) {
	w, ok := m.db.withdrawals[id]
	if !ok || w.Status != domain.WithdrawalStatusPending {
		return false, nil
	}
	w.Status = domain.WithdrawalStatusRejected
	w.AdminNotes = reason
	w.ProcessedAt = &at
	return true, nil
}
func (m memWithdrawals) ResetForRetryWithTx(_ context.Context, _ pgx.Tx, id int64) (bool, error) {
	w, ok := m.db.withdrawals[id]
	if !ok || w.Status != domain.WithdrawalStatusError {
		return false, nil
	}
	w.Status = domain.WithdrawalStatusPending
	w.ErrorMessage = ""
	w.ProcessedAt = nil
	return true, nil
}
func (m memWithdrawals) CountByStatus(context.Context) (map[domain.WithdrawalStatus]int, error) {
	out := make(map[domain.WithdrawalStatus]int)
	for _, w := range m.db.withdrawals {
		out[w.Status]++
	}
	return out, nil
}
func (m memWithdrawals) GetProcessingBefore(_ context.Context, before time.Time, limit int) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	for _, w := range m.db.withdrawals {
		if w.Status != domain.WithdrawalStatusProcessing {
			continue
		}
		started := w.CreatedAt
		if w.ProcessingStartedAt != nil {
			started = *w.ProcessingStartedAt
		}
		if started.Before(before) {
			out = append(out, *w)
		}
	}
	return out, nil
}

// --- ledger ---

type memLedger struct{ db *memDB }

func (m memLedger) CreateWithTx(_ context.Context, _ pgx.Tx, t *domain.Transaction) error {
	if m.db.failLedgerCreate {
		return errors.New("ledger insert failed")
	}
	t.ID = m.db.id()
	t.CreatedAt = time.Now()
	c := *t
	m.db.ledger = append(m.db.ledger, &c)
	return nil
}
func (m memLedger) UpdateStatusWithTx(_ context.Context, _ pgx.Tx, id int64, from, to domain.TransactionStatus) (bool, error) {
	for _, t := range m.db.ledger {
		if t.ID == id && t.Status == from {
			t.Status = to
			return true, nil
		}
	}
	return false, nil
}
func (m memLedger) GetByUserID(_ context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range m.db.ledgerFor(userID) {
		out = append(out, *t)
	}
	return out, nil
}

func (m memLedger) byID(id int64) *domain.Transaction {
	for _, t := range m.db.ledger {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// --- claims ---

type memClaims struct{ db *memDB }

func (m memClaims) GetLast(_ context.Context, userID int64) (*domain.DailyClaim, error) {
	var last *domain.DailyClaim
	for _, c := range m.db.claims {
		if c.UserID == userID && (last == nil || c.CreatedAt.After(last.CreatedAt)) {
			last = c
		}
	}
	return last, nil
}
func (m memClaims) GetLastWithTx(ctx context.Context, _ pgx.Tx, userID int64) (*domain.DailyClaim, error) {
	return m.GetLast(ctx, userID)
}
func (m memClaims) CreateWithTx(_ context.Context, _ pgx.Tx, c *domain.DailyClaim) error {
	c.ID = m.db.id()
	cp := *c
	m.db.claims = append(m.db.claims, &cp)
	return nil
}

// --- activity ---

type memActivity struct{ db *memDB }

func (m memActivity) Create(_ context.Context, l *domain.ActivityLog) error {
	l.ID = m.db.id()
	m.db.activity = append(m.db.activity, l)
	return nil
}
func (m memActivity) GetRecent(_ context.Context, action string, limit int) ([]*domain.ActivityLog, error) {
	var out []*domain.ActivityLog
	for _, l := range m.db.activity {
		if action == "" || l.Action == action {
			out = append(out, l)
		}
	}
	return out, nil
}

func (db *memDB) actions() []string {
	var out []string
	for _, l := range db.activity {
		out = append(out, l.Action)
	}
	return out
}

// --- settings / stats ---

type memSettings struct{ db *memDB }

func (m memSettings) GetAll(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.db.settings))
	for k, v := range m.db.settings {
		out[k] = v
	}
	return out, nil
}
func (m memSettings) Set(_ context.Context, k, v string) error {
	m.db.settings[k] = v
	return nil
}

type memStats struct{ db *memDB }

func (m memStats) Increment(_ context.Context, key string, delta decimal.Decimal) error {
	if m.db.failStats {
		return errors.New("stats unavailable")
	}
	m.db.stats[key] = m.db.stats[key].Add(delta)
	return nil
}
func (m memStats) GetAll(context.Context) (map[string]decimal.Decimal, error) { return m.db.stats, nil }

// --- referrals / deposits ---

type memReferrals struct{ db *memDB }

func (m memReferrals) GetUplinesWithTx(_ context.Context, _ pgx.Tx, userID int64, depth int) ([]int64, error) {
	var out []int64
	current := m.db.profiles[userID]
	for i := 0; i < depth && current != nil && current.ReferredBy != nil; i++ {
		out = append(out, *current.ReferredBy)
		current = m.db.profiles[*current.ReferredBy]
	}
	return out, nil
}
func (m memReferrals) CreateCommissionWithTx(_ context.Context, _ pgx.Tx, c *domain.ReferralCommission) error {
	c.ID = m.db.id()
	m.db.commissions = append(m.db.commissions, c)
	return nil
}
func (m memReferrals) GetCommissionTotals(_ context.Context, referrerID int64) ([]domain.CommissionLevelTotal, error) {
	byLevel := map[int]*domain.CommissionLevelTotal{}
	var order []int
	for _, c := range m.db.commissions {
		if c.ReferrerID != referrerID {
			continue
		}
		t, ok := byLevel[c.Level]
		if !ok {
			t = &domain.CommissionLevelTotal{Level: c.Level}
			byLevel[c.Level] = t
			order = append(order, c.Level)
		}
		t.Count++
		t.Total = t.Total.Add(c.Amount)
	}
	var out []domain.CommissionLevelTotal
	for _, l := range order {
		out = append(out, *byLevel[l])
	}
	return out, nil
}
func (m memReferrals) CountReferrals(_ context.Context, userID int64) (int, error) {
	n := 0
	for _, p := range m.db.profiles {
		if p.ReferredBy != nil && *p.ReferredBy == userID {
			n++
		}
	}
	return n, nil
}

type memDeposits struct{ db *memDB }

func (m memDeposits) CreateWithTx(_ context.Context, _ pgx.Tx, d *domain.Deposit) (bool, error) {
	if _, ok := m.db.deposits[d.ProviderPaymentID]; ok {
		return false, nil
	}
	d.ID = m.db.id()
	m.db.deposits[d.ProviderPaymentID] = d
	return true, nil
}

// ---------------------------------------------------------------------------
// внешние зависимости
// ---------------------------------------------------------------------------

type fakePayout struct {
	err      error
	requests []payout.Request
}

func (f *fakePayout) Name() string { return "fake" }
func (f *fakePayout) Send(_ context.Context, req payout.Request) (*payout.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &payout.Result{PayoutID: "po-" + req.IdempotencyKey, TxHash: "0xhash"}, nil
}

type recNotifier struct {
	created []int64
	changed []domain.WithdrawalStatus
}

func (n *recNotifier) WithdrawalCreated(_ context.Context, w *domain.Withdrawal, _ *domain.Profile) {
	n.created = append(n.created, w.ID)
}
func (n *recNotifier) WithdrawalStatusChanged(_ context.Context, w *domain.Withdrawal) {
	n.changed = append(n.changed, w.Status)
}

type recPublisher struct {
	events []string
}

func (p *recPublisher) Publish(userID int64, event string, data interface{}) {
	p.events = append(p.events, event)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }
