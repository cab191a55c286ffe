package service

import (
	"context"
	"errors"
	"testing"

	"vipclub_backend/internal/domain"
)

type settlementFixture struct {
	db       *memDB
	svc      *SettlementService
	provider *fakePayout
	notifier *recNotifier
	feed     *recPublisher
	user     *domain.Profile
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	db := newMemDB()
	provider := &fakePayout{}
	balance := NewBalanceService(memProfiles{db}, memLedger{db})
	svc := NewSettlementService(db, memWithdrawals{db}, memLedger{db}, balance, NewActivityService(memActivity{db}), provider)
	svc.now = fixedClock(inWindow)
	f := &settlementFixture{db: db, svc: svc, provider: provider, notifier: &recNotifier{}, feed: &recPublisher{}}
	svc.SetNotifier(f.notifier)
	svc.SetPublisher(f.feed)
	// состояние после приема заявки на 30: было 100/50
	f.user = db.addProfile(&domain.Profile{Balance: dec("70"), TotalEarned: dec("20")})
	return f
}

// seed кладет pending заявку вместе с pending записью журнала
func (f *settlementFixture) seed(amount string, status domain.WithdrawalStatus) *domain.Withdrawal {
	entry := &domain.Transaction{
		ID:     f.db.id(),
		UserID: f.user.ID,
		Type:   domain.TxTypeWithdrawal,
		Amount: dec(amount).Neg(),
		Status: domain.TxStatusPending,
	}
	f.db.ledger = append(f.db.ledger, entry)
	w := &domain.Withdrawal{
		ID:            f.db.id(),
		UserID:        f.user.ID,
		AmountUSD:     dec(amount),
		Currency:      "USDT",
		WalletAddress: testAddress,
		Status:        status,
		TransactionID: &entry.ID,
	}
	f.db.withdrawals[w.ID] = w
	return w
}

func (f *settlementFixture) entry(id int64) *domain.Transaction {
	return memLedger{f.db}.byID(id)
}

func TestApprove_Completes(t *testing.T) {
	f := newSettlementFixture(t)
	w := f.seed("30", domain.WithdrawalStatusPending)

	got, err := f.svc.Approve(context.Background(), w.ID, 1)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != domain.WithdrawalStatusCompleted || got.TxHash != "0xhash" {
		t.Fatalf("unexpected result: %+v", got)
	}
	stored := f.db.withdrawals[w.ID]
	if stored.Status != domain.WithdrawalStatusCompleted || stored.PayoutID == "" || stored.ProcessedAt == nil {
		t.Fatalf("stored = %+v", stored)
	}
	if stored.ProcessingStartedAt == nil || !stored.ProcessingStartedAt.Equal(inWindow) {
		t.Fatalf("processing start = %v, want %v", stored.ProcessingStartedAt, inWindow)
	}
	if f.entry(*w.TransactionID).Status != domain.TxStatusCompleted {
		t.Fatal("ledger entry not completed")
	}
	if len(f.provider.requests) != 1 || f.provider.requests[0].IdempotencyKey != IdempotencyKey(w.ID) {
		t.Fatalf("payout requests = %+v", f.provider.requests)
	}
	// баланс уже списан при приеме
	if !f.db.profiles[f.user.ID].Balance.Equal(dec("70")) {
		t.Fatal("approve must not touch balances")
	}
	if len(f.notifier.changed) != 1 || f.notifier.changed[0] != domain.WithdrawalStatusCompleted {
		t.Fatalf("notifications = %v", f.notifier.changed)
	}
	if a := f.db.actions(); len(a) != 1 || a[0] != domain.ActivityWithdrawalApproved {
		t.Fatalf("activity = %v", a)
	}
}

func TestApprove_PayoutFailureRecordsError(t *testing.T) {
	f := newSettlementFixture(t)
	f.provider.err = errors.New("insufficient provider balance")
	w := f.seed("30", domain.WithdrawalStatusPending)

	got, err := f.svc.Approve(context.Background(), w.ID, 1)
	if !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("err = %v, want ErrPayoutFailed", err)
	}
	if got == nil || got.Status != domain.WithdrawalStatusError {
		t.Fatalf("result = %+v", got)
	}
	stored := f.db.withdrawals[w.ID]
	if stored.Status != domain.WithdrawalStatusError || stored.ErrorMessage != "insufficient provider balance" {
		t.Fatalf("stored = %+v", stored)
	}
	if stored.AdminNotes != "" {
		t.Fatal("provider error must not go to admin notes")
	}
	// средства не возвращаются, запись журнала остается pending
	if !f.db.profiles[f.user.ID].Balance.Equal(dec("70")) {
		t.Fatal("balance changed on payout failure")
	}
	if f.entry(*w.TransactionID).Status != domain.TxStatusPending {
		t.Fatal("ledger entry must stay pending")
	}
	if a := f.db.actions(); len(a) != 1 || a[0] != domain.ActivityWithdrawalPayoutFailed {
		t.Fatalf("activity = %v", a)
	}
}

func TestApprove_OnlyFromPending(t *testing.T) {
	for _, status := range []domain.WithdrawalStatus{
		domain.WithdrawalStatusProcessing,
		domain.WithdrawalStatusCompleted,
		domain.WithdrawalStatusRejected,
		domain.WithdrawalStatusError,
	} {
		f := newSettlementFixture(t)
		w := f.seed("30", status)
		if _, err := f.svc.Approve(context.Background(), w.ID, 1); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s: err = %v, want ErrInvalidTransition", status, err)
		}
		if len(f.provider.requests) != 0 {
			t.Fatalf("%s: payout sent", status)
		}
		if f.db.withdrawals[w.ID].Status != status {
			t.Fatalf("%s: status changed", status)
		}
	}
}

func TestApprove_NotFound(t *testing.T) {
	f := newSettlementFixture(t)
	if _, err := f.svc.Approve(context.Background(), 12345, 1); !errors.Is(err, ErrWithdrawalNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestReject_RefundsBalanceOnly(t *testing.T) {
	f := newSettlementFixture(t)
	w := f.seed("30", domain.WithdrawalStatusPending)

	got, err := f.svc.Reject(context.Background(), w.ID, 1, "suspicious wallet")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != domain.WithdrawalStatusRejected || got.AdminNotes != "suspicious wallet" {
		t.Fatalf("result = %+v", got)
	}

	p := f.db.profiles[f.user.ID]
	if !p.Balance.Equal(dec("100")) || !p.TotalEarned.Equal(dec("20")) {
		t.Fatalf("balances = %s/%s, want 100/20", p.Balance, p.TotalEarned)
	}
	if f.entry(*w.TransactionID).Status != domain.TxStatusFailed {
		t.Fatal("original ledger entry must be failed")
	}

	var refund *domain.Transaction
	for _, e := range f.db.ledgerFor(f.user.ID) {
		if e.ID != *w.TransactionID {
			refund = e
		}
	}
	if refund == nil || !refund.Amount.Equal(dec("30")) || refund.Status != domain.TxStatusCompleted {
		t.Fatalf("refund entry = %+v", refund)
	}
	if refund.ReferenceID == nil || *refund.ReferenceID != w.ID {
		t.Fatal("refund must reference the withdrawal")
	}
	if f.db.commits != 1 {
		t.Fatalf("commits = %d, want 1", f.db.commits)
	}
}

func TestReject_OnlyFromPending(t *testing.T) {
	f := newSettlementFixture(t)
	w := f.seed("30", domain.WithdrawalStatusError)

	if _, err := f.svc.Reject(context.Background(), w.ID, 1, "late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v", err)
	}
	if !f.db.profiles[f.user.ID].Balance.Equal(dec("70")) {
		t.Fatal("balance changed")
	}
}

func TestRetry_FromErrorOnly(t *testing.T) {
	f := newSettlementFixture(t)
	w := f.seed("30", domain.WithdrawalStatusPending)

	if _, err := f.svc.Retry(context.Background(), w.ID, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("retry of pending: err = %v", err)
	}

	f.provider.err = errors.New("timeout")
	if _, err := f.svc.Approve(context.Background(), w.ID, 1); !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("first attempt: %v", err)
	}

	f.provider.err = nil
	got, err := f.svc.Retry(context.Background(), w.ID, 1)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if got.Status != domain.WithdrawalStatusCompleted || f.db.withdrawals[w.ID].ErrorMessage != "" {
		t.Fatalf("after retry = %+v", f.db.withdrawals[w.ID])
	}
	// обе попытки с одним ключом
	if len(f.provider.requests) != 2 || f.provider.requests[0].IdempotencyKey != f.provider.requests[1].IdempotencyKey {
		t.Fatalf("requests = %+v", f.provider.requests)
	}
	want := []string{domain.ActivityWithdrawalPayoutFailed, domain.ActivityWithdrawalRetried, domain.ActivityWithdrawalApproved}
	got2 := f.db.actions()
	if len(got2) != len(want) {
		t.Fatalf("activity = %v", got2)
	}
	for i := range want {
		if got2[i] != want[i] {
			t.Fatalf("activity = %v, want %v", got2, want)
		}
	}
}

func TestMassPayout_ContinuesAfterFailures(t *testing.T) {
	f := newSettlementFixture(t)
	ok := f.seed("10", domain.WithdrawalStatusPending)
	done := f.seed("10", domain.WithdrawalStatusCompleted)

	results := f.svc.MassPayout(context.Background(), []int64{done.ID, 999, ok.ID}, 1)
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Success || results[1].Success || !results[2].Success {
		t.Fatalf("results = %+v", results)
	}
	if results[2].Status != string(domain.WithdrawalStatusCompleted) {
		t.Fatalf("status = %s", results[2].Status)
	}

	var mass int
	for _, a := range f.db.actions() {
		if a == domain.ActivityMassPayout {
			mass++
		}
	}
	if mass != 1 {
		t.Fatalf("mass payout log entries = %d", mass)
	}
}
