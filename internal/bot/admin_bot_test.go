package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeMessenger struct {
	sent []sentMessage
	fail map[int64]bool
}

func (m *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, fmt.Errorf("unexpected chattable %T", c)
	}
	if m.fail[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("blocked by user")
	}
	m.sent = append(m.sent, sentMessage{chatID: msg.ChatID, text: msg.Text})
	return tgbotapi.Message{}, nil
}

type fakeSettlement struct {
	approveErr error
	adminIDs   []int64
	rejected   string
	counts     map[domain.WithdrawalStatus]int
	list       []domain.Withdrawal
	mass       []int64
}

func (f *fakeSettlement) Approve(_ context.Context, id, adminID int64) (*domain.Withdrawal, error) {
	f.adminIDs = append(f.adminIDs, adminID)
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	return &domain.Withdrawal{ID: id, AmountUSD: decimal.NewFromInt(30), Status: domain.WithdrawalStatusCompleted, TxHash: "0xabc"}, nil
}

func (f *fakeSettlement) Reject(_ context.Context, id, adminID int64, reason string) (*domain.Withdrawal, error) {
	f.rejected = reason
	return &domain.Withdrawal{ID: id, AmountUSD: decimal.NewFromInt(30), Status: domain.WithdrawalStatusRejected}, nil
}

func (f *fakeSettlement) Retry(ctx context.Context, id, adminID int64) (*domain.Withdrawal, error) {
	return f.Approve(ctx, id, adminID)
}

func (f *fakeSettlement) MassPayout(_ context.Context, ids []int64, _ int64) []service.MassPayoutItem {
	f.mass = ids
	out := make([]service.MassPayoutItem, 0, len(ids))
	for i, id := range ids {
		out = append(out, service.MassPayoutItem{ID: id, Success: i == 0, Error: "invalid transition"})
	}
	return out
}

func (f *fakeSettlement) List(context.Context, domain.WithdrawalStatus, int) ([]domain.Withdrawal, error) {
	return f.list, nil
}

func (f *fakeSettlement) CountByStatus(context.Context) (map[domain.WithdrawalStatus]int, error) {
	return f.counts, nil
}

type fakeDirectory map[int64]*domain.Profile

func (d fakeDirectory) GetByTelegramID(_ context.Context, tg int64) (*domain.Profile, error) {
	return d[tg], nil
}

type failingDirectory struct{}

func (failingDirectory) GetByTelegramID(context.Context, int64) (*domain.Profile, error) {
	return nil, errors.New("connection refused")
}

func TestDispatch_UnlinkedAdminCannotSettle(t *testing.T) {
	cases := []struct {
		name string
		dir  AdminDirectory
	}{
		{"без справочника", nil},
		{"профиль не найден", fakeDirectory{}},
		{"ошибка справочника", failingDirectory{}},
	}
	commands := []struct{ command, args string }{
		{"approve", "17"},
		{"reject", "17 spam"},
		{"retry", "17"},
		{"mass", "17 18"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &fakeSettlement{}
			b := newAdminBot(&fakeMessenger{}, s, tc.dir, []int64{111})
			for _, c := range commands {
				out := b.dispatch(context.Background(), 111, c.command, c.args)
				if out != notLinkedMessage {
					t.Fatalf("/%s: ответ %q, ожидали отказ", c.command, out)
				}
			}
			if len(s.adminIDs) != 0 || s.rejected != "" || len(s.mass) != 0 {
				t.Fatalf("settlement вызван без профиля админа: %+v", s)
			}
			// просмотр не требует привязки
			if out := b.dispatch(context.Background(), 111, "pending", ""); out != "Нет ожидающих выводов" {
				t.Fatalf("pending = %q", out)
			}
		})
	}
}

func TestDispatch_Approve(t *testing.T) {
	s := &fakeSettlement{}
	b := newAdminBot(&fakeMessenger{}, s, fakeDirectory{111: {ID: 42}}, []int64{111})

	out := b.dispatch(context.Background(), 111, "approve", "17")
	if !strings.Contains(out, "#17") || !strings.Contains(out, "0xabc") {
		t.Fatalf("reply = %q", out)
	}
	if len(s.adminIDs) != 1 || s.adminIDs[0] != 42 {
		t.Fatalf("admin profile id = %v, want 42", s.adminIDs)
	}

	if out := b.dispatch(context.Background(), 111, "approve", "abc"); !strings.Contains(out, "Использование") {
		t.Fatalf("bad id reply = %q", out)
	}
}

func TestDispatch_PayoutFailureSuggestsRetry(t *testing.T) {
	s := &fakeSettlement{approveErr: fmt.Errorf("%w: provider timeout", service.ErrPayoutFailed)}
	b := newAdminBot(&fakeMessenger{}, s, fakeDirectory{111: {ID: 42}}, []int64{111})

	out := b.dispatch(context.Background(), 111, "approve", "5")
	if !strings.Contains(out, "/retry 5") || !strings.Contains(out, "provider timeout") {
		t.Fatalf("reply = %q", out)
	}

	s.approveErr = service.ErrInvalidTransition
	if out := b.dispatch(context.Background(), 111, "approve", "5"); !strings.Contains(out, "уже обработан") {
		t.Fatalf("reply = %q", out)
	}
}

func TestDispatch_RejectNeedsReason(t *testing.T) {
	s := &fakeSettlement{}
	b := newAdminBot(&fakeMessenger{}, s, fakeDirectory{1: {ID: 7}}, nil)

	if out := b.dispatch(context.Background(), 1, "reject", "9"); !strings.Contains(out, "Использование") {
		t.Fatalf("reply = %q", out)
	}
	b.dispatch(context.Background(), 1, "reject", "9 wallet on blacklist")
	if s.rejected != "wallet on blacklist" {
		t.Fatalf("reason = %q", s.rejected)
	}
}

func TestDispatch_MassAndStats(t *testing.T) {
	s := &fakeSettlement{counts: map[domain.WithdrawalStatus]int{domain.WithdrawalStatusPending: 3}}
	b := newAdminBot(&fakeMessenger{}, s, fakeDirectory{1: {ID: 7}}, nil)

	out := b.dispatch(context.Background(), 1, "mass", "1, 2 3")
	if len(s.mass) != 3 || !strings.Contains(out, "1 из 3") {
		t.Fatalf("mass = %v, reply = %q", s.mass, out)
	}
	if out := b.dispatch(context.Background(), 1, "stats", ""); !strings.Contains(out, "Ожидают: 3") {
		t.Fatalf("stats = %q", out)
	}
	if out := b.dispatch(context.Background(), 1, "pending", ""); out != "Нет ожидающих выводов" {
		t.Fatalf("pending = %q", out)
	}
}

func TestNotifyAdmins_PartialDelivery(t *testing.T) {
	m := &fakeMessenger{fail: map[int64]bool{1: true}}
	b := newAdminBot(m, &fakeSettlement{}, nil, []int64{1, 2})

	w := &domain.Withdrawal{ID: 8, AmountUSD: decimal.NewFromInt(12), Currency: "USDT", WalletAddress: "<addr>"}
	if err := b.NotifyAdminsNewWithdrawal(context.Background(), w, &domain.Profile{ID: 3, Username: "bob"}); err != nil {
		t.Fatalf("one admin reached, got %v", err)
	}
	if len(m.sent) != 1 || m.sent[0].chatID != 2 || !strings.Contains(m.sent[0].text, "&lt;addr&gt;") {
		t.Fatalf("sent = %+v", m.sent)
	}

	m.fail[2] = true
	if err := b.NotifyAdminsNewWithdrawal(context.Background(), w, &domain.Profile{ID: 3}); err == nil {
		t.Fatal("expected error when nobody was reached")
	}
}

func TestNotifyUserWithdrawal(t *testing.T) {
	m := &fakeMessenger{}
	b := newAdminBot(m, &fakeSettlement{}, nil, nil)

	w := &domain.Withdrawal{ID: 1, AmountUSD: decimal.NewFromInt(30), Status: domain.WithdrawalStatusRejected, AdminNotes: "duplicate"}
	if err := b.NotifyUserWithdrawal(context.Background(), 77, w); err != nil {
		t.Fatal(err)
	}
	if len(m.sent) != 1 || !strings.Contains(m.sent[0].text, "duplicate") {
		t.Fatalf("sent = %+v", m.sent)
	}

	w.Status = domain.WithdrawalStatusProcessing
	if err := b.NotifyUserWithdrawal(context.Background(), 77, w); err != nil || len(m.sent) != 1 {
		t.Fatal("processing status must not be sent")
	}
}
