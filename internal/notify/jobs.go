// Package notify доставляет уведомления о заявках на вывод через очередь river.
// Сервисы только ставят задачу, отправка в Telegram идет в воркере с ретраями.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/logger"
	"vipclub_backend/internal/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

const (
	EventCreated       = "created"
	EventStatusChanged = "status_changed"
)

// WithdrawalNotifyArgs - аргументы задачи notify_withdrawal
type WithdrawalNotifyArgs struct {
	WithdrawalID int64  `json:"withdrawal_id"`
	Event        string `json:"event"`
	Status       string `json:"status"` // статус на момент постановки
}

func (WithdrawalNotifyArgs) Kind() string { return "notify_withdrawal" }

// InsertFunc ставит задачу в очередь
type InsertFunc func(ctx context.Context, args WithdrawalNotifyArgs) error

// RiverInsert - InsertFunc поверх клиента river
func RiverInsert(client *river.Client[pgx.Tx]) InsertFunc {
	return func(ctx context.Context, args WithdrawalNotifyArgs) error {
		_, err := client.Insert(ctx, args, &river.InsertOpts{MaxAttempts: 5})
		return err
	}
}

// QueueNotifier реализует service.Notifier постановкой задач.
// Ошибка очереди не откатывает заявку, только пишется в лог
type QueueNotifier struct {
	insert InsertFunc
	log    *slog.Logger
}

func NewQueueNotifier(insert InsertFunc) *QueueNotifier {
	return &QueueNotifier{insert: insert, log: logger.With("component", "notify")}
}

func (n *QueueNotifier) WithdrawalCreated(ctx context.Context, w *domain.Withdrawal, _ *domain.Profile) {
	n.enqueue(ctx, WithdrawalNotifyArgs{WithdrawalID: w.ID, Event: EventCreated, Status: string(w.Status)})
}

func (n *QueueNotifier) WithdrawalStatusChanged(ctx context.Context, w *domain.Withdrawal) {
	n.enqueue(ctx, WithdrawalNotifyArgs{WithdrawalID: w.ID, Event: EventStatusChanged, Status: string(w.Status)})
}

func (n *QueueNotifier) enqueue(ctx context.Context, args WithdrawalNotifyArgs) {
	if err := n.insert(ctx, args); err != nil {
		metrics.NotificationsSent.WithLabelValues(args.Event, "enqueue_failed").Inc()
		n.log.Error("failed to enqueue notification", "withdrawal_id", args.WithdrawalID, "event", args.Event, "error", err)
	}
}

// LogNotifier - когда бот выключен, события только пишутся в лог
type LogNotifier struct{}

func (LogNotifier) WithdrawalCreated(ctx context.Context, w *domain.Withdrawal, p *domain.Profile) {
	logger.WithContext(ctx).Info("withdrawal created (bot disabled)", "withdrawal_id", w.ID, "user_id", w.UserID, "amount", w.AmountUSD.String())
}

func (LogNotifier) WithdrawalStatusChanged(ctx context.Context, w *domain.Withdrawal) {
	logger.WithContext(ctx).Info("withdrawal status changed (bot disabled)", "withdrawal_id", w.ID, "status", w.Status)
}

// Sender - транспорт, реализуется telegram ботом
type Sender interface {
	NotifyAdminsNewWithdrawal(ctx context.Context, w *domain.Withdrawal, p *domain.Profile) error
	NotifyUserWithdrawal(ctx context.Context, telegramID int64, w *domain.Withdrawal) error
}

type WithdrawalLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error)
}

type ProfileLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.Profile, error)
}

// WithdrawalNotifyWorker отправляет уведомление по актуальному состоянию заявки
type WithdrawalNotifyWorker struct {
	river.WorkerDefaults[WithdrawalNotifyArgs]
	withdrawals WithdrawalLoader
	profiles    ProfileLoader
	sender      Sender
	log         *slog.Logger
}

func NewWithdrawalNotifyWorker(withdrawals WithdrawalLoader, profiles ProfileLoader, sender Sender) *WithdrawalNotifyWorker {
	return &WithdrawalNotifyWorker{
		withdrawals: withdrawals,
		profiles:    profiles,
		sender:      sender,
		log:         logger.With("component", "notify_worker"),
	}
}

func (w *WithdrawalNotifyWorker) Work(ctx context.Context, job *river.Job[WithdrawalNotifyArgs]) error {
	args := job.Args

	wd, err := w.withdrawals.GetByID(ctx, args.WithdrawalID)
	if err != nil {
		return fmt.Errorf("load withdrawal: %w", err)
	}
	if wd == nil {
		w.log.Warn("withdrawal for notification not found", "withdrawal_id", args.WithdrawalID)
		return nil
	}

	// заявка ушла дальше, о новом статусе будет своя задача
	if args.Event == EventStatusChanged && args.Status != "" && string(wd.Status) != args.Status {
		metrics.NotificationsSent.WithLabelValues(args.Event, "stale").Inc()
		return nil
	}

	profile, err := w.profiles.GetByID(ctx, wd.UserID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil
	}

	switch args.Event {
	case EventCreated:
		err = w.sender.NotifyAdminsNewWithdrawal(ctx, wd, profile)
	case EventStatusChanged:
		if profile.TelegramID == nil {
			metrics.NotificationsSent.WithLabelValues(args.Event, "no_telegram").Inc()
			return nil
		}
		err = w.sender.NotifyUserWithdrawal(ctx, *profile.TelegramID, wd)
	default:
		w.log.Warn("unknown notification event", "event", args.Event)
		return nil
	}

	if err != nil {
		metrics.NotificationsSent.WithLabelValues(args.Event, "error").Inc()
		return fmt.Errorf("send %s notification: %w", args.Event, err)
	}
	metrics.NotificationsSent.WithLabelValues(args.Event, "sent").Inc()
	return nil
}
