package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"vipclub_backend/internal/domain"
	"vipclub_backend/internal/logger"
	"vipclub_backend/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Settlement - операции над заявками, доступные из бота
type Settlement interface {
	Approve(ctx context.Context, id, adminID int64) (*domain.Withdrawal, error)
	Reject(ctx context.Context, id, adminID int64, reason string) (*domain.Withdrawal, error)
	Retry(ctx context.Context, id, adminID int64) (*domain.Withdrawal, error)
	MassPayout(ctx context.Context, ids []int64, adminID int64) []service.MassPayoutItem
	List(ctx context.Context, status domain.WithdrawalStatus, limit int) ([]domain.Withdrawal, error)
	CountByStatus(ctx context.Context) (map[domain.WithdrawalStatus]int, error)
}

// AdminDirectory находит профиль админа по telegram id, чтобы писать его id в журнал
type AdminDirectory interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Profile, error)
}

type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminBot обрабатывает команды администраторов через Telegram
type AdminBot struct {
	api        *tgbotapi.BotAPI
	out        messenger
	settlement Settlement
	directory  AdminDirectory
	adminIDs   []int64 // Telegram ID пользователей с правами админа
	stopCh     chan struct{}
	wg         sync.WaitGroup
	log        *slog.Logger
}

// NewAdminBot создаёт нового админ бота
func NewAdminBot(token string, settlement Settlement, directory AdminDirectory, adminIDs []int64) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newAdminBot(api, settlement, directory, adminIDs)
	b.api = api
	b.log.Info("admin bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newAdminBot(out messenger, settlement Settlement, directory AdminDirectory, adminIDs []int64) *AdminBot {
	return &AdminBot{
		out:        out,
		settlement: settlement,
		directory:  directory,
		adminIDs:   adminIDs,
		stopCh:     make(chan struct{}),
		log:        logger.With("component", "admin_bot"),
	}
}

// Start запускает прослушивание команд
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || update.Message.From == nil {
				continue
			}
			if !b.isAdmin(update.Message.From.ID) || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop плавно останавливает бота
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}

	// Ожидание завершения обработчиков с таймаутом
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *AdminBot) isAdmin(telegramID int64) bool {
	for _, id := range b.adminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	response := b.dispatch(ctx, msg.From.ID, msg.Command(), msg.CommandArguments())

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	reply.ParseMode = "HTML"
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.out.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *AdminBot) dispatch(ctx context.Context, telegramID int64, command, args string) string {
	switch command {
	case "start", "help":
		return helpMessage
	case "stats":
		return b.handleStats(ctx)
	case "pending", "withdrawals":
		return b.handleList(ctx, domain.WithdrawalStatusPending)
	case "errors":
		return b.handleList(ctx, domain.WithdrawalStatusError)
	case "approve", "reject", "retry", "mass":
		// действия с выводами пишутся в журнал от имени профиля админа
		adminID, err := b.adminProfileID(ctx, telegramID)
		if err != nil {
			b.log.Warn("settlement command refused", "telegram_id", telegramID, "command", command, "error", err)
			return notLinkedMessage
		}
		switch command {
		case "approve":
			return b.handleApprove(ctx, adminID, args)
		case "reject":
			return b.handleReject(ctx, adminID, args)
		case "retry":
			return b.handleRetry(ctx, adminID, args)
		default:
			return b.handleMass(ctx, adminID, args)
		}
	}
	return "❌ Неизвестная команда. Используйте /help для списка команд."
}

var errAdminNotLinked = errors.New("admin telegram is not linked to a profile")

const notLinkedMessage = "❌ Telegram аккаунт не привязан к профилю администратора. Действие не выполнено."

// adminProfileID - id профиля админа для журнала
func (b *AdminBot) adminProfileID(ctx context.Context, telegramID int64) (int64, error) {
	if b.directory == nil {
		return 0, errAdminNotLinked
	}
	p, err := b.directory.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("lookup admin profile: %w", err)
	}
	if p == nil || p.ID <= 0 {
		return 0, errAdminNotLinked
	}
	return p.ID, nil
}

const helpMessage = `<b>🤖 Команды администратора</b>

<b>💸 Выводы:</b>
/pending - Ожидающие выводы
/errors - Выводы с ошибкой выплаты
/approve &lt;id&gt; - Одобрить и выплатить
/reject &lt;id&gt; &lt;причина&gt; - Отклонить с возвратом на баланс
/retry &lt;id&gt; - Повторить выплату после ошибки
/mass &lt;id&gt; &lt;id&gt; ... - Массовая выплата

<b>📊 Статистика:</b>
/stats - Заявки по статусам`

func (b *AdminBot) handleStats(ctx context.Context) string {
	counts, err := b.settlement.CountByStatus(ctx)
	if err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	return fmt.Sprintf(`<b>Заявки на вывод</b>

- Ожидают: %d
- В обработке: %d
- Выполнены: %d
- Отклонены: %d
- Ошибка выплаты: %d`,
		counts[domain.WithdrawalStatusPending],
		counts[domain.WithdrawalStatusProcessing],
		counts[domain.WithdrawalStatusCompleted],
		counts[domain.WithdrawalStatusRejected],
		counts[domain.WithdrawalStatusError],
	)
}

func (b *AdminBot) handleList(ctx context.Context, status domain.WithdrawalStatus) string {
	withdrawals, err := b.settlement.List(ctx, status, 20)
	if err != nil {
		return fmt.Sprintf("Ошибка: %v", err)
	}

	if len(withdrawals) == 0 {
		if status == domain.WithdrawalStatusError {
			return "Нет выводов с ошибкой"
		}
		return "Нет ожидающих выводов"
	}

	var sb strings.Builder
	if status == domain.WithdrawalStatusError {
		sb.WriteString("<b>Выводы с ошибкой</b>\n\n")
	} else {
		sb.WriteString("<b>Ожидающие выводы</b>\n\n")
	}

	for _, w := range withdrawals {
		sb.WriteString(fmt.Sprintf("#%d | user %d\n", w.ID, w.UserID))
		sb.WriteString(fmt.Sprintf("Сумма: %s USD (%s)\n", w.AmountUSD.StringFixed(2), html.EscapeString(w.Currency)))
		sb.WriteString(fmt.Sprintf("Кошелёк: <code>%s</code>\n", html.EscapeString(w.WalletAddress)))
		if w.ErrorMessage != "" {
			sb.WriteString(fmt.Sprintf("Ошибка: %s\n", html.EscapeString(w.ErrorMessage)))
		}
		sb.WriteString(fmt.Sprintf("%s\n\n", w.CreatedAt.Format("02.01.2006 15:04")))
	}

	if status == domain.WithdrawalStatusError {
		sb.WriteString("\n/retry &lt;id&gt; — повторить")
	} else {
		sb.WriteString("\n/approve &lt;id&gt; — одобрить\n/reject &lt;id&gt; &lt;причина&gt; — отклонить")
	}
	return sb.String()
}

func (b *AdminBot) handleApprove(ctx context.Context, adminID int64, args string) string {
	id, ok := parseID(args)
	if !ok {
		return "Использование: /approve &lt;id&gt;"
	}

	w, err := b.settlement.Approve(ctx, id, adminID)
	if err != nil {
		return settlementError(id, err)
	}
	return fmt.Sprintf("✅ Вывод #%d выплачен\n\nСумма: %s USD\nТранзакция: <code>%s</code>", id, w.AmountUSD.StringFixed(2), html.EscapeString(w.TxHash))
}

func (b *AdminBot) handleReject(ctx context.Context, adminID int64, args string) string {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return "Использование: /reject &lt;id&gt; &lt;причина&gt;"
	}
	id, ok := parseID(parts[0])
	if !ok {
		return "Неверный ID вывода"
	}

	w, err := b.settlement.Reject(ctx, id, adminID, strings.TrimSpace(parts[1]))
	if err != nil {
		return settlementError(id, err)
	}
	return fmt.Sprintf("Вывод #%d отклонён. %s USD возвращены на баланс.", id, w.AmountUSD.StringFixed(2))
}

func (b *AdminBot) handleRetry(ctx context.Context, adminID int64, args string) string {
	id, ok := parseID(args)
	if !ok {
		return "Использование: /retry &lt;id&gt;"
	}

	w, err := b.settlement.Retry(ctx, id, adminID)
	if err != nil {
		return settlementError(id, err)
	}
	return fmt.Sprintf("✅ Вывод #%d выплачен повторно\nТранзакция: <code>%s</code>", id, html.EscapeString(w.TxHash))
}

func (b *AdminBot) handleMass(ctx context.Context, adminID int64, args string) string {
	fields := strings.Fields(strings.ReplaceAll(args, ",", " "))
	if len(fields) == 0 {
		return "Использование: /mass &lt;id&gt; &lt;id&gt; ..."
	}
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, ok := parseID(f)
		if !ok {
			return fmt.Sprintf("Неверный ID вывода: %s", html.EscapeString(f))
		}
		ids = append(ids, id)
	}

	results := b.settlement.MassPayout(ctx, ids, adminID)

	var sb strings.Builder
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
			sb.WriteString(fmt.Sprintf("✅ #%d\n", r.ID))
		} else {
			sb.WriteString(fmt.Sprintf("❌ #%d: %s\n", r.ID, html.EscapeString(r.Error)))
		}
	}
	return fmt.Sprintf("<b>Массовая выплата: %d из %d</b>\n\n%s", succeeded, len(ids), sb.String())
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func settlementError(id int64, err error) string {
	switch {
	case errors.Is(err, service.ErrWithdrawalNotFound):
		return fmt.Sprintf("Вывод #%d не найден", id)
	case errors.Is(err, service.ErrInvalidTransition):
		return fmt.Sprintf("Вывод #%d уже обработан или в неподходящем статусе", id)
	case errors.Is(err, service.ErrPayoutFailed):
		return fmt.Sprintf("⚠️ Выплата по #%d не прошла, заявка в статусе error.\n%s\n\n/retry %d — повторить", id, html.EscapeString(err.Error()), id)
	}
	return fmt.Sprintf("Ошибка: %s", html.EscapeString(err.Error()))
}
