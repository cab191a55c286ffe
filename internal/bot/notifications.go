package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"vipclub_backend/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NotifyAdminsNewWithdrawal рассылает новую заявку всем админам.
// Ошибка возвращается, только если не дошло ни одному
func (b *AdminBot) NotifyAdminsNewWithdrawal(_ context.Context, w *domain.Withdrawal, p *domain.Profile) error {
	username := p.Username
	if username == "" {
		username = fmt.Sprintf("id:%d", p.ID)
	}

	message := fmt.Sprintf(`<b>Новый запрос на вывод!</b>

Пользователь: %s (VIP %d)
Сумма: %s USD (%s)
Кошелек: <code>%s</code>

ID: #%d

/approve %d - одобрить
/reject %d причина - отклонить`,
		html.EscapeString(username), p.VIPLevel, w.AmountUSD.StringFixed(2), html.EscapeString(w.Currency),
		html.EscapeString(w.WalletAddress), w.ID, w.ID, w.ID)

	return b.broadcast(message)
}

// NotifyUserWithdrawal сообщает пользователю об изменении статуса заявки
func (b *AdminBot) NotifyUserWithdrawal(_ context.Context, telegramID int64, w *domain.Withdrawal) error {
	var message string
	switch w.Status {
	case domain.WithdrawalStatusCompleted:
		message = fmt.Sprintf("<b>Вывод выполнен!</b>\n\nСумма: %s USD\nTX: <code>%s</code>", w.AmountUSD.StringFixed(2), html.EscapeString(w.TxHash))
	case domain.WithdrawalStatusRejected:
		message = fmt.Sprintf("<b>Вывод отклонён</b>\n\nСумма возвращена на баланс: %s USD", w.AmountUSD.StringFixed(2))
		if w.AdminNotes != "" {
			message += "\nПричина: " + html.EscapeString(w.AdminNotes)
		}
	case domain.WithdrawalStatusError:
		message = fmt.Sprintf("<b>Выплата задерживается</b>\n\nЗаявка #%d на %s USD будет обработана повторно.", w.ID, w.AmountUSD.StringFixed(2))
	default:
		return nil
	}

	msg := tgbotapi.NewMessage(telegramID, message)
	msg.ParseMode = "HTML"
	if _, err := b.out.Send(msg); err != nil {
		b.log.Error("не удалось уведомить пользователя о выводе", "tg_id", telegramID, "error", err)
		return err
	}
	return nil
}

// NotifyStuck - заявки, зависшие в processing
func (b *AdminBot) NotifyStuck(list []domain.Withdrawal) {
	var sb strings.Builder
	sb.WriteString("⚠️ <b>Заявки зависли в обработке</b>\n\nВыплата могла уйти без записи статуса, проверьте у провайдера:\n\n")
	for _, w := range list {
		sb.WriteString(fmt.Sprintf("#%d | %s USD | <code>%s</code>\n", w.ID, w.AmountUSD.StringFixed(2), html.EscapeString(w.WalletAddress)))
	}
	if err := b.broadcast(sb.String()); err != nil {
		b.log.Error("failed to report stuck withdrawals", "error", err)
	}
}

func (b *AdminBot) broadcast(message string) error {
	if len(b.adminIDs) == 0 {
		return errors.New("no admin chats configured")
	}

	delivered := 0
	var lastErr error
	for _, adminID := range b.adminIDs {
		msg := tgbotapi.NewMessage(adminID, message)
		msg.ParseMode = "HTML"
		if _, err := b.out.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return lastErr
	}
	return nil
}
