package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/channel-archiver/internal/domain"
	"github.com/orgball2608/channel-archiver/pkg/logger"
)

// Notifier delivers a finished run report to an operator.
type Notifier interface {
	Notify(ctx context.Context, report *domain.Report) error
}

// Noop is used when no report chat is configured.
type Noop struct{}

func (Noop) Notify(context.Context, *domain.Report) error { return nil }

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts reports to a single chat.
type Telegram struct {
	bot    Sender
	chatID int64
	logger logger.Logger
}

var _ Notifier = (*Telegram)(nil)

func NewTelegram(bot Sender, chatID int64, log logger.Logger) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.WithComponent("Notifier"),
	}
}

// SendMessage sends a MarkdownV2 text and returns the id of the created message.
func (t *Telegram) SendMessage(chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	sent, err := t.bot.Send(msg)
	if err != nil {
		t.logger.Error("Error sending message", "chatID", chatID, "error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	t.logger.Info("Message sent", "chatID", chatID, "messageID", sent.MessageID)
	return sent.MessageID, nil
}

func (t *Telegram) Notify(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.SendMessage(t.chatID, FormatReport(report))
	return err
}
