package notify

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the bot API used to send messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends events to a chat.
type Telegram struct {
	bot    Sender
	chatID int64
}

// NewTelegram creates a notifier over an existing bot.
func NewTelegram(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// DialTelegram authorizes the bot token. Every bot API call, the
// authorization included, is bounded by timeout.
func DialTelegram(token string, chatID int64, timeout time.Duration) (*Telegram, error) {
	return dialTelegram(tgbotapi.APIEndpoint, token, chatID, timeout)
}

func dialTelegram(endpoint, token string, chatID int64, timeout time.Duration) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return NewTelegram(bot, chatID), nil
}

// Name implements Notifier.
func (t *Telegram) Name() string {
	return "telegram"
}

// Notify implements Notifier. The bot API has no context support, so the
// send runs aside and Notify returns as soon as ctx is done.
func (t *Telegram) Notify(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatMessage(ev))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sent := make(chan error, 1)

	go func() {
		_, err := t.bot.Send(msg)
		sent <- err
	}()

	select {
	case err := <-sent:
		if err != nil {
			return fmt.Errorf("send telegram message: %w", err)
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("send telegram message: %w", ctx.Err())
	}
}

// FormatMessage renders ev as Telegram HTML.
func FormatMessage(ev Event) string {
	var sb strings.Builder

	switch ev.Kind {
	case KindTriggered:
		sb.WriteString("🚨 <b>ALARM TRIGGERED</b> 🚨\n\n")
	case KindArmed:
		sb.WriteString("🔒 <b>Alarm armed</b>\n\n")
	case KindDisarmed:
		sb.WriteString("🔓 <b>Alarm disarmed</b>\n\n")
	default:
		sb.WriteString("<b>Alarm event</b>\n\n")
	}

	fmt.Fprintf(&sb, "🕐 <b>Time:</b> %s\n", ev.At.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "👤 <b>Source:</b> %s\n", html.EscapeString(ev.Source))

	if ev.Reason != "" {
		fmt.Fprintf(&sb, "⚠️ <b>Reason:</b> %s\n", html.EscapeString(ev.Reason))
	}

	return sb.String()
}
