package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/sirupsen/logrus"

	"referral-bot/internal/metrics"
)

type Bot struct {
	Instance       *telego.Bot
	Router         *Router
	Log            *logrus.Logger
	RequestTimeout time.Duration

	handle atomic.Pointer[string]
}

func NewBot(token string, log *logrus.Logger, requestTimeout time.Duration) (*Bot, error) {
	tgBot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance:       tgBot,
		Log:            log,
		RequestTimeout: requestTimeout,
	}, nil
}

// SelfHandle returns the bot's @username, asking Telegram only until the
// first successful answer.
func (b *Bot) SelfHandle(ctx context.Context) (string, error) {
	if h := b.handle.Load(); h != nil {
		return *h, nil
	}

	me, err := b.Instance.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("getMe: %w", err)
	}
	username := me.Username
	b.handle.Store(&username)
	return username, nil
}

// Start long-polls Telegram until ctx is cancelled. Every update runs in
// its own goroutine.
func (b *Bot) Start(ctx context.Context) error {
	if b.Router == nil {
		return fmt.Errorf("bot router is not configured")
	}

	updates, err := b.Instance.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.Instance, updates)
	if err != nil {
		return fmt.Errorf("failed to create update handler: %w", err)
	}

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		ev, ok := MessageEvent(update.Message)
		if !ok {
			return nil
		}
		b.dispatch(ctx, ev)
		return nil
	}, th.AnyMessageWithText())

	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		b.dispatch(ctx, CallbackEvent(callback))
		if err := ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(callback.ID)); err != nil {
			b.Log.WithError(err).WithField("user_id", callback.From.ID).Debug("Failed to answer callback query")
		}
		return nil
	}, th.AnyCallbackQuery())

	b.Log.Info("Bot started, polling for updates")
	return handler.Start()
}

// dispatch routes one event and sends its replies. A failing handler is
// logged and answered with the generic apology; it never affects other events.
func (b *Bot) dispatch(parent context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(parent, b.RequestTimeout)
	defer cancel()

	route, replies, err := b.Router.Dispatch(ctx, ev)
	metrics.RecordUpdate(route, err)

	log := b.Log.WithFields(logrus.Fields{
		"event_id": ev.ID,
		"user_id":  ev.UserID,
		"route":    route,
	})
	if err != nil {
		log.WithError(err).Error("Failed to handle update")
		replies = []Reply{RenderFailure()}
	} else {
		log.Debug("Update handled")
	}

	sendCtx, cancelSend := context.WithTimeout(parent, b.RequestTimeout)
	defer cancelSend()
	for _, r := range replies {
		if err := b.Send(sendCtx, ev.ChatID, r); err != nil {
			log.WithError(err).Warn("Failed to send reply")
		}
	}
}

// Send delivers one reply as an HTML message with an optional inline keyboard.
func (b *Bot) Send(ctx context.Context, chatID int64, r Reply) error {
	msg := tu.Message(tu.ID(chatID), r.Text).WithParseMode(telego.ModeHTML)
	if markup := Keyboard(r.Buttons); markup != nil {
		msg = msg.WithReplyMarkup(markup)
	}
	_, err := b.Instance.SendMessage(ctx, msg)
	return err
}

// Keyboard converts button rows to an inline keyboard, nil when empty.
func Keyboard(rows [][]Button) *telego.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}

	keyboardRows := make([][]telego.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			button := tu.InlineKeyboardButton(btn.Text)
			if btn.URL != "" {
				button = button.WithURL(btn.URL)
			} else {
				button = button.WithCallbackData(btn.Data)
			}
			buttons = append(buttons, button)
		}
		keyboardRows = append(keyboardRows, tu.InlineKeyboardRow(buttons...))
	}
	return tu.InlineKeyboard(keyboardRows...)
}

// MessageEvent converts a text message. Messages without a sender are skipped.
func MessageEvent(msg *telego.Message) (Event, bool) {
	if msg == nil || msg.From == nil {
		return Event{}, false
	}

	ev := Event{
		ID:       uuid.NewString(),
		Kind:     EventText,
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.Username,
		Text:     msg.Text,
	}
	if name, args, ok := ParseCommand(msg.Text); ok {
		ev.Kind = EventCommand
		ev.Name = name
		ev.Args = args
	}
	return ev, true
}

// CallbackEvent converts a button press. Replies go to the user's private chat.
func CallbackEvent(q *telego.CallbackQuery) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     EventCallback,
		UserID:   q.From.ID,
		ChatID:   q.From.ID,
		Username: q.From.Username,
		Name:     q.Data,
	}
}
