// Package bot is the Telegram transport: it maps inbound commands and
// button presses onto the check-in tracker and sends notifications back.
package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dmolina/fichabot/internal/checkin"
	"github.com/dmolina/fichabot/internal/logfields"
)

// ReminderStopper stops the active reminder jobs for the day.
type ReminderStopper interface {
	StopReminders()
}

// Bot routes Telegram updates for a single configured chat.
type Bot struct {
	api       *tgbotapi.BotAPI
	chatID    int64
	tracker   *checkin.Tracker
	reminders ReminderStopper
}

// New connects to the Telegram API and returns the bot.
func New(token string, chatID int64, tracker *checkin.Tracker, reminders ReminderStopper) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	slog.Info("Telegram bot authorized", slog.String("username", api.Self.UserName))
	return &Bot{
		api:       api,
		chatID:    chatID,
		tracker:   tracker,
		reminders: reminders,
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.sendWelcome()
	case msg.IsCommand() && msg.Command() == "fichar",
		msg.Text == buttonCheckIn:
		b.doCheckIn(ctx)
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Ack first so the client stops its spinner regardless of what follows.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		slog.Warn("Failed to answer callback query", logfields.Error(err))
	}

	switch query.Data {
	case callbackCheckIn:
		b.doCheckIn(ctx)
	case callbackCancel:
		b.doCancel()
	}
}

// doCheckIn runs one attempt and relays the result as a notification.
// Attempt serializes internally, so overlapping triggers are safe.
func (b *Bot) doCheckIn(ctx context.Context) {
	if b.tracker.Done() {
		b.notify(msgAlreadyDone)
		b.reminders.StopReminders()
		return
	}

	b.notify(msgInProgress)
	outcome, err := b.tracker.Attempt(ctx)
	b.notify(outcomeMessage(outcome, err))
	if err == nil && outcome == checkin.OutcomeConfirmed {
		b.reminders.StopReminders()
	}
}

func (b *Bot) doCancel() {
	if b.tracker.Cancel() {
		b.reminders.StopReminders()
		b.notify(msgCancelled)
		return
	}
	b.notify(msgAlreadyDone)
	b.reminders.StopReminders()
}

func (b *Bot) sendWelcome() {
	msg := tgbotapi.NewMessage(b.chatID, msgWelcome)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(buttonCheckIn)),
	)
	b.send(msg)
}

// SendReminder posts the reminder prompt with confirm/cancel buttons.
// Used by the scheduler.
func (b *Bot) SendReminder() error {
	msg := tgbotapi.NewMessage(b.chatID, msgReminder)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(buttonCheckIn, callbackCheckIn)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(buttonCancel, callbackCancel)),
	)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) notify(text string) {
	b.send(tgbotapi.NewMessage(b.chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		slog.Error("Failed to send Telegram message", logfields.ChatID(b.chatID), logfields.Error(err))
	}
}
