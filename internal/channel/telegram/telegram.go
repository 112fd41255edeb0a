// Package telegram is the long-polling Telegram adapter. This is a
// single-user assistant, so updates from anyone outside the allow list are
// dropped before they reach the orchestrator.
package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/foremanhq/foreman/internal/channel"
)

type Adapter struct {
	bot      *tgbotapi.BotAPI
	token    string
	allowed  map[int64]bool
	logger   *slog.Logger
	incoming chan *channel.Message
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Telegram adapter. An empty allowedUserIDs list means
// everyone is allowed (development only).
func New(token string, allowedUserIDs []int64, logger *slog.Logger) *Adapter {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &Adapter{
		token:    token,
		allowed:  allowed,
		logger:   logger,
		incoming: make(chan *channel.Message, 100),
		done:     make(chan struct{}),
	}
}

func (t *Adapter) Name() string {
	return "telegram"
}

func (t *Adapter) Enabled() bool {
	return t.token != ""
}

func (t *Adapter) Start(ctx context.Context) error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return err
	}
	t.bot = bot

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for update := range updates {
			if update.Message == nil {
				continue
			}
			if !t.userAllowed(update.Message.From.ID) {
				t.logger.Warn("dropping message from unknown user", "user_id", update.Message.From.ID)
				continue
			}
			msg := t.convert(update.Message)
			if msg == nil {
				continue
			}
			select {
			case <-t.done:
				return
			case <-ctx.Done():
				return
			case t.incoming <- msg:
			}
		}
	}()
	return nil
}

func (t *Adapter) userAllowed(id int64) bool {
	return len(t.allowed) == 0 || t.allowed[id]
}

// convert maps a Telegram message to a channel message, resolving the
// download URL for voice notes.
func (t *Adapter) convert(m *tgbotapi.Message) *channel.Message {
	msg := &channel.Message{
		ID:        strconv.Itoa(m.MessageID),
		Channel:   "telegram",
		UserID:    strconv.FormatInt(m.Chat.ID, 10),
		Kind:      channel.KindText,
		Content:   m.Text,
		Timestamp: int64(m.Date),
	}

	if m.Voice != nil {
		url, err := t.bot.GetFileDirectURL(m.Voice.FileID)
		if err != nil {
			t.logger.Error("voice file url lookup failed", "error", err)
			return nil
		}
		msg.Kind = channel.KindVoice
		msg.VoiceURL = url
		msg.DurationSeconds = m.Voice.Duration
	}
	return msg
}

// Stop signals the update reader, waits for it to exit, then closes
// Incoming. Closing only after the reader is gone keeps a late update
// from hitting a closed channel.
func (t *Adapter) Stop() error {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	close(t.done)
	t.wg.Wait()
	close(t.incoming)
	return nil
}

func (t *Adapter) Send(userID string, resp *channel.Response) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	reply := tgbotapi.NewMessage(chatID, resp.Content)
	_, err = t.bot.Send(reply)
	return err
}

func (t *Adapter) Incoming() <-chan *channel.Message {
	return t.incoming
}
