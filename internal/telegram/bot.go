package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"feedback-insights/internal/auth"
	"feedback-insights/internal/insights"
	"feedback-insights/internal/session"
	"feedback-insights/internal/storage"
)

const surface = "telegram"

// Telegram rejects messages longer than this many UTF-16 units; runes are a
// safe approximation for the text we send.
const maxMessageLen = 4000

type Deps struct {
	Service  *insights.Service
	Sessions session.Store
	Auth     *auth.Service
	Recorder storage.Recorder
	Logger   *zap.Logger
}

// Bot exposes the insights pipeline as chat commands. Each chat has its own
// session state and remembers the last selection for follow-up questions.
type Bot struct {
	api      *tgbotapi.BotAPI
	s        sender
	service  *insights.Service
	sessions session.Store
	authSvc  *auth.Service
	recorder storage.Recorder
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	last map[int64]insights.Request
}

func New(botToken string, d Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	b := newBot(botAPISender{api: api}, d)
	b.api = api
	return b, nil
}

func newBot(s sender, d Deps) *Bot {
	b := &Bot{
		s:        s,
		service:  d.Service,
		sessions: d.Sessions,
		authSvc:  d.Auth,
		recorder: d.Recorder,
		logger:   d.Logger,
		now:      time.Now,
		last:     make(map[int64]insights.Request),
	}
	if b.recorder == nil {
		b.recorder = storage.Nop{}
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.sessions == nil {
		b.sessions = session.NewMemoryStore()
	}
	return b
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	b.logger.Info("telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			return nil
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
	case update.Message != nil && update.Message.From != nil:
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	}
}

// NotifyAdmin sends text to the admin chat. It is a no-op when no admin is
// configured.
func (b *Bot) NotifyAdmin(text string) error {
	adminID := b.authSvc.AdminID()
	if adminID == 0 {
		return nil
	}
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := b.s.Send(tgbotapi.NewMessage(adminID, part)); err != nil {
			return fmt.Errorf("notify admin: %w", err)
		}
	}
	return nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := b.s.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
			return
		}
	}
}

func sessionID(chatID int64) string {
	return "tg-" + strconv.FormatInt(chatID, 10)
}

func (b *Bot) lastRequest(chatID int64) insights.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if req, ok := b.last[chatID]; ok {
		return req
	}
	return insights.OverallRequest()
}

func (b *Bot) rememberRequest(chatID int64, req insights.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[chatID] = req
}
