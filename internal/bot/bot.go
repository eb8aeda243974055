package bot

import (
	"context"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/ankular/internal/database"
	"github.com/example/ankular/internal/study"
)

// Bot is the Telegram front end over the study engine. It owns rendering and
// the feedback display delay; all scheduling and aggregation decisions stay
// inside the engine.
type Bot struct {
	api    *tgbotapi.BotAPI
	store  *database.Store
	engine *study.Engine
	cfg    *Config

	mu       sync.Mutex
	sessions map[int64]*study.Session // one active session per chat
	locks    map[int64]*sync.Mutex    // serializes session access per chat
	chats    map[int64]bool           // chats registered for due-card reminders
}

// New creates a bot for the given token.
func New(token string, store *database.Store, engine *study.Engine, cfg *Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Bot{
		api:      api,
		store:    store,
		engine:   engine,
		cfg:      cfg,
		sessions: make(map[int64]*study.Session),
		locks:    make(map[int64]*sync.Mutex),
		chats:    make(map[int64]bool),
	}, nil
}

// Start runs the update loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Printf("Bot authorized as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop shuts down the update channel.
func (b *Bot) Stop(_ context.Context) error {
	b.api.StopReceivingUpdates()
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// session returns the chat's active session, if any.
func (b *Bot) session(chatID int64) *study.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

// chatLock returns the mutex serializing session access for a chat.
func (b *Bot) chatLock(chatID int64) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		b.locks[chatID] = l
	}
	return l
}

// withSession runs fn with the chat's current session, possibly nil, while
// holding the chat lock. Sessions are single-threaded and the delayed
// advance fires off the update loop, so every session access goes through
// here.
func (b *Bot) withSession(chatID int64, fn func(*study.Session)) {
	lock := b.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()
	fn(b.session(chatID))
}

func (b *Bot) setSession(chatID int64, s *study.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil {
		delete(b.sessions, chatID)
	} else {
		b.sessions[chatID] = s
	}
}

func (b *Bot) registerChat(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[chatID] = true
}

// ReminderTargets lists the chats that opted into due-card reminders.
// TODO: persist chat subscriptions so reminders survive a restart.
func (b *Bot) ReminderTargets() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int64, 0, len(b.chats))
	for id := range b.chats {
		out = append(out, id)
	}
	return out
}

// SendReminders notifies a chat that cards are waiting. Implements the
// reminder scheduler's Notifier interface.
func (b *Bot) SendReminders(chatID int64, count int) error {
	text := fmt.Sprintf("You have %d cards due for review. Use /topics to start studying.", count)
	if count == 1 {
		text = "You have 1 card due for review. Use /topics to start studying."
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}
