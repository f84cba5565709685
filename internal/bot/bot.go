package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/fittracker/fittracker-bot/internal/bot/handlers"
	"github.com/fittracker/fittracker-bot/internal/bot/state"
	"github.com/fittracker/fittracker-bot/internal/logger"
)

// Bot wraps the telegram API and routes updates to the handlers. Updates for
// the same user are serialized so a fast second tap cannot race the state
// machine.
type Bot struct {
	api     *tgbotapi.BotAPI
	updates *handlers.UpdateHandler
	locks   sync.Map // telegram user ID -> *sync.Mutex
}

// New authorizes against the telegram API and builds the handler chain.
func New(token string, deps handlers.Dependencies, scratch state.ScratchStore) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Infof("Bot authorized on account %s", api.Self.UserName)
	return &Bot{
		api:     api,
		updates: handlers.NewUpdateHandler(api, deps, scratch),
	}, nil
}

// HandleUpdate processes one update under the per-user lock. Both the
// polling loop and the webhook endpoint enter here.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	from := update.SentFrom()
	if from != nil {
		mu, _ := b.locks.LoadOrStore(from.ID, &sync.Mutex{})
		lock := mu.(*sync.Mutex)
		lock.Lock()
		defer lock.Unlock()
	}
	return b.updates.Handle(ctx, update)
}

// Start runs the long-polling loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("Bot is now listening for updates...")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Bot is shutting down...")
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if err := b.HandleUpdate(ctx, update); err != nil {
				logger.Errorf("Error handling update: %v", err)
			}
		}
	}
}

// Notify sends a plain-text message to a chat. Satisfies services.Notifier.
func (b *Bot) Notify(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// SetWebhook registers the public webhook URL with telegram.
func (b *Bot) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("failed to get webhook info: %w", err)
	}
	if info.LastErrorDate != 0 {
		logger.Warningf("Telegram reports webhook error: %s", info.LastErrorMessage)
	}
	return nil
}

// RemoveWebhook drops any registered webhook so long polling can take over.
func (b *Bot) RemoveWebhook() error {
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false})
	return err
}
