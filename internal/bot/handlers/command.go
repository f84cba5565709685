package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/fittracker/fittracker-bot/internal/bot/state"
	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/logger"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	api     API
	deps    Dependencies
	scratch state.ScratchStore
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api API, deps Dependencies, scratch state.ScratchStore) *CommandHandler {
	return &CommandHandler{
		api:     api,
		deps:    deps,
		scratch: scratch,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message, user *domain.User) error {
	logger.Infof("Handling command %s from user %d", message.Command(), user.ID)

	switch message.Command() {
	case "start":
		resetConversation(ctx, h.deps, h.scratch, user)
		return sendMenuFor(ctx, h.api, h.deps, message.Chat.ID, user)
	case "cancel":
		resetConversation(ctx, h.deps, h.scratch, user)
		msg := tgbotapi.NewMessage(message.Chat.ID, "Действие отменено.")
		if _, err := h.api.Send(msg); err != nil {
			return err
		}
		return sendMenuFor(ctx, h.api, h.deps, message.Chat.ID, user)
	case "help":
		return h.handleHelp(message.Chat.ID)
	default:
		return h.handleUnknownCommand(message.Chat.ID)
	}
}

// handleHelp handles the /help command
func (h *CommandHandler) handleHelp(chatID int64) error {
	text := `Доступные команды:
/start - Показать главное меню
/cancel - Отменить текущее действие
/help - Показать это сообщение

Тренер:
• Добавляйте клиентов и привязывайте их Telegram-аккаунты
• Отправьте текст программы тренировок, бот разберёт её автоматически

Клиент:
• Смотрите активную программу
• Отмечайте выполненные подходы и получайте рекомендации по прогрессии`

	msg := tgbotapi.NewMessage(chatID, text)
	_, err := h.api.Send(msg)
	return err
}

// handleUnknownCommand handles unknown commands
func (h *CommandHandler) handleUnknownCommand(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Неизвестная команда. Используйте /help для просмотра доступных команд.")
	_, err := h.api.Send(msg)
	return err
}
