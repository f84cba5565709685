package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/fittracker/fittracker-bot/internal/bot/keyboards"
	"github.com/fittracker/fittracker-bot/internal/bot/menus"
	"github.com/fittracker/fittracker-bot/internal/bot/state"
	"github.com/fittracker/fittracker-bot/internal/domain"
	apperrors "github.com/fittracker/fittracker-bot/internal/errors"
)

// TextHandler handles text messages
type TextHandler struct {
	api     API
	deps    Dependencies
	scratch state.ScratchStore
}

// NewTextHandler creates a new text handler
func NewTextHandler(api API, deps Dependencies, scratch state.ScratchStore) *TextHandler {
	return &TextHandler{
		api:     api,
		deps:    deps,
		scratch: scratch,
	}
}

// Handle processes a text message. Invalid input keeps the current step so
// the user can retry without restarting the flow.
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message, user *domain.User) error {
	switch state.Parse(user.State) {
	case state.AwaitingClientName:
		return h.handleClientName(ctx, message, user)
	case state.AwaitingClientUsername:
		return h.handleClientUsername(ctx, message, user)
	case state.AwaitingLinkUsername:
		return h.handleLinkUsername(ctx, message, user)
	case state.AwaitingProgramText:
		return h.handleProgramText(ctx, message, user)
	default:
		return h.handleDefaultText(message.Chat.ID)
	}
}

// handleClientName stores the display name and asks for a username
func (h *TextHandler) handleClientName(ctx context.Context, message *tgbotapi.Message, user *domain.User) error {
	name := strings.TrimSpace(message.Text)
	if name == "" {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Имя не может быть пустым. Введите имя клиента:")
		_, err := h.api.Send(msg)
		return err
	}

	h.scratch.Set(user.TelegramID, state.KeyClientName, name)
	if err := h.deps.UserService.SetState(ctx, user.ID, string(state.AwaitingClientUsername)); err != nil {
		return h.sendError(message.Chat.ID, "Произошла ошибка. Попробуйте ещё раз.")
	}
	user.State = string(state.AwaitingClientUsername)

	msg := tgbotapi.NewMessage(message.Chat.ID, "Введите Telegram-ник клиента, начиная с @ (или нажмите 'Пропустить'):")
	msg.ReplyMarkup = keyboards.SkipUsername()
	_, err := h.api.Send(msg)
	return err
}

// handleClientUsername finalizes add-client with a telegram username
func (h *TextHandler) handleClientUsername(ctx context.Context, message *tgbotapi.Message, user *domain.User) error {
	username := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(username, "@") || len(username) < 2 {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Ник должен начинаться с @ (например, @ivan). Попробуйте ещё раз или нажмите 'Пропустить'.")
		msg.ReplyMarkup = keyboards.SkipUsername()
		_, err := h.api.Send(msg)
		return err
	}

	name, ok := h.scratch.Get(user.TelegramID, state.KeyClientName)
	if !ok {
		resetConversation(ctx, h.deps, h.scratch, user)
		return h.sendError(message.Chat.ID, "Имя клиента потерялось. Начните добавление заново.")
	}

	return finishAddClient(ctx, h.api, h.deps, h.scratch, message.Chat.ID, user, name, username)
}

// handleLinkUsername links a roster entry to a registered telegram account
func (h *TextHandler) handleLinkUsername(ctx context.Context, message *tgbotapi.Message, user *domain.User) error {
	username := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(username, "@") || len(username) < 2 {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Ник должен начинаться с @ (например, @ivan). Попробуйте ещё раз.")
		_, err := h.api.Send(msg)
		return err
	}

	clientIDStr, ok := h.scratch.Get(user.TelegramID, state.KeyPendingClient)
	if !ok {
		resetConversation(ctx, h.deps, h.scratch, user)
		return h.sendError(message.Chat.ID, "Клиент не выбран. Откройте карточку клиента заново.")
	}
	clientID, err := strconv.ParseUint(clientIDStr, 10, 32)
	if err != nil {
		resetConversation(ctx, h.deps, h.scratch, user)
		return h.sendError(message.Chat.ID, "Клиент не выбран. Откройте карточку клиента заново.")
	}

	client, err := h.deps.TrainerService.LinkClient(ctx, user.ID, uint(clientID), username)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("Пользователь %s ещё не запускал бота. Попросите клиента отправить боту /start и повторите.", username))
			_, err := h.api.Send(msg)
			return err
		}
		return h.sendError(message.Chat.ID, "Не удалось привязать клиента. Попробуйте ещё раз.")
	}

	resetConversation(ctx, h.deps, h.scratch, user)
	msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("✅ %s привязан к аккаунту %s.", client.ClientName, username))
	if _, err := h.api.Send(msg); err != nil {
		return err
	}
	return menus.SendClientCard(h.api, message.Chat.ID, client)
}

// handleProgramText parses free-form program text and asks for confirmation
func (h *TextHandler) handleProgramText(ctx context.Context, message *tgbotapi.Message, user *domain.User) error {
	waiting := tgbotapi.NewMessage(message.Chat.ID, "Разбираю программу...")
	if _, err := h.api.Send(waiting); err != nil {
		return err
	}

	program, err := h.deps.ProgramService.Parse(ctx, message.Text)
	if err != nil {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Не удалось разобрать программу. Проверьте текст и отправьте его ещё раз (или /cancel для отмены).")
		_, err := h.api.Send(msg)
		return err
	}

	raw, err := json.Marshal(program)
	if err != nil {
		return h.sendError(message.Chat.ID, "Произошла ошибка. Отправьте программу ещё раз.")
	}
	h.scratch.Set(user.TelegramID, state.KeyPendingProgram, string(raw))

	if err := h.deps.UserService.SetState(ctx, user.ID, string(state.None)); err != nil {
		return h.sendError(message.Chat.ID, "Произошла ошибка. Отправьте программу ещё раз.")
	}
	user.State = string(state.None)

	return menus.SendProgramPreview(h.api, message.Chat.ID, program)
}

// handleDefaultText handles text when no specific state is set
func (h *TextHandler) handleDefaultText(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Пожалуйста, используйте меню для выбора действия.")
	_, err := h.api.Send(msg)
	return err
}

func (h *TextHandler) sendError(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := h.api.Send(msg)
	return err
}

// finishAddClient creates the roster entry and returns to the trainer menu.
// Shared by the username step and the skip button.
func finishAddClient(ctx context.Context, api API, deps Dependencies, scratch state.ScratchStore, chatID int64, user *domain.User, name, username string) error {
	client, err := deps.TrainerService.AddClient(ctx, user.ID, name, username, "", "")
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyAdded):
			resetConversation(ctx, deps, scratch, user)
			msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Клиент %s уже есть в вашем списке.", name))
			if _, err := api.Send(msg); err != nil {
				return err
			}
			return sendMenuFor(ctx, api, deps, chatID, user)
		case errors.Is(err, apperrors.ErrClientLimitReached):
			resetConversation(ctx, deps, scratch, user)
			msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Достигнут лимит бесплатного тарифа (%d клиента).", domain.FreeTierClientLimit))
			if _, err := api.Send(msg); err != nil {
				return err
			}
			return sendMenuFor(ctx, api, deps, chatID, user)
		default:
			msg := tgbotapi.NewMessage(chatID, "Не удалось добавить клиента. Попробуйте ещё раз.")
			_, err := api.Send(msg)
			return err
		}
	}

	resetConversation(ctx, deps, scratch, user)
	text := fmt.Sprintf("✅ Клиент %s добавлен.", client.ClientName)
	if client.LinkedUserID != nil {
		text += " Аккаунт Telegram привязан автоматически."
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := api.Send(msg); err != nil {
		return err
	}
	return sendMenuFor(ctx, api, deps, chatID, user)
}
