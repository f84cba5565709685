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
	"github.com/fittracker/fittracker-bot/internal/logger"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	api     API
	deps    Dependencies
	scratch state.ScratchStore
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api API, deps Dependencies, scratch state.ScratchStore) *CallbackHandler {
	return &CallbackHandler{
		api:     api,
		deps:    deps,
		scratch: scratch,
	}
}

// splitCallback separates an action from its numeric parameter.
// "client_link:17" becomes ("client_link", 17, true); plain actions
// come back with ok=false.
func splitCallback(data string) (action string, id uint, ok bool) {
	idx := strings.IndexByte(data, ':')
	if idx < 0 {
		return data, 0, false
	}
	n, err := strconv.ParseUint(data[idx+1:], 10, 32)
	if err != nil {
		return data[:idx], 0, false
	}
	return data[:idx], uint(n), true
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery, user *domain.User) error {
	// Answer the callback query first to drop the loading spinner
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := h.api.Request(callback); err != nil {
		logger.Warningf("Failed to answer callback query: %v", err)
	}

	chatID := query.Message.Chat.ID
	action, id, hasID := splitCallback(query.Data)

	switch action {
	case "role_trainer":
		return h.handleRole(ctx, chatID, user, domain.RoleTrainer)
	case "role_client":
		return h.handleRole(ctx, chatID, user, domain.RoleClient)
	case "add_client":
		return h.handleAddClient(ctx, chatID, user)
	case "skip_username":
		return h.handleSkipUsername(ctx, chatID, user)
	case "my_clients":
		return h.handleMyClients(ctx, chatID, user)
	case "my_program":
		return h.handleMyProgram(ctx, chatID, user)
	case "my_progress":
		return h.handleMyProgress(ctx, chatID, user)
	case "program_save":
		return h.handleProgramSave(ctx, chatID, user)
	case "program_discard":
		return h.handleProgramDiscard(ctx, chatID, user)
	case "main_menu":
		return h.handleMainMenu(ctx, chatID, user)
	}

	if hasID {
		switch action {
		case "client":
			return h.handleClientCard(ctx, chatID, user, id)
		case "client_remove":
			return h.handleClientRemove(ctx, chatID, user, id)
		case "client_link":
			return h.handleClientLink(ctx, chatID, user, id)
		case "client_program":
			return h.handleClientProgram(ctx, chatID, user, id)
		case "client_parse":
			return h.handleClientParse(ctx, chatID, user, id)
		}
	}

	return h.handleUnknownCallback(chatID)
}

// handleRole stores the chosen role and opens the matching menu
func (h *CallbackHandler) handleRole(ctx context.Context, chatID int64, user *domain.User, role string) error {
	if err := h.deps.UserService.SetRole(ctx, user.ID, role); err != nil {
		return h.sendError(chatID, "Не удалось сохранить роль. Попробуйте ещё раз.")
	}
	user.Role = role
	return sendMenuFor(ctx, h.api, h.deps, chatID, user)
}

// handleAddClient starts the add-client flow
func (h *CallbackHandler) handleAddClient(ctx context.Context, chatID int64, user *domain.User) error {
	count, err := h.deps.TrainerService.CountClients(ctx, user.ID)
	if err == nil && count >= domain.FreeTierClientLimit {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Достигнут лимит бесплатного тарифа (%d клиента). Удалите клиента, чтобы добавить нового.", domain.FreeTierClientLimit))
		msg.ReplyMarkup = keyboards.BackToMenu()
		_, err := h.api.Send(msg)
		return err
	}

	h.scratch.Clear(user.TelegramID)
	if err := h.deps.UserService.SetState(ctx, user.ID, string(state.AwaitingClientName)); err != nil {
		return h.sendError(chatID, "Произошла ошибка. Попробуйте ещё раз.")
	}

	msg := tgbotapi.NewMessage(chatID, "Введите имя клиента:")
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err = h.api.Send(msg)
	return err
}

// handleSkipUsername finalizes add-client without a telegram username
func (h *CallbackHandler) handleSkipUsername(ctx context.Context, chatID int64, user *domain.User) error {
	if state.Parse(user.State) != state.AwaitingClientUsername {
		return h.handleUnknownCallback(chatID)
	}
	name, ok := h.scratch.Get(user.TelegramID, state.KeyClientName)
	if !ok {
		resetConversation(ctx, h.deps, h.scratch, user)
		return h.sendError(chatID, "Имя клиента потерялось. Начните добавление заново.")
	}
	return finishAddClient(ctx, h.api, h.deps, h.scratch, chatID, user, name, "")
}

// handleMyClients lists the trainer's active roster
func (h *CallbackHandler) handleMyClients(ctx context.Context, chatID int64, user *domain.User) error {
	clients, err := h.deps.TrainerService.ListClients(ctx, user.ID)
	if err != nil {
		return h.sendError(chatID, "Не удалось загрузить список клиентов.")
	}
	return menus.SendClientList(h.api, chatID, clients)
}

// handleClientCard shows one roster entry with its actions
func (h *CallbackHandler) handleClientCard(ctx context.Context, chatID int64, user *domain.User, clientID uint) error {
	client, err := h.deps.TrainerService.GetClient(ctx, user.ID, clientID)
	if err != nil {
		return h.sendError(chatID, "Клиент не найден.")
	}
	return menus.SendClientCard(h.api, chatID, client)
}

// handleClientRemove archives a roster entry
func (h *CallbackHandler) handleClientRemove(ctx context.Context, chatID int64, user *domain.User, clientID uint) error {
	if err := h.deps.TrainerService.ArchiveClient(ctx, user.ID, clientID); err != nil {
		return h.sendError(chatID, "Не удалось удалить клиента.")
	}
	msg := tgbotapi.NewMessage(chatID, "✅ Клиент удалён из списка.")
	if _, err := h.api.Send(msg); err != nil {
		return err
	}
	return h.handleMyClients(ctx, chatID, user)
}

// handleClientLink asks for the telegram username to link
func (h *CallbackHandler) handleClientLink(ctx context.Context, chatID int64, user *domain.User, clientID uint) error {
	if _, err := h.deps.TrainerService.GetClient(ctx, user.ID, clientID); err != nil {
		return h.sendError(chatID, "Клиент не найден.")
	}

	h.scratch.Set(user.TelegramID, state.KeyPendingClient, strconv.FormatUint(uint64(clientID), 10))
	if err := h.deps.UserService.SetState(ctx, user.ID, string(state.AwaitingLinkUsername)); err != nil {
		return h.sendError(chatID, "Произошла ошибка. Попробуйте ещё раз.")
	}

	msg := tgbotapi.NewMessage(chatID, "Введите Telegram-ник клиента, начиная с @ (например, @ivan):")
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := h.api.Send(msg)
	return err
}

// handleClientProgram shows the client's active program
func (h *CallbackHandler) handleClientProgram(ctx context.Context, chatID int64, user *domain.User, clientID uint) error {
	if _, err := h.deps.TrainerService.GetClient(ctx, user.ID, clientID); err != nil {
		return h.sendError(chatID, "Клиент не найден.")
	}

	program, err := h.deps.ProgramService.GetActiveProgram(ctx, clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProgramNotFound) {
			msg := tgbotapi.NewMessage(chatID, "У клиента нет активной программы. Нажмите '✍️ Загрузить программу', чтобы добавить.")
			msg.ReplyMarkup = keyboards.BackToMenu()
			_, err := h.api.Send(msg)
			return err
		}
		return h.sendError(chatID, "Не удалось загрузить программу.")
	}

	msg := tgbotapi.NewMessage(chatID, menus.FormatProgram(program))
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err = h.api.Send(msg)
	return err
}

// handleClientParse starts the free-text program upload flow
func (h *CallbackHandler) handleClientParse(ctx context.Context, chatID int64, user *domain.User, clientID uint) error {
	if _, err := h.deps.TrainerService.GetClient(ctx, user.ID, clientID); err != nil {
		return h.sendError(chatID, "Клиент не найден.")
	}

	h.scratch.Set(user.TelegramID, state.KeyPendingClient, strconv.FormatUint(uint64(clientID), 10))
	if err := h.deps.UserService.SetState(ctx, user.ID, string(state.AwaitingProgramText)); err != nil {
		return h.sendError(chatID, "Произошла ошибка. Попробуйте ещё раз.")
	}

	msg := tgbotapi.NewMessage(chatID, `Отправьте текст программы одним сообщением. Например:

День 1 - Грудь
Жим лёжа 80x8x3
Разводка 20x12x3

День 2 - Спина
Тяга верхнего блока 60x10x4`)
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := h.api.Send(msg)
	return err
}

// handleProgramSave persists the parsed program pending confirmation
func (h *CallbackHandler) handleProgramSave(ctx context.Context, chatID int64, user *domain.User) error {
	raw, ok := h.scratch.Get(user.TelegramID, state.KeyPendingProgram)
	if !ok {
		return h.sendError(chatID, "Нет программы для сохранения. Загрузите программу заново.")
	}
	clientIDStr, ok := h.scratch.Get(user.TelegramID, state.KeyPendingClient)
	if !ok {
		return h.sendError(chatID, "Не выбран клиент. Загрузите программу заново.")
	}
	clientID, err := strconv.ParseUint(clientIDStr, 10, 32)
	if err != nil {
		return h.sendError(chatID, "Не выбран клиент. Загрузите программу заново.")
	}

	var program domain.Program
	if err := json.Unmarshal([]byte(raw), &program); err != nil {
		resetConversation(ctx, h.deps, h.scratch, user)
		return h.sendError(chatID, "Программа повреждена. Загрузите её заново.")
	}

	if _, err := h.deps.ProgramService.SaveProgram(ctx, uint(clientID), &program); err != nil {
		return h.sendError(chatID, "Не удалось сохранить программу. Попробуйте ещё раз.")
	}

	resetConversation(ctx, h.deps, h.scratch, user)
	msg := tgbotapi.NewMessage(chatID, "✅ Программа сохранена и активирована.")
	if _, err := h.api.Send(msg); err != nil {
		return err
	}
	return sendMenuFor(ctx, h.api, h.deps, chatID, user)
}

// handleProgramDiscard drops the parsed program
func (h *CallbackHandler) handleProgramDiscard(ctx context.Context, chatID int64, user *domain.User) error {
	resetConversation(ctx, h.deps, h.scratch, user)
	msg := tgbotapi.NewMessage(chatID, "Программа не сохранена.")
	if _, err := h.api.Send(msg); err != nil {
		return err
	}
	return sendMenuFor(ctx, h.api, h.deps, chatID, user)
}

// handleMyProgram shows the active program to a linked client
func (h *CallbackHandler) handleMyProgram(ctx context.Context, chatID int64, user *domain.User) error {
	client, err := h.deps.TrainerService.ClientForUser(ctx, user.ID)
	if err != nil {
		msg := tgbotapi.NewMessage(chatID, "Вы ещё не привязаны к тренеру. Попросите тренера добавить вас по Telegram-нику.")
		msg.ReplyMarkup = keyboards.BackToMenu()
		_, err := h.api.Send(msg)
		return err
	}

	program, err := h.deps.ProgramService.GetActiveProgram(ctx, client.ID)
	if err != nil {
		msg := tgbotapi.NewMessage(chatID, "У вас пока нет активной программы.")
		msg.ReplyMarkup = keyboards.BackToMenu()
		_, err := h.api.Send(msg)
		return err
	}

	msg := tgbotapi.NewMessage(chatID, menus.FormatProgram(program))
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err = h.api.Send(msg)
	return err
}

// handleMyProgress shows recent completed sessions
func (h *CallbackHandler) handleMyProgress(ctx context.Context, chatID int64, user *domain.User) error {
	workouts, err := h.deps.WorkoutService.RecentCompleted(ctx, user.ID, 5)
	if err != nil {
		return h.sendError(chatID, "Не удалось загрузить прогресс.")
	}

	var text string
	if len(workouts) == 0 {
		text = "У вас пока нет завершённых тренировок."
	} else {
		text = "📊 Последние тренировки:\n\n"
		for _, w := range workouts {
			text += fmt.Sprintf("🗓 %s — объём %.0f кг", w.ScheduledAt.Format("02.01.2006"), w.TotalVolume)
			if w.RPE != nil {
				text += fmt.Sprintf(", RPE %.1f", *w.RPE)
			}
			text += "\n"
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err = h.api.Send(msg)
	return err
}

// handleMainMenu resets the conversation and shows the role menu
func (h *CallbackHandler) handleMainMenu(ctx context.Context, chatID int64, user *domain.User) error {
	resetConversation(ctx, h.deps, h.scratch, user)
	return sendMenuFor(ctx, h.api, h.deps, chatID, user)
}

// handleUnknownCallback handles unknown callbacks
func (h *CallbackHandler) handleUnknownCallback(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Пожалуйста, используйте меню для выбора действия.")
	_, err := h.api.Send(msg)
	return err
}

func (h *CallbackHandler) sendError(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := h.api.Send(msg)
	return err
}
