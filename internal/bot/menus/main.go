package menus

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/fittracker/fittracker-bot/internal/bot/keyboards"
	"github.com/fittracker/fittracker-bot/internal/domain"
)

// Sender is the outbound half of the bot API. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SendRoleMenu asks a new user to pick a role
func SendRoleMenu(api Sender, chatID int64) error {
	text := `🏋️ *FitTracker* — помощник тренера и клиента

Тренер ведёт список клиентов и загружает программы тренировок.
Клиент получает программу и отмечает выполненные подходы.

Кто вы?`

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.RoleMenu()
	_, err := api.Send(msg)
	return err
}

// SendTrainerMenu sends the trainer main menu with a fresh roster count
func SendTrainerMenu(api Sender, chatID int64, clientCount int64) error {
	msg := tgbotapi.NewMessage(chatID, "💪 Меню тренера. Выберите действие:")
	msg.ReplyMarkup = keyboards.TrainerMenu(clientCount)
	_, err := api.Send(msg)
	return err
}

// SendClientMenu sends the client main menu
func SendClientMenu(api Sender, chatID int64, webAppURL string) error {
	msg := tgbotapi.NewMessage(chatID, "🏃 Меню клиента. Выберите действие:")
	msg.ReplyMarkup = keyboards.ClientMenu(webAppURL)
	_, err := api.Send(msg)
	return err
}

// SendClientList sends the active roster as a button list
func SendClientList(api Sender, chatID int64, clients []domain.TrainerClient) error {
	var text string
	if len(clients) == 0 {
		text = "У вас пока нет клиентов. Нажмите '➕ Добавить клиента' в главном меню."
	} else {
		text = fmt.Sprintf("👥 Ваши клиенты (%d/%d):", len(clients), domain.FreeTierClientLimit)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboards.ClientList(clients)
	_, err := api.Send(msg)
	return err
}

// SendClientCard sends one roster entry with its actions
func SendClientCard(api Sender, chatID int64, client *domain.TrainerClient) error {
	text := fmt.Sprintf("👤 *%s*\n", client.ClientName)
	if client.ClientUsername != "" {
		text += fmt.Sprintf("Telegram: @%s\n", client.ClientUsername)
	}
	if client.LinkedUserID != nil {
		text += "🔗 Привязан к Telegram\n"
	} else {
		text += "Не привязан к Telegram\n"
	}
	if client.Goal != "" {
		text += fmt.Sprintf("🎯 Цель: %s\n", client.Goal)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboards.ClientCard(client)
	_, err := api.Send(msg)
	return err
}

// SendProgramPreview sends a parsed program with save/discard buttons
func SendProgramPreview(api Sender, chatID int64, program *domain.Program) error {
	text := "Проверьте программу и подтвердите сохранение:\n\n" + FormatProgram(program)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboards.ProgramConfirm()
	_, err := api.Send(msg)
	return err
}

// FormatProgram renders a program as a readable message
func FormatProgram(program *domain.Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s (%d дн./нед.)\n", program.Name, program.DaysPerWeek)
	for i, day := range program.Days {
		fmt.Fprintf(&b, "\nДень %d: %s\n", i+1, day.Name)
		for _, ex := range day.Exercises {
			fmt.Fprintf(&b, "• %s — %d×%s", ex.Name, ex.Sets, ex.Reps)
			if ex.Weight != nil {
				fmt.Fprintf(&b, " @ %.1f кг", *ex.Weight)
			}
			if ex.RPERange != "" {
				fmt.Fprintf(&b, " RPE %s", ex.RPERange)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
