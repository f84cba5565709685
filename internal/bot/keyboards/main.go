package keyboards

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/fittracker/fittracker-bot/internal/domain"
)

// RoleMenu creates the role selection keyboard shown to new users
func RoleMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💪 Я тренер", "role_trainer"),
			tgbotapi.NewInlineKeyboardButtonData("🏃 Я клиент", "role_client"),
		),
	)
}

// TrainerMenu creates the trainer main menu keyboard
func TrainerMenu(clientCount int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить клиента", "add_client"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("👥 Мои клиенты (%d/%d)", clientCount, domain.FreeTierClientLimit),
				"my_clients",
			),
		),
	)
}

// ClientMenu creates the client main menu keyboard. A non-empty webAppURL
// adds a link button to the progress web app.
func ClientMenu(webAppURL string) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Моя программа", "my_program"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Мой прогресс", "my_progress"),
		),
	}
	if webAppURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📈 Открыть приложение", webAppURL),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ClientList creates one button per active roster entry
func ClientList(clients []domain.TrainerClient) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(clients)+1)
	for _, c := range clients {
		label := c.ClientName
		if c.LinkedUserID != nil {
			label = "🔗 " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("client:%d", c.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Главное меню", "main_menu"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ClientCard creates the per-client action keyboard
func ClientCard(client *domain.TrainerClient) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Программа", fmt.Sprintf("client_program:%d", client.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Загрузить программу", fmt.Sprintf("client_parse:%d", client.ID)),
		),
	}
	if client.LinkedUserID == nil {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔗 Привязать Telegram", fmt.Sprintf("client_link:%d", client.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑️ Удалить", fmt.Sprintf("client_remove:%d", client.ID)),
		tgbotapi.NewInlineKeyboardButtonData("◀️ Назад", "my_clients"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SkipUsername creates the keyboard shown while waiting for a client username
func SkipUsername() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏭️ Пропустить", "skip_username"),
			tgbotapi.NewInlineKeyboardButtonData("◀️ Отмена", "main_menu"),
		),
	)
}

// ProgramConfirm creates the save/discard keyboard for a parsed program
func ProgramConfirm() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Сохранить", "program_save"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", "program_discard"),
		),
	)
}

// BackToMenu creates a single back-to-main-menu button
func BackToMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Главное меню", "main_menu"),
		),
	)
}
