package handlers

import (
	"context"

	"github.com/fittracker/fittracker-bot/internal/bot/menus"
	"github.com/fittracker/fittracker-bot/internal/bot/state"
	"github.com/fittracker/fittracker-bot/internal/domain"
)

// sendMenuFor sends the main menu matching the user's role. Users without a
// role get the role selection menu. The trainer menu always carries a fresh
// roster count.
func sendMenuFor(ctx context.Context, api API, deps Dependencies, chatID int64, user *domain.User) error {
	switch user.Role {
	case domain.RoleTrainer:
		count, err := deps.TrainerService.CountClients(ctx, user.ID)
		if err != nil {
			count = 0
		}
		return menus.SendTrainerMenu(api, chatID, count)
	case domain.RoleClient:
		return menus.SendClientMenu(api, chatID, deps.WebAppURL)
	default:
		return menus.SendRoleMenu(api, chatID)
	}
}

// resetConversation drops the current step and any scratch payloads.
func resetConversation(ctx context.Context, deps Dependencies, scratch state.ScratchStore, user *domain.User) {
	_ = deps.UserService.SetState(ctx, user.ID, string(state.None))
	user.State = string(state.None)
	scratch.Clear(user.TelegramID)
}
