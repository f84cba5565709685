package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/fittracker/fittracker-bot/internal/interfaces"
)

// API is the slice of the telegram client the handlers use.
// *tgbotapi.BotAPI satisfies it; tests substitute a fake.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	UserService    interfaces.UserServiceInterface
	TrainerService interfaces.TrainerServiceInterface
	ProgramService interfaces.ProgramServiceInterface
	WorkoutService interfaces.WorkoutServiceInterface

	// WebAppURL is the public base URL of the progress web app. Empty when
	// the deployment has no public URL; the link button is omitted then.
	WebAppURL string
}
