package services

import (
	"context"
	"errors"

	apperrors "github.com/fittracker/fittracker-bot/internal/errors"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/repository"
	"gorm.io/gorm"
)

// UserService handles telegram identities and the conversation state
// persisted on them.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// RegisterUser gets or creates a user on any inbound update. New users start
// with role unset and state none.
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, error) {
	user, err := s.users.GetOrCreate(ctx, telegramID, username, firstName, lastName)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return user, nil
}

func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return user, nil
}

// SetRole persists the role selected from the role menu.
func (s *UserService) SetRole(ctx context.Context, userID uint, role string) error {
	if role != domain.RoleClient && role != domain.RoleTrainer {
		return apperrors.NewValidationError("unknown role")
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// SetState advances the persisted conversation state. Reads of this state
// may be stale under concurrent updates for the same chat; the per-user lock
// in the bot serializes the read-modify-write sequence.
func (s *UserService) SetState(ctx context.Context, userID uint, stateValue string) error {
	if err := s.users.UpdateState(ctx, userID, stateValue); err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}
