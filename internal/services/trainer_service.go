package services

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/fittracker/fittracker-bot/internal/errors"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/repository"
	"gorm.io/gorm"
)

// TrainerService manages a trainer's client roster.
type TrainerService struct {
	clients repository.ClientRepository
	users   repository.UserRepository
}

func NewTrainerService(clients repository.ClientRepository, users repository.UserRepository) *TrainerService {
	return &TrainerService{
		clients: clients,
		users:   users,
	}
}

// NormalizeUsername strips the leading @ and lowercases a telegram username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// AddClient creates an active roster entry. Adding the same username twice
// for one trainer reports "already added" instead of a duplicate row;
// re-adding an archived client reactivates the existing row. The free tier
// allows up to three active clients.
func (s *TrainerService) AddClient(ctx context.Context, trainerID uint, name, username, goal, notes string) (*domain.TrainerClient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("client name is empty")
	}
	username = NormalizeUsername(username)

	if username != "" {
		existing, err := s.clients.FindByTrainerAndUsername(ctx, trainerID, username)
		if err == nil {
			if existing.Status == domain.ClientStatusActive {
				return nil, apperrors.ErrAlreadyAdded
			}
			// Archived entry: bring it back instead of violating the
			// (trainer, username) uniqueness.
			existing.Status = domain.ClientStatusActive
			existing.ClientName = name
			if goal != "" {
				existing.Goal = goal
			}
			if notes != "" {
				existing.Notes = notes
			}
			if err := s.clients.Update(ctx, existing); err != nil {
				return nil, apperrors.NewDatabaseError(err)
			}
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewDatabaseError(err)
		}
	}

	count, err := s.clients.CountActiveByTrainer(ctx, trainerID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	if count >= domain.FreeTierClientLimit {
		return nil, apperrors.ErrClientLimitReached
	}

	client := &domain.TrainerClient{
		TrainerID:      trainerID,
		ClientName:     name,
		ClientUsername: username,
		Status:         domain.ClientStatusActive,
		Goal:           goal,
		Notes:          notes,
	}

	// Link immediately when the client already talked to the bot.
	if username != "" {
		if linked, err := s.users.GetByUsername(ctx, username); err == nil {
			client.LinkedUserID = &linked.ID
		}
	}

	if err := s.clients.Create(ctx, client); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return client, nil
}

// ListClients returns the trainer's active roster newest-first.
func (s *TrainerService) ListClients(ctx context.Context, trainerID uint) ([]domain.TrainerClient, error) {
	clients, err := s.clients.ListActiveByTrainer(ctx, trainerID)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return clients, nil
}

// CountClients reports the active roster size for menu rendering.
func (s *TrainerService) CountClients(ctx context.Context, trainerID uint) (int64, error) {
	count, err := s.clients.CountActiveByTrainer(ctx, trainerID)
	if err != nil {
		return 0, apperrors.NewDatabaseError(err)
	}
	return count, nil
}

// GetClient fetches one roster entry and verifies ownership.
func (s *TrainerService) GetClient(ctx context.Context, trainerID, clientID uint) (*domain.TrainerClient, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	if client.TrainerID != trainerID {
		return nil, apperrors.ErrNotFound
	}
	return client, nil
}

// ArchiveClient flips the roster entry to archived. Rows are never deleted.
func (s *TrainerService) ArchiveClient(ctx context.Context, trainerID, clientID uint) error {
	if _, err := s.GetClient(ctx, trainerID, clientID); err != nil {
		return err
	}
	if err := s.clients.Archive(ctx, clientID); err != nil {
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// LinkClient associates a roster entry with a real telegram identity by
// username, granting that identity self-service access. Linking an already
// linked entry to the same user is a no-op.
func (s *TrainerService) LinkClient(ctx context.Context, trainerID, clientID uint, username string) (*domain.TrainerClient, error) {
	client, err := s.GetClient(ctx, trainerID, clientID)
	if err != nil {
		return nil, err
	}

	username = NormalizeUsername(username)
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	if client.LinkedUserID != nil && *client.LinkedUserID == user.ID {
		return client, nil
	}

	client.LinkedUserID = &user.ID
	if client.ClientUsername == "" {
		client.ClientUsername = username
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return client, nil
}

// ClientForUser resolves the active roster entry linked to a telegram
// identity, for client self-service views.
func (s *TrainerService) ClientForUser(ctx context.Context, userID uint) (*domain.TrainerClient, error) {
	client, err := s.clients.FindByLinkedUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return client, nil
}

// TrainerForClient resolves the owning trainer's user record, used for
// completion notifications.
func (s *TrainerService) TrainerForClient(ctx context.Context, clientID uint) (*domain.User, error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	trainer, err := s.users.GetByID(ctx, client.TrainerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return trainer, nil
}
