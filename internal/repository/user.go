package repository

import (
	"context"
	"errors"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"gorm.io/gorm"
)

// UserRepository handles user data operations
type UserRepository interface {
	GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, error)
	GetByID(ctx context.Context, id uint) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateRole(ctx context.Context, userID uint, role string) error
	UpdateState(ctx context.Context, userID uint, state string) error
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

// GetOrCreate returns an existing user or inserts a new one with role unset.
// Profile fields are refreshed on every call so renames propagate.
func (r *userRepo) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.User, error) {
	var user domain.User
	result := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user)
	if result.Error == nil {
		if username != "" && (user.Username != username || user.FirstName != firstName || user.LastName != lastName) {
			user.Username = username
			user.FirstName = firstName
			user.LastName = lastName
			if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	user = domain.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		State:      "none",
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername looks a user up by telegram username. Telegram usernames are
// case-insensitive and users keep whatever casing their profile carries, so
// the comparison folds both sides.
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UpdateRole(ctx context.Context, userID uint, role string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("role", role).Error
}

func (r *userRepo) UpdateState(ctx context.Context, userID uint, state string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("state", state).Error
}
