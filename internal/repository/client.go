package repository

import (
	"context"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"gorm.io/gorm"
)

// ClientRepository handles trainer roster entries
type ClientRepository interface {
	Create(ctx context.Context, client *domain.TrainerClient) error
	GetByID(ctx context.Context, id uint) (*domain.TrainerClient, error)
	FindByTrainerAndUsername(ctx context.Context, trainerID uint, username string) (*domain.TrainerClient, error)
	FindByLinkedUser(ctx context.Context, userID uint) (*domain.TrainerClient, error)
	ListActiveByTrainer(ctx context.Context, trainerID uint) ([]domain.TrainerClient, error)
	CountActiveByTrainer(ctx context.Context, trainerID uint) (int64, error)
	Update(ctx context.Context, client *domain.TrainerClient) error
	Archive(ctx context.Context, id uint) error
}

type clientRepo struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) Create(ctx context.Context, client *domain.TrainerClient) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *clientRepo) GetByID(ctx context.Context, id uint) (*domain.TrainerClient, error) {
	var client domain.TrainerClient
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) FindByTrainerAndUsername(ctx context.Context, trainerID uint, username string) (*domain.TrainerClient, error) {
	var client domain.TrainerClient
	err := r.db.WithContext(ctx).
		Where("trainer_id = ? AND client_username = ?", trainerID, username).
		First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) FindByLinkedUser(ctx context.Context, userID uint) (*domain.TrainerClient, error) {
	var client domain.TrainerClient
	err := r.db.WithContext(ctx).
		Where("linked_user_id = ? AND status = ?", userID, domain.ClientStatusActive).
		First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// ListActiveByTrainer returns active roster entries newest-first.
func (r *clientRepo) ListActiveByTrainer(ctx context.Context, trainerID uint) ([]domain.TrainerClient, error) {
	var clients []domain.TrainerClient
	err := r.db.WithContext(ctx).
		Where("trainer_id = ? AND status = ?", trainerID, domain.ClientStatusActive).
		Order("created_at DESC").
		Find(&clients).Error
	return clients, err
}

func (r *clientRepo) CountActiveByTrainer(ctx context.Context, trainerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TrainerClient{}).
		Where("trainer_id = ? AND status = ?", trainerID, domain.ClientStatusActive).
		Count(&count).Error
	return count, err
}

func (r *clientRepo) Update(ctx context.Context, client *domain.TrainerClient) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *clientRepo) Archive(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&domain.TrainerClient{}).
		Where("id = ?", id).
		Update("status", domain.ClientStatusArchived).Error
}
