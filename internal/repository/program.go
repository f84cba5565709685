package repository

import (
	"context"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"gorm.io/gorm"
)

// ProgramRepository handles training programs
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) error
	GetActiveByClient(ctx context.Context, clientID uint) (*domain.Program, error)
	DeactivateByClient(ctx context.Context, clientID uint) error
}

type programRepo struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &programRepo{db: db}
}

func (r *programRepo) Create(ctx context.Context, program *domain.Program) error {
	return r.db.WithContext(ctx).Create(program).Error
}

func (r *programRepo) GetActiveByClient(ctx context.Context, clientID uint) (*domain.Program, error) {
	var program domain.Program
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND active = ?", clientID, true).
		Order("created_at DESC").
		First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

// DeactivateByClient clears the active flag on every program of the client.
// Together with Create this implements last-write-wins activation.
func (r *programRepo) DeactivateByClient(ctx context.Context, clientID uint) error {
	return r.db.WithContext(ctx).Model(&domain.Program{}).
		Where("client_id = ? AND active = ?", clientID, true).
		Update("active", false).Error
}
