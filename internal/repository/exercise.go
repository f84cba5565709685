package repository

import (
	"context"

	"github.com/fittracker/fittracker-bot/internal/domain"
	"gorm.io/gorm"
)

// ExerciseRepository handles the public exercise library
type ExerciseRepository interface {
	List(ctx context.Context) ([]domain.Exercise, error)
	GetByID(ctx context.Context, id uint) (*domain.Exercise, error)
	Create(ctx context.Context, exercise *domain.Exercise) error
}

type exerciseRepo struct {
	db *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) ExerciseRepository {
	return &exerciseRepo{db: db}
}

func (r *exerciseRepo) List(ctx context.Context) ([]domain.Exercise, error) {
	var exercises []domain.Exercise
	err := r.db.WithContext(ctx).Order("muscle_group ASC, name ASC").Find(&exercises).Error
	return exercises, err
}

func (r *exerciseRepo) GetByID(ctx context.Context, id uint) (*domain.Exercise, error) {
	var exercise domain.Exercise
	if err := r.db.WithContext(ctx).First(&exercise, id).Error; err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (r *exerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) error {
	return r.db.WithContext(ctx).Create(exercise).Error
}
