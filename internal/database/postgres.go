package database

import (
	"fmt"
	"time"

	"github.com/fittracker/fittracker-bot/internal/config"
	"github.com/fittracker/fittracker-bot/internal/domain"
	"github.com/fittracker/fittracker-bot/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const maxConnectAttempts = 15

// NewPostgresDB connects to PostgreSQL with exponential backoff and runs the
// schema migrations. Containerized deploys often start the app before the
// database accepts connections, hence the retry loop.
func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	var db *gorm.DB
	var err error
	for i := 1; i <= maxConnectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if pingErr := sqlDB.Ping(); pingErr == nil {
					break
				}
			}
		}

		logger.Warningf("Database connection attempt %d failed: %v", i, err)
		if i == maxConnectAttempts {
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxConnectAttempts, err)
		}

		waitTime := time.Duration(1<<uint(i-1)) * time.Second
		if waitTime > 10*time.Second {
			waitTime = 10 * time.Second
		}
		time.Sleep(waitTime)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.TrainerClient{},
		&domain.Program{},
		&domain.Workout{},
		&domain.WorkoutExercise{},
		&domain.WorkoutSet{},
		&domain.Exercise{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	logger.Info("Database connection established and migrations completed")
	return db, nil
}
