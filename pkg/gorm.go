package pkg

import (
	"fmt"

	"github.com/SAP-F-2025/exam-session-service/internal/config"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func MigrateDatabase(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.QuestionOption{},
		&models.ExamSession{},
		&models.QuestionResponse{},
		&models.SessionViolation{},
		&models.SessionSnapshot{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Only one in-progress session may exist per student and exam. AutoMigrate
	// cannot express a partial unique index, so it is created directly.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_single_active
		 ON exam_sessions (student_id, exam_id)
		 WHERE status = 'in_progress'`,
	).Error; err != nil {
		return fmt.Errorf("failed to create active session index: %w", err)
	}

	return nil
}
