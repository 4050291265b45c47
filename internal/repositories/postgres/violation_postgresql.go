package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type ViolationPostgreSQL struct {
	db *gorm.DB
}

func NewViolationPostgreSQL(db *gorm.DB) repositories.ViolationRepository {
	return &ViolationPostgreSQL{db: db}
}

// Create appends a ledger row. There is intentionally no Update or Delete on
// this repository; violations are immutable once written.
func (v ViolationPostgreSQL) Create(ctx context.Context, violation *models.SessionViolation) error {
	return v.db.WithContext(ctx).Create(violation).Error
}

func (v ViolationPostgreSQL) ListBySession(ctx context.Context, sessionID uint) ([]*models.SessionViolation, error) {
	var violations []*models.SessionViolation
	if err := v.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("detected_at ASC").
		Find(&violations).Error; err != nil {
		return nil, err
	}

	return violations, nil
}

func (v ViolationPostgreSQL) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	if err := v.db.WithContext(ctx).
		Model(&models.SessionViolation{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
