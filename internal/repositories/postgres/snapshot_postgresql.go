package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type SnapshotPostgreSQL struct {
	db *gorm.DB
}

func NewSnapshotPostgreSQL(db *gorm.DB) repositories.SnapshotRepository {
	return &SnapshotPostgreSQL{db: db}
}

// Create always inserts. A snapshot row is never rewritten, so an interrupted
// save cannot corrupt an earlier one.
func (s SnapshotPostgreSQL) Create(ctx context.Context, snapshot *models.SessionSnapshot) error {
	return s.db.WithContext(ctx).Create(snapshot).Error
}

func (s SnapshotPostgreSQL) Latest(ctx context.Context, sessionID uint) (*models.SessionSnapshot, error) {
	var snapshot models.SessionSnapshot
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &snapshot, nil
}
