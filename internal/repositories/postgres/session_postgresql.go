package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.ExamSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ExamSession, error) {
	var session models.ExamSession
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}

	return &session, nil
}

func (s SessionPostgreSQL) GetByIDWithExam(ctx context.Context, id uint) (*models.ExamSession, error) {
	var session models.ExamSession
	if err := s.db.WithContext(ctx).
		Preload("Exam").
		First(&session, id).Error; err != nil {
		return nil, err
	}

	return &session, nil
}

func (s SessionPostgreSQL) GetActiveSession(ctx context.Context, studentID string, examID uint) (*models.ExamSession, error) {
	var session models.ExamSession
	if err := s.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ? AND status = ?", studentID, examID, models.SessionInProgress).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

// Finalize is the compare-and-set that makes concurrent finalize calls safe:
// the status guard and the status write happen in one statement, so exactly
// one caller observes RowsAffected == 1.
func (s SessionPostgreSQL) Finalize(ctx context.Context, id uint, fin repositories.SessionFinalization) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.ExamSession{}).
		Where("id = ? AND status = ?", id, models.SessionInProgress).
		Updates(map[string]interface{}{
			"status":                fin.Status,
			"submission_type":       fin.SubmissionType,
			"end_time":              fin.EndTime,
			"score":                 fin.Score,
			"completion_percentage": fin.CompletionPercentage,
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (s SessionPostgreSQL) IncrementViolations(ctx context.Context, id uint) (int, error) {
	res := s.db.WithContext(ctx).
		Model(&models.ExamSession{}).
		Where("id = ?", id).
		Update("total_violations", gorm.Expr("total_violations + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var total int
	if err := s.db.WithContext(ctx).
		Model(&models.ExamSession{}).
		Where("id = ?", id).
		Select("total_violations").
		Scan(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}

func (s SessionPostgreSQL) UpdateCompletion(ctx context.Context, id uint, percentage float64) error {
	return s.db.WithContext(ctx).
		Model(&models.ExamSession{}).
		Where("id = ?", id).
		Update("completion_percentage", percentage).Error
}

func (s SessionPostgreSQL) GetExpiredInProgress(ctx context.Context, cutoff time.Time) ([]*models.ExamSession, error) {
	var sessions []*models.ExamSession
	if err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_end_time <= ?", models.SessionInProgress, cutoff).
		Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}
