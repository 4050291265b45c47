package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

// Upsert relies on the (session_id, question_id) unique index: a conflicting
// insert turns into an in-place update that overwrites the answer fields and
// bumps revision_count, so a question can never have two rows.
func (r ResponsePostgreSQL) Upsert(ctx context.Context, response *models.QuestionResponse) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"answer_text":     response.AnswerText,
				"selected_option": response.SelectedOption,
				"is_correct":      response.IsCorrect,
				"answered_at":     response.AnsweredAt,
				"revision_count":  gorm.Expr("revision_count + ?", 1),
				"updated_at":      time.Now(),
			}),
		}).
		Create(response).Error
}

func (r ResponsePostgreSQL) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) (*models.QuestionResponse, error) {
	var response models.QuestionResponse
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		First(&response).Error; err != nil {
		return nil, err
	}

	return &response, nil
}

func (r ResponsePostgreSQL) ListBySession(ctx context.Context, sessionID uint) ([]*models.QuestionResponse, error) {
	var responses []*models.QuestionResponse
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_id ASC").
		Find(&responses).Error; err != nil {
		return nil, err
	}

	return responses, nil
}

func (r ResponsePostgreSQL) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.QuestionResponse{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r ResponsePostgreSQL) CountCorrectBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.QuestionResponse{}).
		Where("session_id = ? AND is_correct = ?", sessionID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
