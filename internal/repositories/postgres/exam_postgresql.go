package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db}
}

func (e ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, err
	}

	return &exam, nil
}

func (e ExamPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.position ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.option_index ASC")
		}).
		First(&exam, id).Error; err != nil {
		return nil, err
	}

	exam.QuestionsCount = len(exam.Questions)
	return &exam, nil
}

func (e ExamPostgreSQL) CountQuestions(ctx context.Context, examID uint) (int64, error) {
	var count int64
	if err := e.db.WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("exam_id = ?", examID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (e ExamPostgreSQL) GetQuestion(ctx context.Context, examID, questionID uint) (*models.ExamQuestion, error) {
	var question models.ExamQuestion
	if err := e.db.WithContext(ctx).
		Where("id = ? AND exam_id = ?", questionID, examID).
		First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &question, nil
}

func (e ExamPostgreSQL) GetOption(ctx context.Context, questionID uint, optionIndex int) (*models.QuestionOption, error) {
	var option models.QuestionOption
	if err := e.db.WithContext(ctx).
		Where("question_id = ? AND option_index = ?", questionID, optionIndex).
		First(&option).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &option, nil
}
