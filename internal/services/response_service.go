package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
)

// ResponseService stores one answer per (session, question) with write-time
// grading for multiple choice.
type ResponseService interface {
	SaveResponse(ctx context.Context, sessionID uint, req *SaveResponseRequest) (*models.QuestionResponse, error)
	BulkSaveResponses(ctx context.Context, sessionID uint, reqs []SaveResponseRequest) (int, error)
	GetResponses(ctx context.Context, sessionID uint) ([]*models.QuestionResponse, error)
}

type SaveResponseRequest struct {
	QuestionID     uint    `json:"question_id" validate:"required"`
	AnswerText     *string `json:"answer_text" validate:"omitempty,max=20000"`
	SelectedOption *int    `json:"selected_option" validate:"omitempty,min=0"`
}

type responseService struct {
	repo      repositories.Repository
	clock     Clock
	logger    *slog.Logger
	validator *utils.Validator
}

func NewResponseService(repo repositories.Repository, clock Clock, logger *slog.Logger, validator *utils.Validator) ResponseService {
	return &responseService{
		repo:      repo,
		clock:     clock,
		logger:    logger,
		validator: validator,
	}
}

// SaveResponse upserts the answer for one question. Grading is a
// point-in-time judgment: the referenced option's is_correct flag is read
// now and stored, never recomputed if the answer key changes later. An
// option index that matches no option of the question is recorded ungraded
// rather than rejected - losing a student's answer mid-exam is worse than
// storing it without a grade.
func (s *responseService) SaveResponse(ctx context.Context, sessionID uint, req *SaveResponseRequest) (*models.QuestionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	question, err := s.repo.Exam().GetQuestion(ctx, session.ExamID, req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		// The only rejection case: a write that cannot be attributed to
		// any question of this exam.
		return nil, ErrQuestionNotFound
	}

	response := s.buildResponse(ctx, session, question, req)

	// Upsert and completion recompute share one transaction so the derived
	// percentage can never drift from the response rows.
	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if err := tx.Response().Upsert(ctx, response); err != nil {
			return fmt.Errorf("failed to upsert response: %w", err)
		}

		completion, err := s.currentCompletion(ctx, tx, session)
		if err != nil {
			return err
		}

		return tx.Session().UpdateCompletion(ctx, session.ID, completion)
	})
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Response().GetBySessionAndQuestion(ctx, sessionID, req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload response: %w", err)
	}

	s.logger.Info("Response saved",
		"session_id", sessionID,
		"question_id", req.QuestionID,
		"revision_count", stored.RevisionCount)

	return stored, nil
}

// BulkSaveResponses applies the single-response algorithm independently to
// each item. One bad item does not abort the others; the caller receives a
// count of how many succeeded.
func (s *responseService) BulkSaveResponses(ctx context.Context, sessionID uint, reqs []SaveResponseRequest) (int, error) {
	s.logger.Info("Bulk saving responses",
		"session_id", sessionID,
		"count", len(reqs))

	saved := 0
	for i := range reqs {
		if _, err := s.SaveResponse(ctx, sessionID, &reqs[i]); err != nil {
			// Session-level failures would repeat for every item; stop early.
			if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionNotActive) {
				return saved, err
			}
			s.logger.Warn("Skipping failed response in bulk save",
				"session_id", sessionID,
				"question_id", reqs[i].QuestionID,
				"error", err)
			continue
		}
		saved++
	}

	return saved, nil
}

func (s *responseService) GetResponses(ctx context.Context, sessionID uint) ([]*models.QuestionResponse, error) {
	responses, err := s.repo.Response().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	return responses, nil
}

// ===== HELPERS =====

// buildResponse resolves the answer shape by question type and grades
// multiple choice against the currently-correct option.
func (s *responseService) buildResponse(ctx context.Context, session *models.ExamSession, question *models.ExamQuestion, req *SaveResponseRequest) *models.QuestionResponse {
	response := &models.QuestionResponse{
		SessionID:  session.ID,
		QuestionID: question.ID,
		AnsweredAt: s.clock.Now(),
	}

	if question.Type == models.MultipleChoice {
		response.SelectedOption = req.SelectedOption
		if req.SelectedOption != nil {
			option, err := s.repo.Exam().GetOption(ctx, question.ID, *req.SelectedOption)
			if err != nil {
				s.logger.Error("Failed to look up option for grading, recording ungraded",
					"question_id", question.ID,
					"option_index", *req.SelectedOption,
					"error", err)
			} else if option != nil {
				isCorrect := option.IsCorrect
				response.IsCorrect = &isCorrect
			}
		}
		return response
	}

	response.AnswerText = req.AnswerText
	return response
}

func (s *responseService) currentCompletion(ctx context.Context, tx repositories.Repository, session *models.ExamSession) (float64, error) {
	totalQuestions, err := tx.Exam().CountQuestions(ctx, session.ExamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count exam questions: %w", err)
	}
	if totalQuestions == 0 {
		return 0, nil
	}

	answered, err := tx.Response().CountBySession(ctx, session.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}

	return roundPercentage(float64(answered) / float64(totalQuestions) * 100), nil
}
