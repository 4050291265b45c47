package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
	"gorm.io/gorm"
)

// SessionService is the state machine orchestrator. It is the only component
// allowed to transition a session's status.
type SessionService interface {
	StartOrResume(ctx context.Context, req *StartSessionRequest, studentID string) (*SessionResult, error)
	GetSession(ctx context.Context, sessionID uint) (*models.ExamSession, error)
	Finalize(ctx context.Context, sessionID uint, cause models.SubmissionType) (*FinalizeResult, error)
	SweepExpired(ctx context.Context) (int, error)
}

type StartSessionRequest struct {
	ExamID     uint              `json:"exam_id" validate:"required"`
	ClientMeta map[string]string `json:"client_meta" validate:"omitempty,max=20"`
}

type SessionResult struct {
	Session *models.ExamSession `json:"session"`
	Resumed bool                `json:"resumed"`
}

type FinalizeResult struct {
	Session       *models.ExamSession `json:"session"`
	ComputedScore float64             `json:"computed_score"`
}

type sessionService struct {
	repo      repositories.Repository
	clock     Clock
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewSessionService(repo repositories.Repository, clock Clock, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) SessionService {
	return &sessionService{
		repo:      repo,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE SESSION OPERATIONS =====

// StartOrResume returns the student's in_progress session for the exam if one
// exists (unchanged, deadline untouched), otherwise creates a new session
// with a deadline computed once from the exam policy.
func (s *sessionService) StartOrResume(ctx context.Context, req *StartSessionRequest, studentID string) (*SessionResult, error) {
	s.logger.Info("Starting exam session",
		"exam_id", req.ExamID,
		"student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Idempotent resume: an existing live session is returned as-is so a
	// reconnecting client can never move its own deadline.
	active, err := s.repo.Session().GetActiveSession(ctx, studentID, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}
	if active != nil {
		s.logger.Info("Resuming existing session", "session_id", active.ID)
		return &SessionResult{Session: active, Resumed: true}, nil
	}

	exam, err := s.repo.Exam().GetByID(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.Status != models.ExamActive {
		return nil, ErrExamNotActive
	}
	if exam.DurationMinutes <= 0 || exam.MaxViolations <= 0 {
		return nil, ErrPolicyMissing
	}

	now := s.clock.Now()
	session := &models.ExamSession{
		StudentID:        studentID,
		ExamID:           req.ExamID,
		StartTime:        now,
		ScheduledEndTime: s.clock.ComputeDeadline(now, exam.DurationMinutes),
		Status:           models.SessionInProgress,
	}

	if err := s.repo.Session().Create(ctx, session); err != nil {
		// A concurrent start lost us the partial unique index race; the
		// winner's session is the canonical one.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			winner, lookupErr := s.repo.Session().GetActiveSession(ctx, studentID, req.ExamID)
			if lookupErr == nil && winner != nil {
				s.logger.Info("Concurrent start resolved to existing session", "session_id", winner.ID)
				return &SessionResult{Session: winner, Resumed: true}, nil
			}
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("Exam session started",
		"session_id", session.ID,
		"exam_id", req.ExamID,
		"student_id", studentID,
		"scheduled_end_time", session.ScheduledEndTime)

	s.publishSessionStarted(ctx, session, exam)

	return &SessionResult{Session: session, Resumed: false}, nil
}

func (s *sessionService) GetSession(ctx context.Context, sessionID uint) (*models.ExamSession, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// Finalize transitions the session to the terminal status implied by cause.
// The status guard and write are one conditional update, so of any number of
// concurrent callers exactly one wins; losers receive the winner's stored
// result instead of an error.
func (s *sessionService) Finalize(ctx context.Context, sessionID uint, cause models.SubmissionType) (*FinalizeResult, error) {
	s.logger.Info("Finalizing session",
		"session_id", sessionID,
		"cause", cause)

	switch cause {
	case models.SubmissionManual, models.SubmissionTimeExpired, models.SubmissionViolationLimit:
	default:
		return nil, &FinalizeCauseError{Cause: string(cause)}
	}

	session, err := s.repo.Session().GetByIDWithExam(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// Re-finalizing a terminal session is a no-op returning the stored
	// result, which makes retried finalize calls idempotent.
	if session.Status.IsTerminal() {
		return s.finalizeResultFrom(session), nil
	}

	// Missing responses simply score as unanswered; finalize never rejects
	// due to partial data.
	score, completion, err := s.computeOutcome(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to compute outcome: %w", err)
	}

	fin := repositories.SessionFinalization{
		Status:               cause.StatusFor(),
		SubmissionType:       cause,
		EndTime:              s.clock.Now(),
		Score:                score,
		CompletionPercentage: completion,
	}

	won, err := s.repo.Session().Finalize(ctx, sessionID, fin)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize session: %w", err)
	}

	final, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload finalized session: %w", err)
	}

	if !won {
		// Lost the compare-and-set race: expected outcome, not an error.
		s.logger.Info("Session already finalized by concurrent caller",
			"session_id", sessionID,
			"status", final.Status)
		return s.finalizeResultFrom(final), nil
	}

	s.logger.Info("Session finalized",
		"session_id", sessionID,
		"status", final.Status,
		"submission_type", cause,
		"score", score,
		"completion_percentage", completion)

	s.publishSessionFinalized(ctx, final, session.Exam)

	return s.finalizeResultFrom(final), nil
}
