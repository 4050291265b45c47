package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
	"gorm.io/datatypes"
)

// ViolationService is the append-only integrity ledger. It decides whether
// the violation threshold is breached but never finalizes a session itself;
// the caller is responsible for invoking Finalize with auto_violations.
type ViolationService interface {
	LogViolation(ctx context.Context, sessionID uint, req *LogViolationRequest) (*ViolationResult, error)
	ListViolations(ctx context.Context, sessionID uint) ([]*models.SessionViolation, error)
}

type LogViolationRequest struct {
	Type        models.ViolationType   `json:"type" validate:"required,violation_type"`
	Severity    int                    `json:"severity" validate:"omitempty,min=1,max=5"`
	Description string                 `json:"description" validate:"omitempty,max=2000"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type ViolationResult struct {
	TotalViolations int  `json:"total_violations"`
	ShouldTerminate bool `json:"should_terminate"`
}

type violationService struct {
	repo      repositories.Repository
	clock     Clock
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewViolationService(repo repositories.Repository, clock Clock, publisher events.EventPublisher, logger *slog.Logger, validator *utils.Validator) ViolationService {
	return &violationService{
		repo:      repo,
		clock:     clock,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// LogViolation appends an immutable ledger row and increments the session's
// total_violations in the same transaction, so the counter always equals the
// row count. The caller is trusted to have throttled bursts before calling.
func (s *violationService) LogViolation(ctx context.Context, sessionID uint, req *LogViolationRequest) (*ViolationResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.repo.Session().GetByIDWithExam(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.Status != models.SessionInProgress {
		return nil, ErrSessionNotActive
	}

	violation := &models.SessionViolation{
		SessionID:   sessionID,
		Type:        req.Type,
		Severity:    req.Severity,
		Description: req.Description,
		DetectedAt:  s.clock.Now(),
	}
	if violation.Severity == 0 {
		violation.Severity = 1
	}
	if req.Metadata != nil {
		metadata, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal violation metadata: %w", err)
		}
		violation.Metadata = datatypes.JSON(metadata)
	}

	var total int
	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if err := tx.Violation().Create(ctx, violation); err != nil {
			return fmt.Errorf("failed to append violation: %w", err)
		}

		total, err = tx.Session().IncrementViolations(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to increment violation counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	shouldTerminate := total >= session.Exam.MaxViolations

	s.logger.Info("Violation logged",
		"session_id", sessionID,
		"type", req.Type,
		"severity", violation.Severity,
		"total_violations", total,
		"should_terminate", shouldTerminate)

	s.publishViolationEvents(ctx, session, violation, total, shouldTerminate)

	return &ViolationResult{
		TotalViolations: total,
		ShouldTerminate: shouldTerminate,
	}, nil
}

func (s *violationService) ListViolations(ctx context.Context, sessionID uint) ([]*models.SessionViolation, error) {
	if _, err := s.repo.Session().GetByID(ctx, sessionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	violations, err := s.repo.Violation().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}

	return violations, nil
}

func (s *violationService) publishViolationEvents(ctx context.Context, session *models.ExamSession, violation *models.SessionViolation, total int, shouldTerminate bool) {
	logged := newSessionEvent(events.EventViolationLogged, events.ViolationLoggedEvent{
		SessionID:       session.ID,
		StudentID:       session.StudentID,
		Type:            violation.Type,
		Severity:        violation.Severity,
		TotalViolations: total,
		DetectedAt:      violation.DetectedAt,
	})
	if err := s.publisher.PublishSessionEvent(ctx, logged); err != nil {
		s.logger.Error("Failed to publish violation logged event",
			"session_id", session.ID,
			"error", err)
	}

	if !shouldTerminate {
		return
	}

	threshold := newSessionEvent(events.EventViolationThreshold, events.ViolationThresholdEvent{
		SessionID:       session.ID,
		ExamID:          session.ExamID,
		StudentID:       session.StudentID,
		TotalViolations: total,
		MaxViolations:   session.Exam.MaxViolations,
	})
	if err := s.publisher.PublishSessionEvent(ctx, threshold); err != nil {
		s.logger.Error("Failed to publish violation threshold event",
			"session_id", session.ID,
			"error", err)
	}
}
