package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/google/uuid"
)

// ===== TIME-EXPIRY SWEEP =====

// SweepExpired finalizes every in_progress session whose deadline has passed,
// with cause auto_time_expired. Sessions a concurrent caller finalizes first
// still count as handled; the conditional update keeps the sweep from ever
// double-finalizing.
func (s *sessionService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired, err := s.repo.Session().GetExpiredInProgress(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	handled := 0
	for _, session := range expired {
		if _, err := s.Finalize(ctx, session.ID, models.SubmissionTimeExpired); err != nil {
			s.logger.Error("Failed to finalize expired session",
				"session_id", session.ID,
				"error", err)
			continue
		}
		handled++
	}

	if handled > 0 {
		s.logger.Info("Expired session sweep completed",
			"expired", len(expired),
			"handled", handled)
	}

	return handled, nil
}

// ===== OUTCOME COMPUTATION =====

// computeOutcome derives the final score and completion percentage from the
// current response rows. Both are fractions of the exam's total question
// count: unanswered questions count against completion, ungraded or wrong
// answers against score.
func (s *sessionService) computeOutcome(ctx context.Context, session *models.ExamSession) (score, completion float64, err error) {
	totalQuestions, err := s.repo.Exam().CountQuestions(ctx, session.ExamID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count exam questions: %w", err)
	}
	if totalQuestions == 0 {
		return 0, 0, nil
	}

	answered, err := s.repo.Response().CountBySession(ctx, session.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	correct, err := s.repo.Response().CountCorrectBySession(ctx, session.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count correct responses: %w", err)
	}

	completion = roundPercentage(float64(answered) / float64(totalQuestions) * 100)
	score = roundPercentage(float64(correct) / float64(totalQuestions) * 100)
	return score, completion, nil
}

func (s *sessionService) finalizeResultFrom(session *models.ExamSession) *FinalizeResult {
	result := &FinalizeResult{Session: session}
	if session.Score != nil {
		result.ComputedScore = *session.Score
	}
	return result
}

func roundPercentage(v float64) float64 {
	return math.Round(v*100) / 100
}

// ===== EVENT PUBLISHING =====

// Event publishing is best-effort: a broker outage must never fail a
// student-facing operation.

func (s *sessionService) publishSessionStarted(ctx context.Context, session *models.ExamSession, exam *models.Exam) {
	event := newSessionEvent(events.EventSessionStarted, events.SessionStartedEvent{
		SessionID:        session.ID,
		ExamID:           session.ExamID,
		StudentID:        session.StudentID,
		StartTime:        session.StartTime,
		ScheduledEndTime: session.ScheduledEndTime,
		DurationMinutes:  exam.DurationMinutes,
	})

	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish session started event",
			"session_id", session.ID,
			"error", err)
	}
}

func (s *sessionService) publishSessionFinalized(ctx context.Context, session *models.ExamSession, exam models.Exam) {
	data := events.SessionFinalizedEvent{
		SessionID:            session.ID,
		ExamID:               session.ExamID,
		StudentID:            session.StudentID,
		Status:               session.Status,
		CompletionPercentage: session.CompletionPercentage,
	}
	if session.SubmissionType != nil {
		data.SubmissionType = *session.SubmissionType
	}
	if session.Score != nil {
		data.Score = *session.Score
	}
	if session.EndTime != nil {
		data.EndTime = *session.EndTime
	}

	if err := s.publisher.PublishSessionEvent(ctx, newSessionEvent(events.EventSessionFinalized, data)); err != nil {
		s.logger.Error("Failed to publish session finalized event",
			"session_id", session.ID,
			"error", err)
	}
}

func newSessionEvent(eventType events.EventType, data interface{}) *events.SessionEvent {
	return &events.SessionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "exam-session-service",
		Version:   "1.0",
		Data:      data,
	}
}
