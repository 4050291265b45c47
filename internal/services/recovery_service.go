package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/cache"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
	"gorm.io/datatypes"
)

// RecoveryService persists periodic client snapshots and reconstructs an
// authoritative recovery payload on reconnect. Snapshots mirror the client's
// view; timing always comes from the server-held deadline.
type RecoveryService interface {
	SaveSnapshot(ctx context.Context, sessionID uint, req *SnapshotRequest) (*models.SessionSnapshot, error)
	GetRecoveryData(ctx context.Context, sessionID uint) (*RecoveryData, error)
}

type SnapshotRequest struct {
	Answers              map[string]interface{} `json:"answers"`
	ViolationCount       int                    `json:"violation_count" validate:"min=0"`
	CompletionPercentage float64                `json:"completion_percentage" validate:"min=0,max=100"`
	CurrentQuestionIndex int                    `json:"current_question_index" validate:"min=0"`
	TimeRemaining        int                    `json:"time_remaining" validate:"min=0"` // seconds, advisory only
}

type RecoveryData struct {
	Session  *models.ExamSession     `json:"session"`
	Snapshot *models.SessionSnapshot `json:"snapshot"`

	// Server-computed from StartTime / ScheduledEndTime, never from the
	// snapshot's embedded countdown.
	TimeElapsedSeconds   int `json:"time_elapsed_seconds"`
	TimeRemainingSeconds int `json:"time_remaining_seconds"`

	// EffectiveTimeRemainingSeconds applies the exam's minimum-time
	// guarantee as display guidance. The deadline itself is untouched.
	EffectiveTimeRemainingSeconds int `json:"effective_time_remaining_seconds"`

	RecoveryTimestamp time.Time `json:"recovery_timestamp"`
}

const snapshotCacheTTL = 15 * time.Minute

type recoveryService struct {
	repo      repositories.Repository
	clock     Clock
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewRecoveryService(repo repositories.Repository, clock Clock, cacheService cache.CacheService, logger *slog.Logger, validator *utils.Validator) RecoveryService {
	return &recoveryService{
		repo:      repo,
		clock:     clock,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

// SaveSnapshot unconditionally appends a snapshot row. The payload is an
// opaque last-known-good client view; beyond structural shape nothing is
// validated, and existing snapshots are never touched.
func (s *recoveryService) SaveSnapshot(ctx context.Context, sessionID uint, req *SnapshotRequest) (*models.SessionSnapshot, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.repo.Session().GetByID(ctx, sessionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	snapshot := &models.SessionSnapshot{
		SessionID:            sessionID,
		ViolationCount:       req.ViolationCount,
		CompletionPercentage: req.CompletionPercentage,
		CurrentQuestionIndex: req.CurrentQuestionIndex,
		TimeRemaining:        req.TimeRemaining,
	}
	if req.Answers != nil {
		answers, err := json.Marshal(req.Answers)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snapshot answers: %w", err)
		}
		snapshot.Answers = datatypes.JSON(answers)
	}

	if err := s.repo.Snapshot().Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	// Cache the latest snapshot for the recovery hot path. Best-effort: a
	// cache failure never fails the save, recovery falls back to the store.
	if err := s.cache.Set(ctx, snapshotCacheKey(sessionID), snapshot, snapshotCacheTTL); err != nil {
		s.logger.Warn("Failed to cache snapshot",
			"session_id", sessionID,
			"error", err)
	}

	s.logger.Info("Snapshot saved",
		"session_id", sessionID,
		"snapshot_id", snapshot.ID,
		"completion_percentage", req.CompletionPercentage)

	return snapshot, nil
}

// GetRecoveryData rebuilds the resumable state for a session: the latest
// snapshot for answers/position/violation display, plus elapsed and
// remaining time recomputed from the immutable deadline. It never mutates
// server state.
func (s *recoveryService) GetRecoveryData(ctx context.Context, sessionID uint) (*RecoveryData, error) {
	session, err := s.repo.Session().GetByIDWithExam(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// A finalized session cannot be resumed; its snapshots are unreachable.
	if session.Status.IsTerminal() {
		return nil, ErrNoRecoveryData
	}

	snapshot, err := s.latestSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, ErrNoRecoveryData
	}

	now := s.clock.Now()
	elapsed := s.clock.Elapsed(now, session.StartTime)
	remaining := s.clock.Remaining(now, session.ScheduledEndTime)

	// Minimum-time guarantee: a student who reconnects with seconds left is
	// shown at least the policy floor. Advisory display value only - the
	// authoritative remaining time and the deadline stay as computed.
	effective := remaining
	if floor := time.Duration(session.Exam.MinTimeGuaranteeMinutes) * time.Minute; remaining < floor {
		effective = floor
	}

	s.logger.Info("Recovery data reconstructed",
		"session_id", sessionID,
		"snapshot_id", snapshot.ID,
		"time_remaining_seconds", int(remaining.Seconds()))

	return &RecoveryData{
		Session:                       session,
		Snapshot:                      snapshot,
		TimeElapsedSeconds:            int(elapsed.Seconds()),
		TimeRemainingSeconds:          int(remaining.Seconds()),
		EffectiveTimeRemainingSeconds: int(effective.Seconds()),
		RecoveryTimestamp:             now,
	}, nil
}

// latestSnapshot tries the cache first and falls back to the store. A stale
// or missing cache entry is harmless: snapshots are non-authoritative and
// the store read is the source of truth.
func (s *recoveryService) latestSnapshot(ctx context.Context, sessionID uint) (*models.SessionSnapshot, error) {
	var cached models.SessionSnapshot
	if err := s.cache.Get(ctx, snapshotCacheKey(sessionID), &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Snapshot cache read failed, falling back to store",
			"session_id", sessionID,
			"error", err)
	}

	snapshot, err := s.repo.Snapshot().Latest(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	return snapshot, nil
}

func snapshotCacheKey(sessionID uint) string {
	return fmt.Sprintf("session:%d:latest_snapshot", sessionID)
}
