package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates all data access for the session core. WithTx runs fn
// against a repository bound to a single transaction; every mutation that
// must be atomic with another (violation append + counter increment, response
// upsert + completion recompute) goes through it.
type Repository interface {
	Session() SessionRepository
	Response() ResponseRepository
	Violation() ViolationRepository
	Snapshot() SnapshotRepository
	Exam() ExamRepository

	WithTx(ctx context.Context, fn func(Repository) error) error
}

// SessionFinalization carries the terminal values written by the single
// conditional finalize update.
type SessionFinalization struct {
	Status               models.SessionStatus
	SubmissionType       models.SubmissionType
	EndTime              time.Time
	Score                float64
	CompletionPercentage float64
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.ExamSession) error
	GetByID(ctx context.Context, id uint) (*models.ExamSession, error)
	GetByIDWithExam(ctx context.Context, id uint) (*models.ExamSession, error)

	// GetActiveSession returns the in_progress session for (student, exam),
	// or nil when there is none.
	GetActiveSession(ctx context.Context, studentID string, examID uint) (*models.ExamSession, error)

	// Finalize applies fin as a single conditional update guarded by
	// status = 'in_progress'. It reports whether this call won the
	// transition; false means another caller already finalized.
	Finalize(ctx context.Context, id uint, fin SessionFinalization) (bool, error)

	// IncrementViolations bumps total_violations by one in a single
	// statement and returns the new total.
	IncrementViolations(ctx context.Context, id uint) (int, error)

	UpdateCompletion(ctx context.Context, id uint, percentage float64) error

	// GetExpiredInProgress lists in_progress sessions whose deadline is at
	// or before cutoff, for the time-expiry sweep.
	GetExpiredInProgress(ctx context.Context, cutoff time.Time) ([]*models.ExamSession, error)
}

type ResponseRepository interface {
	// Upsert inserts the response or, on (session_id, question_id) conflict,
	// overwrites the answer fields and increments revision_count.
	Upsert(ctx context.Context, response *models.QuestionResponse) error

	GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) (*models.QuestionResponse, error)
	ListBySession(ctx context.Context, sessionID uint) ([]*models.QuestionResponse, error)
	CountBySession(ctx context.Context, sessionID uint) (int64, error)
	CountCorrectBySession(ctx context.Context, sessionID uint) (int64, error)
}

type ViolationRepository interface {
	Create(ctx context.Context, violation *models.SessionViolation) error
	ListBySession(ctx context.Context, sessionID uint) ([]*models.SessionViolation, error)
	CountBySession(ctx context.Context, sessionID uint) (int64, error)
}

type SnapshotRepository interface {
	// Create appends a snapshot row; snapshots are never updated.
	Create(ctx context.Context, snapshot *models.SessionSnapshot) error

	// Latest returns the most recent snapshot for the session by CreatedAt,
	// or nil when the session has no snapshot.
	Latest(ctx context.Context, sessionID uint) (*models.SessionSnapshot, error)
}

type ExamRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Exam, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Exam, error)
	CountQuestions(ctx context.Context, examID uint) (int64, error)

	// GetQuestion returns the question scoped to the exam, or nil when the
	// question does not belong to it.
	GetQuestion(ctx context.Context, examID, questionID uint) (*models.ExamQuestion, error)

	// GetOption returns the option with the given index for the question,
	// or nil when no such option exists.
	GetOption(ctx context.Context, questionID uint, optionIndex int) (*models.QuestionOption, error)
}

// IsNotFoundError reports whether err is the datastore's record-not-found.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
