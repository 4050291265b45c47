package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/cache"
	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack against an in-memory SQLite database,
// a mock event publisher and an in-process cache.
type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	publisher *events.MockEventPublisher
	cache     *cache.MemoryCache

	session   SessionService
	response  ResponseService
	violation ViolationService
	recovery  RecoveryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// The shared in-memory database lives in a single connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.QuestionOption{},
		&models.ExamSession{},
		&models.QuestionResponse{},
		&models.SessionViolation{},
		&models.SessionSnapshot{},
	))

	// Same single-active-session guard the production schema carries.
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_single_active
		 ON exam_sessions (student_id, exam_id)
		 WHERE status = 'in_progress'`,
	).Error)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := postgres.NewRepository(db)
	publisher := events.NewMockEventPublisher(slogger)
	memCache := cache.NewMemoryCache()
	validator := utils.NewValidator()
	clock := NewClock()

	return &testEnv{
		db:        db,
		repo:      repo,
		publisher: publisher,
		cache:     memCache,
		session:   NewSessionService(repo, clock, publisher, slogger, validator),
		response:  NewResponseService(repo, clock, slogger, validator),
		violation: NewViolationService(repo, clock, publisher, slogger, validator),
		recovery:  NewRecoveryService(repo, clock, memCache, slogger, validator),
	}
}

// seedExam creates an active exam with three multiple-choice questions (first
// option correct) and one free-text question.
func (env *testEnv) seedExam(t *testing.T) *models.Exam {
	t.Helper()
	return env.seedExamWithPolicy(t, 60, 3, 5)
}

func (env *testEnv) seedExamWithPolicy(t *testing.T, durationMinutes, maxViolations, minGuaranteeMinutes int) *models.Exam {
	t.Helper()

	exam := &models.Exam{
		Title:                   "Networks Midterm",
		Status:                  models.ExamActive,
		DurationMinutes:         durationMinutes,
		MaxViolations:           maxViolations,
		MinTimeGuaranteeMinutes: minGuaranteeMinutes,
		CreatedBy:               "teacher-1",
	}
	require.NoError(t, env.db.Create(exam).Error)

	for i := 0; i < 3; i++ {
		question := &models.ExamQuestion{
			ExamID:   exam.ID,
			Type:     models.MultipleChoice,
			Text:     "Pick the right answer",
			Position: i,
			Points:   1,
		}
		require.NoError(t, env.db.Create(question).Error)

		for idx := 0; idx < 4; idx++ {
			require.NoError(t, env.db.Create(&models.QuestionOption{
				QuestionID:  question.ID,
				OptionIndex: idx,
				Text:        "option",
				IsCorrect:   idx == 0,
			}).Error)
		}
	}

	require.NoError(t, env.db.Create(&models.ExamQuestion{
		ExamID:   exam.ID,
		Type:     models.FreeText,
		Text:     "Explain your reasoning",
		Position: 3,
		Points:   1,
	}).Error)

	return exam
}

// startSession starts a fresh session through the service.
func (env *testEnv) startSession(t *testing.T, examID uint, studentID string) *models.ExamSession {
	t.Helper()

	result, err := env.session.StartOrResume(context.Background(), &StartSessionRequest{ExamID: examID}, studentID)
	require.NoError(t, err)
	require.False(t, result.Resumed)
	return result.Session
}

// questionsFor returns the exam's questions ordered by position.
func (env *testEnv) questionsFor(t *testing.T, examID uint) []models.ExamQuestion {
	t.Helper()

	var questions []models.ExamQuestion
	require.NoError(t, env.db.Where("exam_id = ?", examID).Order("position ASC").Find(&questions).Error)
	return questions
}

// backdate rewrites a session's timing fields for deterministic clock tests.
func (env *testEnv) backdate(t *testing.T, sessionID uint, start, scheduledEnd time.Time) {
	t.Helper()

	require.NoError(t, env.db.Model(&models.ExamSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"start_time":         start,
			"scheduled_end_time": scheduledEnd,
		}).Error)
}

func intPtr(v int) *int {
	return &v
}

func stringPtr(v string) *string {
	return &v
}
