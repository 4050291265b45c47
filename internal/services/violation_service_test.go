package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolationService_LogViolation(t *testing.T) {
	ctx := context.Background()

	t.Run("counter always equals the ledger row count", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExamWithPolicy(t, 60, 10, 5)
		session := env.startSession(t, exam.ID, "student-1")

		for i := 1; i <= 4; i++ {
			result, err := env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
				Type: models.ViolationTabSwitch,
			})
			require.NoError(t, err)
			assert.Equal(t, i, result.TotalViolations)

			rows, err := env.repo.Violation().CountBySession(ctx, session.ID)
			require.NoError(t, err)
			assert.EqualValues(t, i, rows)
		}

		stored, err := env.session.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, stored.TotalViolations)
	})

	t.Run("severity defaults to low", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")

		_, err := env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
			Type: models.ViolationWindowBlur,
		})
		require.NoError(t, err)

		violations, err := env.violation.ListViolations(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, 1, violations[0].Severity)
	})

	t.Run("metadata survives the round trip", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")

		_, err := env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
			Type:        models.ViolationDevToolsOpen,
			Severity:    4,
			Description: "devtools opened during question 2",
			Metadata:    map[string]interface{}{"window_width": 1280},
		})
		require.NoError(t, err)

		violations, err := env.violation.ListViolations(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, 4, violations[0].Severity)
		assert.JSONEq(t, `{"window_width":1280}`, string(violations[0].Metadata))
	})

	t.Run("signals termination at the threshold without finalizing", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExamWithPolicy(t, 60, 3, 5)
		session := env.startSession(t, exam.ID, "student-1")

		for i := 1; i <= 2; i++ {
			result, err := env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
				Type: models.ViolationTabSwitch,
			})
			require.NoError(t, err)
			assert.False(t, result.ShouldTerminate, "violation %d is below the limit", i)
		}

		result, err := env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
			Type: models.ViolationTabSwitch,
		})
		require.NoError(t, err)
		assert.True(t, result.ShouldTerminate)

		// The ledger never flips the status itself; that stays with Finalize.
		stored, err := env.session.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionInProgress, stored.Status)
	})

	t.Run("threshold event fires only at the breach", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExamWithPolicy(t, 60, 2, 5)
		session := env.startSession(t, exam.ID, "student-1")
		env.publisher.ClearEvents()

		for i := 0; i < 2; i++ {
			_, err := env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
				Type: models.ViolationCopy,
			})
			require.NoError(t, err)
		}

		logged, threshold := 0, 0
		for _, event := range env.publisher.GetPublishedEvents() {
			switch event.Type {
			case events.EventViolationLogged:
				logged++
			case events.EventViolationThreshold:
				threshold++
			}
		}
		assert.Equal(t, 2, logged)
		assert.Equal(t, 1, threshold)
	})

	t.Run("terminal session accepts no more violations", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")

		_, err := env.session.Finalize(ctx, session.ID, models.SubmissionManual)
		require.NoError(t, err)

		_, err = env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
			Type: models.ViolationTabSwitch,
		})
		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("unknown violation type fails validation", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")

		_, err := env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
			Type: models.ViolationType("telepathy"),
		})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.violation.LogViolation(ctx, 999, &LogViolationRequest{
			Type: models.ViolationTabSwitch,
		})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

// TestViolationTermination walks the full violation-driven termination path:
// violations accumulate, the threshold signal comes back, the caller finalizes
// with the violation cause, and the session is closed to further writes while
// its responses stay stored.
func TestViolationTermination(t *testing.T) {
	env := newTestEnv(t)
	exam := env.seedExamWithPolicy(t, 60, 3, 5)
	session := env.startSession(t, exam.ID, "student-1")
	questions := env.questionsFor(t, exam.ID)
	ctx := context.Background()

	_, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
		QuestionID: questions[0].ID, SelectedOption: intPtr(0),
	})
	require.NoError(t, err)

	var last *ViolationResult
	for i := 0; i < 3; i++ {
		last, err = env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
			Type: models.ViolationTabSwitch,
		})
		require.NoError(t, err)
	}
	require.True(t, last.ShouldTerminate)

	result, err := env.session.Finalize(ctx, session.ID, models.SubmissionViolationLimit)
	require.NoError(t, err)
	assert.Equal(t, models.SessionTerminated, result.Session.Status)
	require.NotNil(t, result.Session.SubmissionType)
	assert.Equal(t, models.SubmissionViolationLimit, *result.Session.SubmissionType)
	assert.Equal(t, 3, result.Session.TotalViolations)

	// Answered work is retained for review.
	responses, err := env.response.GetResponses(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)

	// A straggler violation arriving after termination is refused.
	_, err = env.violation.LogViolation(ctx, session.ID, &LogViolationRequest{
		Type: models.ViolationWindowBlur,
	})
	assert.ErrorIs(t, err, ErrSessionNotActive)
}
