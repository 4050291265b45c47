package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseService_SaveResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("multiple choice graded at write time", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)

		correct, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[0].ID, SelectedOption: intPtr(0),
		})
		require.NoError(t, err)
		require.NotNil(t, correct.IsCorrect)
		assert.True(t, *correct.IsCorrect)

		wrong, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[1].ID, SelectedOption: intPtr(3),
		})
		require.NoError(t, err)
		require.NotNil(t, wrong.IsCorrect)
		assert.False(t, *wrong.IsCorrect)
	})

	t.Run("out-of-range option is kept ungraded, not rejected", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)

		stored, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[0].ID, SelectedOption: intPtr(17),
		})
		require.NoError(t, err)

		require.NotNil(t, stored.SelectedOption)
		assert.Equal(t, 17, *stored.SelectedOption)
		assert.Nil(t, stored.IsCorrect)
	})

	t.Run("free text is stored without a grade", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)
		freeText := questions[3]

		stored, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: freeText.ID, AnswerText: stringPtr("Because of congestion control."),
		})
		require.NoError(t, err)

		require.NotNil(t, stored.AnswerText)
		assert.Equal(t, "Because of congestion control.", *stored.AnswerText)
		assert.Nil(t, stored.IsCorrect)
		assert.Nil(t, stored.SelectedOption)
	})

	t.Run("resave overwrites in place and counts revisions", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)

		first, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[0].ID, SelectedOption: intPtr(2),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, first.RevisionCount)

		second, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[0].ID, SelectedOption: intPtr(0),
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, second.RevisionCount)
		require.NotNil(t, second.IsCorrect)
		assert.True(t, *second.IsCorrect)

		count, err := env.repo.Response().CountBySession(ctx, session.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("grade does not move when the answer key changes later", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)

		stored, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[0].ID, SelectedOption: intPtr(0),
		})
		require.NoError(t, err)
		require.NotNil(t, stored.IsCorrect)
		require.True(t, *stored.IsCorrect)

		// The answer key flips after the student answered.
		require.NoError(t, env.db.Model(&models.QuestionOption{}).
			Where("question_id = ? AND option_index = ?", questions[0].ID, 0).
			Update("is_correct", false).Error)

		reloaded, err := env.repo.Response().GetBySessionAndQuestion(ctx, session.ID, questions[0].ID)
		require.NoError(t, err)
		require.NotNil(t, reloaded.IsCorrect)
		assert.True(t, *reloaded.IsCorrect)

		// Finalize scores from the stored point-in-time grade.
		result, err := env.session.Finalize(ctx, session.ID, models.SubmissionManual)
		require.NoError(t, err)
		assert.Equal(t, 25.0, result.ComputedScore)
	})

	t.Run("completion percentage tracks distinct answered questions", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)

		_, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[0].ID, SelectedOption: intPtr(0),
		})
		require.NoError(t, err)

		// Revising the same question adds nothing to completion.
		_, err = env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[0].ID, SelectedOption: intPtr(1),
		})
		require.NoError(t, err)

		updated, err := env.session.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, 25.0, updated.CompletionPercentage)
	})

	t.Run("question from another exam is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		other := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		otherQuestions := env.questionsFor(t, other.ID)

		_, err := env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: otherQuestions[0].ID, SelectedOption: intPtr(0),
		})
		assert.ErrorIs(t, err, ErrQuestionNotFound)
	})

	t.Run("terminal session accepts no more writes", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)

		_, err := env.session.Finalize(ctx, session.ID, models.SubmissionManual)
		require.NoError(t, err)

		_, err = env.response.SaveResponse(ctx, session.ID, &SaveResponseRequest{
			QuestionID: questions[0].ID, SelectedOption: intPtr(0),
		})
		assert.ErrorIs(t, err, ErrSessionNotActive)
	})

	t.Run("unknown session", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.response.SaveResponse(ctx, 999, &SaveResponseRequest{
			QuestionID: 1, SelectedOption: intPtr(0),
		})
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestResponseService_BulkSaveResponses(t *testing.T) {
	ctx := context.Background()

	t.Run("bad items are skipped, good items land", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)

		saved, err := env.response.BulkSaveResponses(ctx, session.ID, []SaveResponseRequest{
			{QuestionID: questions[0].ID, SelectedOption: intPtr(0)},
			{QuestionID: 9999, SelectedOption: intPtr(0)},
			{QuestionID: questions[1].ID, SelectedOption: intPtr(1)},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, saved)

		count, err := env.repo.Response().CountBySession(ctx, session.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})

	t.Run("stops early when the session itself is unusable", func(t *testing.T) {
		env := newTestEnv(t)
		exam := env.seedExam(t)
		session := env.startSession(t, exam.ID, "student-1")
		questions := env.questionsFor(t, exam.ID)

		_, err := env.session.Finalize(ctx, session.ID, models.SubmissionManual)
		require.NoError(t, err)

		saved, err := env.response.BulkSaveResponses(ctx, session.ID, []SaveResponseRequest{
			{QuestionID: questions[0].ID, SelectedOption: intPtr(0)},
			{QuestionID: questions[1].ID, SelectedOption: intPtr(0)},
		})
		assert.ErrorIs(t, err, ErrSessionNotActive)
		assert.Equal(t, 0, saved)
	})
}
