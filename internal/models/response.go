package models

import "time"

// QuestionResponse holds a student's stored answer for one question within a
// session. Exactly one row exists per (session, question); re-saving the same
// question overwrites in place and bumps RevisionCount.
//
// IsCorrect is a point-in-time judgment made against the option marked
// correct at write time. It is never recomputed if the answer key changes
// later, and stays null for free-text answers or ungradable option indexes.
type QuestionResponse struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	SessionID  uint `json:"session_id" gorm:"not null;uniqueIndex:idx_responses_session_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_responses_session_question"`

	AnswerText     *string `json:"answer_text" gorm:"type:text"`
	SelectedOption *int    `json:"selected_option"`
	IsCorrect      *bool   `json:"is_correct"`

	AnsweredAt    time.Time `json:"answered_at" gorm:"not null"`
	RevisionCount int       `json:"revision_count" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Session  ExamSession  `json:"session" gorm:"foreignKey:SessionID"`
	Question ExamQuestion `json:"question" gorm:"foreignKey:QuestionID"`
}

func (QuestionResponse) TableName() string {
	return "question_responses"
}
