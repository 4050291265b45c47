package models

import (
	"time"

	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamDraft    ExamStatus = "Draft"
	ExamActive   ExamStatus = "Active"
	ExamArchived ExamStatus = "Archived"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	FreeText       QuestionType = "free_text"
)

// Exam carries the per-exam policy read at session creation: how long a
// session runs, how many violations terminate it, and the minimum time a
// recovering student is shown.
type Exam struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status      ExamStatus `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Active Archived"`

	// Session policy
	DurationMinutes         int `json:"duration_minutes" gorm:"not null" validate:"required,min=5,max=300"`
	MaxViolations           int `json:"max_violations" gorm:"not null;default:10" validate:"min=1,max=100"`
	MinTimeGuaranteeMinutes int `json:"min_time_guarantee_minutes" gorm:"not null;default:5" validate:"min=0,max=60"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []ExamQuestion `json:"questions" gorm:"foreignKey:ExamID"`
	Sessions  []ExamSession  `json:"sessions" gorm:"foreignKey:ExamID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
}

type ExamQuestion struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	ExamID   uint         `json:"exam_id" gorm:"not null;index"`
	Type     QuestionType `json:"type" gorm:"not null;size:30" validate:"required,oneof=multiple_choice free_text"`
	Text     string       `json:"text" gorm:"not null;type:text" validate:"required"`
	Position int          `json:"position" gorm:"not null;default:0"`
	Points   int          `json:"points" gorm:"not null;default:1" validate:"min=0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID"`
}

// QuestionOption is one selectable answer for a multiple-choice question.
// OptionIndex is the zero-based position the client submits back.
type QuestionOption struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	QuestionID  uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_options_question_index"`
	OptionIndex int    `json:"option_index" gorm:"not null;uniqueIndex:idx_options_question_index"`
	Text        string `json:"text" gorm:"not null;type:text"`
	IsCorrect   bool   `json:"is_correct" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Exam) TableName() string {
	return "exams"
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

func (QuestionOption) TableName() string {
	return "question_options"
}
