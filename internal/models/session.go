package models

import (
	"time"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionTerminated SessionStatus = "terminated"
	SessionExpired    SessionStatus = "expired"
)

// IsTerminal reports whether the status allows no further transitions.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionTerminated || s == SessionExpired
}

type SubmissionType string

const (
	SubmissionManual         SubmissionType = "manual"
	SubmissionTimeExpired    SubmissionType = "auto_time_expired"
	SubmissionViolationLimit SubmissionType = "auto_violations"
)

// StatusFor maps a finalize cause to the terminal status it produces.
func (t SubmissionType) StatusFor() SessionStatus {
	switch t {
	case SubmissionTimeExpired:
		return SessionExpired
	case SubmissionViolationLimit:
		return SessionTerminated
	default:
		return SessionCompleted
	}
}

// ExamSession is one student's attempt at one exam. ScheduledEndTime is set
// once at creation and never recomputed; status moves from in_progress to
// exactly one terminal state.
type ExamSession struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index:idx_sessions_student_exam"`
	ExamID    uint   `json:"exam_id" gorm:"not null;index:idx_sessions_student_exam"`

	StartTime        time.Time  `json:"start_time" gorm:"not null"`
	ScheduledEndTime time.Time  `json:"scheduled_end_time" gorm:"not null"`
	EndTime          *time.Time `json:"end_time"`

	Status               SessionStatus   `json:"status" gorm:"not null;default:in_progress;index"`
	TotalViolations      int             `json:"total_violations" gorm:"not null;default:0"`
	CompletionPercentage float64         `json:"completion_percentage" gorm:"not null;default:0"`
	Score                *float64        `json:"score"`
	SubmissionType       *SubmissionType `json:"submission_type" gorm:"size:30"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student    User               `json:"student" gorm:"foreignKey:StudentID"`
	Exam       Exam               `json:"exam" gorm:"foreignKey:ExamID"`
	Responses  []QuestionResponse `json:"responses" gorm:"foreignKey:SessionID"`
	Violations []SessionViolation `json:"violations" gorm:"foreignKey:SessionID"`
	Snapshots  []SessionSnapshot  `json:"snapshots" gorm:"foreignKey:SessionID"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}
