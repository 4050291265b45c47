package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionSnapshot is a periodic, best-effort mirror of in-progress session
// state as the client perceives it. Snapshots are append-only; recovery takes
// the most recent one by CreatedAt. The embedded TimeRemaining is advisory
// display data only; authoritative remaining time is always recomputed from
// the session's ScheduledEndTime.
type SessionSnapshot struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SessionID uint `json:"session_id" gorm:"not null;index:idx_snapshots_session_created"`

	Answers              datatypes.JSON `json:"answers" gorm:"type:jsonb"` // questionID -> answer as last seen by the client
	ViolationCount       int            `json:"violation_count" gorm:"not null;default:0"`
	CompletionPercentage float64        `json:"completion_percentage" gorm:"not null;default:0"`
	CurrentQuestionIndex int            `json:"current_question_index" gorm:"not null;default:0"`
	TimeRemaining        int            `json:"time_remaining" gorm:"not null;default:0"` // seconds, client-reported

	CreatedAt time.Time `json:"created_at" gorm:"index:idx_snapshots_session_created"`

	// Relations
	Session ExamSession `json:"session" gorm:"foreignKey:SessionID"`
}

func (SessionSnapshot) TableName() string {
	return "session_snapshots"
}
