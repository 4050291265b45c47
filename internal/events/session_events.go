package events

import (
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

// EventType represents the session lifecycle events this service emits.
type EventType string

const (
	EventSessionStarted     EventType = "session.started"
	EventSessionFinalized   EventType = "session.finalized"
	EventViolationLogged    EventType = "session.violation_logged"
	EventViolationThreshold EventType = "session.violation_threshold"
)

// SessionEvent is the envelope for all session lifecycle events.
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type SessionStartedEvent struct {
	SessionID        uint      `json:"session_id"`
	ExamID           uint      `json:"exam_id"`
	StudentID        string    `json:"student_id"`
	StartTime        time.Time `json:"start_time"`
	ScheduledEndTime time.Time `json:"scheduled_end_time"`
	DurationMinutes  int       `json:"duration_minutes"`
}

type SessionFinalizedEvent struct {
	SessionID            uint                  `json:"session_id"`
	ExamID               uint                  `json:"exam_id"`
	StudentID            string                `json:"student_id"`
	Status               models.SessionStatus  `json:"status"`
	SubmissionType       models.SubmissionType `json:"submission_type"`
	Score                float64               `json:"score"`
	CompletionPercentage float64               `json:"completion_percentage"`
	EndTime              time.Time             `json:"end_time"`
}

type ViolationLoggedEvent struct {
	SessionID       uint                 `json:"session_id"`
	StudentID       string               `json:"student_id"`
	Type            models.ViolationType `json:"type"`
	Severity        int                  `json:"severity"`
	TotalViolations int                  `json:"total_violations"`
	DetectedAt      time.Time            `json:"detected_at"`
}

type ViolationThresholdEvent struct {
	SessionID       uint   `json:"session_id"`
	ExamID          uint   `json:"exam_id"`
	StudentID       string `json:"student_id"`
	TotalViolations int    `json:"total_violations"`
	MaxViolations   int    `json:"max_violations"`
}
