package models

import (
	"time"

	"gorm.io/datatypes"
)

type ViolationType string

const (
	ViolationTabSwitch        ViolationType = "tab_switch"
	ViolationWindowBlur       ViolationType = "window_blur"
	ViolationRightClick       ViolationType = "right_click"
	ViolationDevToolsOpen     ViolationType = "devtools_open"
	ViolationPaste            ViolationType = "paste"
	ViolationCopy             ViolationType = "copy"
	ViolationKeyboardShortcut ViolationType = "keyboard_shortcut"
	ViolationViewSource       ViolationType = "view_source"

	// Lifecycle markers logged through the same ledger for audit purposes.
	// They do not represent integrity breaches.
	ViolationSessionStarted ViolationType = "session_started"
	ViolationSessionResumed ViolationType = "session_resumed"
)

// SessionViolation is an immutable record of a client-detected integrity
// event. Rows are only ever appended; the owning session's total_violations
// counter is incremented in the same transaction so the two never diverge.
type SessionViolation struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	SessionID uint          `json:"session_id" gorm:"not null;index"`
	Type      ViolationType `json:"type" gorm:"not null;size:40;index"`

	Severity    int            `json:"severity" gorm:"not null;default:1"` // 1-5 (low to critical)
	Description string         `json:"description" gorm:"type:text"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	DetectedAt time.Time `json:"detected_at" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Session ExamSession `json:"session" gorm:"foreignKey:SessionID"`
}

func (SessionViolation) TableName() string {
	return "session_violations"
}
