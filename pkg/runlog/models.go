package runlog

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one import phase execution. The table belongs to the importer, not
// to the terminology schema, and is only written when run recording is on.
type Run struct {
	ID           string         `gorm:"primaryKey;size:36;column:id" json:"id"`
	Phase        string         `gorm:"size:32;index;column:phase" json:"phase"`
	ForeignID    int            `gorm:"column:foreign_id" json:"foreign_id,omitempty"`
	Status       string         `gorm:"size:16;column:status" json:"status"`
	Processed    int            `gorm:"column:processed" json:"processed"`
	Failed       int            `gorm:"column:failed" json:"failed"`
	Stats        datatypes.JSON `gorm:"column:stats" json:"stats,omitempty"`
	Failures     datatypes.JSON `gorm:"column:failures" json:"failures,omitempty"`
	ErrorMessage string         `gorm:"column:error_message" json:"error_message,omitempty"`
	StartedAt    time.Time      `gorm:"column:started_at" json:"started_at"`
	CompletedAt  *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (Run) TableName() string {
	return "conceptsync_runs"
}
