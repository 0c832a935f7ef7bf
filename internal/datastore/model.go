package datastore

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is one journaled write attempt against the remote table store.
type Submission struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	Kind       string         `gorm:"index;size:32;not null" json:"kind"` // wish, proposal, supply, feedback
	Table      string         `gorm:"column:table_id;size:64;not null" json:"table"`
	Success    bool           `gorm:"index" json:"success"`
	Error      string         `gorm:"size:1024" json:"error,omitempty"`
	RequestID  string         `gorm:"size:128" json:"request_id,omitempty"`
	Cells      datatypes.JSON `json:"cells"`
	DurationMs int64          `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

// TableName pins the table name independent of the naming strategy.
func (Submission) TableName() string {
	return "submissions"
}

// Filter selects journal entries. Zero values match everything.
type Filter struct {
	Kind        string
	FailedOnly  bool
	Since       time.Time
	Limit       int
	NewestFirst bool
}
