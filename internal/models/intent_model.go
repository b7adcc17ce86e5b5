package models

import (
	"encoding/json"
	"time"
)

// ScheduledIntent is a persisted deferred publish request. Media files
// referenced by MediaPaths live in the upload directory until the
// cleanup job collects them.
type ScheduledIntent struct {
	ID          string          `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	Platforms   []string        `db:"platforms" json:"platforms"`
	Caption     string          `db:"caption" json:"caption"`
	MediaPaths  []string        `db:"media_paths" json:"media_paths"`
	ScheduledAt time.Time       `db:"scheduled_at" json:"scheduled_at"`
	Status      string          `db:"status" json:"status"`
	Result      json.RawMessage `db:"result" json:"result,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	IntentStatusPending    = "pending"
	IntentStatusProcessing = "processing"
	IntentStatusCompleted  = "completed"
	IntentStatusPartial    = "partial"
	IntentStatusFailed     = "failed"
)
