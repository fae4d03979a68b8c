package models

import "time"

// Merge intent states. An intent left in pending after a crash marks a
// partial merge that must be resumed before the losers can be trusted gone.
const (
	IntentStatePending = "pending"
	IntentStateDone    = "done"
)

// MergeIntent is the write-ahead record for one duplicate-legajo merge.
type MergeIntent struct {
	ID         string    `db:"id" json:"id"`
	Legajo     string    `db:"legajo" json:"legajo"`
	SurvivorID string    `db:"survivor_id" json:"survivor_id"`
	LoserIDs   []string  `db:"-" json:"loser_ids"`
	LoserCSV   string    `db:"loser_ids" json:"-"`
	State      string    `db:"state" json:"state"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MergeResult reports what one executed merge rewired.
type MergeResult struct {
	Legajo              string   `json:"legajo"`
	SurvivorID          string   `json:"survivor_id"`
	LoserIDs            []string `json:"loser_ids"`
	RewrittenEnrollment int64    `json:"rewritten_enrollment_requests"`
	RewrittenCompletion int64    `json:"rewritten_completion_requests"`
	RewrittenPractices  int64    `json:"rewritten_practices"`
	RewrittenPPS        int64    `json:"rewritten_pps_requests"`
	DeletedStudents     int64    `json:"deleted_students"`
}
