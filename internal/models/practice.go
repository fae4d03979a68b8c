package models

import "time"

// Practice statuses as stored by the legacy console.
const (
	PracticeStatusInProgress         = "in_progress"
	PracticeStatusFinished           = "finished"
	PracticeStatusAgreementCompleted = "agreement_completed"
)

// Practice is a confirmed placement of one student at one institution,
// either directly or through a launch. StudentID is nullable in the legacy
// data; StudentName is the free-text fallback used before accounts existed.
type Practice struct {
	ID              string     `db:"id" json:"id"`
	StudentID       *string    `db:"student_id" json:"student_id,omitempty"`
	StudentName     string     `db:"student_name" json:"student_name"`
	InstitutionName string     `db:"institution_name" json:"institution_name"`
	LaunchID        *string    `db:"launch_id" json:"launch_id,omitempty"`
	StartDate       *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate         *time.Time `db:"end_date" json:"end_date,omitempty"`
	Hours           int        `db:"hours" json:"hours"`
	Status          string     `db:"status" json:"status"`
}

// LinkedTo reports whether the practice references the given student.
func (p Practice) LinkedTo(studentID string) bool {
	return p.StudentID != nil && *p.StudentID == studentID
}
