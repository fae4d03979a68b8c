package models

import "time"

// Request statuses shared by enrollment and completion requests.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// EnrollmentRequest is a student's application to join a launch.
type EnrollmentRequest struct {
	ID        string    `db:"id" json:"id"`
	StudentID *string   `db:"student_id" json:"student_id,omitempty"`
	LaunchID  *string   `db:"launch_id" json:"launch_id,omitempty"`
	Status    string    `db:"status" json:"status"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	Notes     string    `db:"notes" json:"notes"`
}

// CompletionRequest is a student's application to have their hours
// accredited. Its UpdatedAt instant can override the admin-set finalization
// date when the two disagree on the year.
type CompletionRequest struct {
	ID              string    `db:"id" json:"id"`
	StudentID       *string   `db:"student_id" json:"student_id,omitempty"`
	InstitutionName string    `db:"institution_name" json:"institution_name"`
	Status          string    `db:"status" json:"status"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
	Notes           string    `db:"notes" json:"notes"`
}

// PPSRequest is the legacy supervised-practice request linkage. It only
// matters to the merge reconciler, which must rewrite its student reference
// alongside the other dependent tables.
type PPSRequest struct {
	ID        string    `db:"id" json:"id"`
	StudentID *string   `db:"student_id" json:"student_id,omitempty"`
	Detail    string    `db:"detail" json:"detail"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
