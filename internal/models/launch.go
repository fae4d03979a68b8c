package models

import "time"

// Launch management statuses. These are free text in the legacy store; the
// constants cover the values the console actually writes.
const (
	LaunchStatusPendingManagement = "pending_management"
	LaunchStatusRelaunchConfirmed = "relaunch_confirmed"
	LaunchStatusArchived          = "archived"
	LaunchStatusNotRelaunching    = "not_relaunching"
)

// Launch is an institution's open cohort window. The name usually follows
// the "Institution - Slot" convention; several launches of one institution
// share the prefix before the separator ("variants").
type Launch struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	StartDate        *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	Seats            int        `db:"seats" json:"seats"`
	ManagementStatus string     `db:"management_status" json:"management_status"`
}
