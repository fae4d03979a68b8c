package models

import "time"

// Student represents an intern registered in the program. The legajo is the
// human-assigned identity key; the store does not enforce its uniqueness,
// which is why the integrity scanner carries a duplicate detector.
type Student struct {
	ID               string     `db:"id" json:"id"`
	Legajo           string     `db:"legajo" json:"legajo"`
	FullName         string     `db:"full_name" json:"full_name"`
	Email            *string    `db:"email" json:"email,omitempty"`
	AccountID        *string    `db:"account_id" json:"account_id,omitempty"`
	Finalized        bool       `db:"finalized" json:"finalized"`
	FinalizationDate *time.Time `db:"finalization_date" json:"finalization_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// HasAccount reports whether the student is linked to a login account.
func (s Student) HasAccount() bool {
	return s.AccountID != nil && *s.AccountID != ""
}

// StudentSummary is the list representation returned by snapshot queries.
type StudentSummary struct {
	ID       string `json:"id"`
	Legajo   string `json:"legajo"`
	FullName string `json:"full_name"`
	Hours    int    `json:"hours"`
}
