package models

// Institution is a host organisation offering placements. NewAgreement marks
// the institution's first-ever launch window, which the flow calculator
// counts as a new agreement in the year that first launch falls in.
type Institution struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	ContactEmail string `db:"contact_email" json:"contact_email"`
	ContactPhone string `db:"contact_phone" json:"contact_phone"`
	NewAgreement bool   `db:"new_agreement" json:"new_agreement"`
}
