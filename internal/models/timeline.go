package models

// TimelineVariant is one raw launch inside a display group.
type TimelineVariant struct {
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

// TimelineInstitution groups same-prefix launch variants within one month.
type TimelineInstitution struct {
	GroupName  string            `json:"group_name"`
	TotalSeats int               `json:"total_seats"`
	Variants   []TimelineVariant `json:"variants"`
}

// TimelineMonth is one calendar-month bucket. Only months with at least one
// launch are emitted.
type TimelineMonth struct {
	Month            int                   `json:"month"`
	MonthName        string                `json:"month_name"`
	TotalSeats       int                   `json:"total_seats"`
	InstitutionCount int                   `json:"institution_count"`
	Institutions     []TimelineInstitution `json:"institutions"`
}
