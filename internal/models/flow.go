package models

// FlowPeriod holds the windowed metrics for one calendar year.
type FlowPeriod struct {
	Year          int `json:"year"`
	NewEntries    int `json:"new_entries"`
	Finalizations int `json:"finalizations"`
	NewLaunches   int `json:"new_launches"`
	TotalSeats    int `json:"total_seats"`
	NewAgreements int `json:"new_agreements"`
	ActiveAtStart int `json:"active_at_start"`
	ActiveAtEnd   int `json:"active_at_end"`
}

// FlowMetrics pairs the requested year with the previous period so callers
// can render period-over-period deltas.
type FlowMetrics struct {
	Current  FlowPeriod `json:"current"`
	Previous FlowPeriod `json:"previous"`
}
