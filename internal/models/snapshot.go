package models

import "time"

// Hour thresholds used by the snapshot classifications. Business constants,
// not configuration.
const (
	NearCompletionHours = 230
	AccreditationHours  = 250
)

// EffectiveDates carries the temporal facts resolved for one student: the
// earliest credible entry instant and, when the student finished, the
// authoritative finalization instant.
type EffectiveDates struct {
	EntryDate        time.Time  `json:"entry_date"`
	FinalizationDate *time.Time `json:"finalization_date,omitempty"`
}

// Snapshot is the population picture at one cutoff instant.
type Snapshot struct {
	Cutoff                  time.Time        `json:"cutoff"`
	Year                    int              `json:"year"`
	ActiveCount             int              `json:"active_count"`
	Active                  []StudentSummary `json:"active"`
	WithoutPlacementCount   int              `json:"without_placement_count"`
	WithoutPlacement        []StudentSummary `json:"without_placement"`
	NearCompletion          []StudentSummary `json:"near_completion"`
	ReadyToAccredit         []StudentSummary `json:"ready_to_accredit"`
	ExcludedAsFinishedCount int              `json:"excluded_as_finished_count"`
	GhostCount              int              `json:"ghost_count"`
}
