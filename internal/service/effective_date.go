package service

import (
	"time"

	"github.com/noah-isme/pps-admin-api/internal/models"
)

// TemporalFacts maps student id to the resolved entry/finalization instants.
type TemporalFacts map[string]models.EffectiveDates

// ResolveEffectiveDates derives, per student, the earliest credible entry
// instant and the authoritative finalization instant from current-state rows
// only. Documented activity can back-date a student's entry earlier than
// their registration record; registration never overrides earlier activity.
func ResolveEffectiveDates(students []models.Student, practices []models.Practice, completions []models.CompletionRequest) TemporalFacts {
	earliestPractice := make(map[string]time.Time)
	for _, p := range practices {
		if p.StudentID == nil || p.StartDate == nil {
			continue
		}
		id := *p.StudentID
		if current, ok := earliestPractice[id]; !ok || p.StartDate.Before(current) {
			earliestPractice[id] = *p.StartDate
		}
	}

	// When several completion requests exist, the most recently updated one
	// speaks for the student.
	latestCompletion := make(map[string]models.CompletionRequest)
	for _, req := range completions {
		if req.StudentID == nil {
			continue
		}
		id := *req.StudentID
		if current, ok := latestCompletion[id]; !ok || req.UpdatedAt.After(current.UpdatedAt) {
			latestCompletion[id] = req
		}
	}

	facts := make(TemporalFacts, len(students))
	for _, s := range students {
		entry := s.CreatedAt
		if practiceStart, ok := earliestPractice[s.ID]; ok && practiceStart.Before(entry) {
			entry = practiceStart
		}

		var finalization *time.Time
		if s.FinalizationDate != nil {
			admin := *s.FinalizationDate
			finalization = &admin
			// The completion request's submission instant is authoritative
			// for which year the student finished in whenever it disagrees
			// with the admin-set date. Override, not merge.
			if req, ok := latestCompletion[s.ID]; ok && req.UpdatedAt.Year() != admin.Year() {
				submitted := req.UpdatedAt
				finalization = &submitted
			}
		}

		facts[s.ID] = models.EffectiveDates{EntryDate: entry, FinalizationDate: finalization}
	}
	return facts
}

// HasActivityInYear reports whether any of the student's practices touch the
// given calendar year. An open-ended practice that started earlier counts.
func HasActivityInYear(studentID string, practices []models.Practice, year int) bool {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)

	for _, p := range practices {
		if !p.LinkedTo(studentID) || p.StartDate == nil {
			continue
		}
		if p.StartDate.After(yearEnd) {
			continue
		}
		if p.EndDate == nil || !p.EndDate.Before(yearStart) {
			return true
		}
	}
	return false
}

// IsGhost reports whether the student is not yet real relative to the
// queried year: no linked account and no practice activity in that year.
// Ghosts are excluded from every snapshot regardless of creation date.
func IsGhost(s models.Student, practices []models.Practice, year int) bool {
	if s.HasAccount() {
		return false
	}
	return !HasActivityInYear(s.ID, practices, year)
}
