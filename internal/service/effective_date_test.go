package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pps-admin-api/internal/models"
)

func strptr(s string) *string { return &s }

func timeptr(t time.Time) *time.Time { return &t }

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestResolveEffectiveDatesPracticeBackdatesEntry(t *testing.T) {
	students := []models.Student{
		{ID: "a", Legajo: "1", CreatedAt: date(2024, 6, 1)},
		{ID: "b", Legajo: "2", CreatedAt: date(2024, 1, 1)},
	}
	practices := []models.Practice{
		{ID: "p1", StudentID: strptr("b"), StartDate: timeptr(date(2023, 11, 15)), Hours: 40},
	}

	facts := ResolveEffectiveDates(students, practices, nil)

	// No practices: registration instant stands.
	assert.Equal(t, date(2024, 6, 1), facts["a"].EntryDate)
	// Documented activity wins over the later registration record.
	assert.Equal(t, date(2023, 11, 15), facts["b"].EntryDate)
}

func TestResolveEffectiveDatesRegistrationNeverOverridesEarlierActivity(t *testing.T) {
	students := []models.Student{
		{ID: "a", Legajo: "1", CreatedAt: date(2020, 3, 1)},
	}
	practices := []models.Practice{
		{ID: "p1", StudentID: strptr("a"), StartDate: timeptr(date(2021, 5, 1))},
		{ID: "p2", StudentID: strptr("a"), StartDate: timeptr(date(2022, 5, 1))},
	}

	facts := ResolveEffectiveDates(students, practices, nil)

	// Registration precedes every practice: the earlier instant stands.
	assert.Equal(t, date(2020, 3, 1), facts["a"].EntryDate)
}

func TestResolveEffectiveDatesCompletionRequestOverridesYear(t *testing.T) {
	students := []models.Student{
		{ID: "a", Legajo: "1", CreatedAt: date(2020, 1, 1), Finalized: true,
			FinalizationDate: timeptr(date(2024, 2, 10))},
	}
	completions := []models.CompletionRequest{
		{ID: "c1", StudentID: strptr("a"), UpdatedAt: date(2023, 12, 20)},
	}

	facts := ResolveEffectiveDates(students, nil, completions)

	require.NotNil(t, facts["a"].FinalizationDate)
	// The request's submission year differs from the admin date's year, so
	// the request instant is authoritative.
	assert.Equal(t, date(2023, 12, 20), *facts["a"].FinalizationDate)
}

func TestResolveEffectiveDatesAdminDateKeptWhenYearsAgree(t *testing.T) {
	students := []models.Student{
		{ID: "a", Legajo: "1", CreatedAt: date(2020, 1, 1), Finalized: true,
			FinalizationDate: timeptr(date(2023, 2, 10))},
	}
	completions := []models.CompletionRequest{
		{ID: "c1", StudentID: strptr("a"), UpdatedAt: date(2023, 12, 20)},
	}

	facts := ResolveEffectiveDates(students, nil, completions)

	require.NotNil(t, facts["a"].FinalizationDate)
	assert.Equal(t, date(2023, 2, 10), *facts["a"].FinalizationDate)
}

func TestResolveEffectiveDatesUsesLatestCompletionRequest(t *testing.T) {
	students := []models.Student{
		{ID: "a", Legajo: "1", CreatedAt: date(2020, 1, 1), Finalized: true,
			FinalizationDate: timeptr(date(2024, 2, 10))},
	}
	completions := []models.CompletionRequest{
		{ID: "c1", StudentID: strptr("a"), UpdatedAt: date(2022, 6, 1)},
		{ID: "c2", StudentID: strptr("a"), UpdatedAt: date(2023, 12, 20)},
	}

	facts := ResolveEffectiveDates(students, nil, completions)

	require.NotNil(t, facts["a"].FinalizationDate)
	assert.Equal(t, date(2023, 12, 20), *facts["a"].FinalizationDate)
}

func TestHasActivityInYear(t *testing.T) {
	practices := []models.Practice{
		{ID: "p1", StudentID: strptr("a"), StartDate: timeptr(date(2022, 11, 1)),
			EndDate: timeptr(date(2023, 3, 1))},
	}

	assert.True(t, HasActivityInYear("a", practices, 2022))
	// Open interval spans the year boundary.
	assert.True(t, HasActivityInYear("a", practices, 2023))
	assert.False(t, HasActivityInYear("a", practices, 2024))
	assert.False(t, HasActivityInYear("b", practices, 2022))
}

func TestIsGhost(t *testing.T) {
	practices := []models.Practice{
		{ID: "p1", StudentID: strptr("noacct"), StartDate: timeptr(date(2023, 5, 1))},
	}

	withAccount := models.Student{ID: "acct", AccountID: strptr("acc-1")}
	assert.False(t, IsGhost(withAccount, nil, 2023))

	active := models.Student{ID: "noacct"}
	assert.False(t, IsGhost(active, practices, 2023))
	// The practice has no end date, so the open interval keeps counting.
	assert.False(t, IsGhost(active, practices, 2024))
	// No activity before the practice started.
	assert.True(t, IsGhost(active, practices, 2022))

	inert := models.Student{ID: "other", CreatedAt: date(2020, 1, 1)}
	assert.True(t, IsGhost(inert, nil, 2023))
}
