package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pps-admin-api/internal/models"
)

type mockLaunchRepo struct {
	launches []models.Launch
	err      error
}

func (m *mockLaunchRepo) ListAll(ctx context.Context) ([]models.Launch, error) {
	return m.launches, m.err
}

type mockInstitutionRepo struct {
	institutions []models.Institution
	err          error
}

func (m *mockInstitutionRepo) ListAll(ctx context.Context) ([]models.Institution, error) {
	return m.institutions, m.err
}

func TestComputeFlowPeriodConservation(t *testing.T) {
	students := []models.Student{
		{ID: "carry", Legajo: "1", AccountID: strptr("a1"), CreatedAt: date(2021, 4, 1)},
		{ID: "entrant", Legajo: "2", AccountID: strptr("a2"), CreatedAt: date(2022, 3, 10)},
		{ID: "leaver", Legajo: "3", AccountID: strptr("a3"), CreatedAt: date(2020, 2, 1),
			Finalized: true, FinalizationDate: timeptr(date(2022, 6, 30))},
	}
	facts := ResolveEffectiveDates(students, nil, nil)

	period := ComputeFlowPeriod(2022, date(2023, 7, 1), facts, students, nil, nil, nil)

	assert.Equal(t, 2022, period.Year)
	assert.Equal(t, 1, period.NewEntries)
	assert.Equal(t, 1, period.Finalizations)
	assert.Equal(t, 2, period.ActiveAtStart)
	assert.Equal(t, 2, period.ActiveAtEnd)
	// Population flow balances across the window.
	assert.Equal(t, period.ActiveAtEnd, period.ActiveAtStart+period.NewEntries-period.Finalizations)
}

func TestComputeFlowPeriodLaunchDedup(t *testing.T) {
	launches := []models.Launch{
		{ID: "l1", Name: "Hospital X - Mañana", StartDate: timeptr(date(2022, 3, 1)), Seats: 5},
		{ID: "l2", Name: "Hospital X - Tarde", StartDate: timeptr(date(2022, 3, 15)), Seats: 5},
		{ID: "l3", Name: "Hospital X - Tarde", StartDate: timeptr(date(2022, 5, 2)), Seats: 10},
		{ID: "l4", Name: "Clínica B", StartDate: timeptr(date(2021, 9, 1)), Seats: 8},
		{ID: "l5", Name: "Sin fecha"},
	}
	institutions := []models.Institution{
		{ID: "i1", Name: "Hospital X", NewAgreement: true},
		{ID: "i2", Name: "Clínica B", NewAgreement: true},
		{ID: "i3", Name: "Vieja Alianza", NewAgreement: false},
	}

	period := ComputeFlowPeriod(2022, date(2023, 1, 1), TemporalFacts{}, nil, nil, launches, institutions)

	// Same offering, same month counts once; a later month counts again.
	assert.Equal(t, 2, period.NewLaunches)
	assert.Equal(t, 20, period.TotalSeats)
	// Clínica B's first launch was 2021, so only Hospital X is a 2022 agreement.
	assert.Equal(t, 1, period.NewAgreements)
}

func TestComputeFlowPeriodClampsToNow(t *testing.T) {
	students := []models.Student{
		{ID: "early", Legajo: "1", AccountID: strptr("a1"), CreatedAt: date(2022, 2, 1)},
		{ID: "late", Legajo: "2", AccountID: strptr("a2"), CreatedAt: date(2022, 9, 1)},
	}
	facts := ResolveEffectiveDates(students, nil, nil)

	period := ComputeFlowPeriod(2022, date(2022, 6, 15), facts, students, nil, nil, nil)

	// The window ends at now, not at year end.
	assert.Equal(t, 1, period.NewEntries)
	assert.Equal(t, 1, period.ActiveAtEnd)
}

func TestComputeFlowPeriodFinalizationAfterWindowEnd(t *testing.T) {
	// Finalized later in the year than the window's end: still active at the
	// end cutoff, so counting the finalization would break conservation.
	students := []models.Student{
		{ID: "finishing", Legajo: "1", AccountID: strptr("a1"), CreatedAt: date(2021, 3, 1),
			Finalized: true, FinalizationDate: timeptr(date(2022, 11, 30))},
	}
	facts := ResolveEffectiveDates(students, nil, nil)

	period := ComputeFlowPeriod(2022, date(2022, 6, 15), facts, students, nil, nil, nil)

	assert.Equal(t, 0, period.Finalizations)
	assert.Equal(t, 1, period.ActiveAtStart)
	assert.Equal(t, 1, period.ActiveAtEnd)
	assert.Equal(t, period.ActiveAtEnd, period.ActiveAtStart+period.NewEntries-period.Finalizations)
}

func TestFlowServiceComputeReturnsBothPeriods(t *testing.T) {
	svc := NewFlowService(
		&mockStudentRepo{students: []models.Student{
			{ID: "a", Legajo: "1", AccountID: strptr("acc"), CreatedAt: date(2022, 5, 1)},
		}},
		&mockPracticeRepo{},
		&mockRequestRepo{},
		&mockLaunchRepo{},
		&mockInstitutionRepo{},
		nil, nil, nil,
	)

	metrics, cached, err := svc.Compute(context.Background(), 2023)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2023, metrics.Current.Year)
	assert.Equal(t, 2022, metrics.Previous.Year)
	assert.Equal(t, 1, metrics.Previous.NewEntries)
}
