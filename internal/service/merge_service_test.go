package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pps-admin-api/internal/models"
	appErrors "github.com/noah-isme/pps-admin-api/pkg/errors"
)

type mockMergeStore struct {
	calls []string

	intent     *models.MergeIntent
	survivorID string
	loserIDs   []string

	recordErr  error
	cascadeErr error
	markErr    error
	result     *models.MergeResult
	pending    []models.MergeIntent
}

func (m *mockMergeStore) RecordIntent(ctx context.Context, intent *models.MergeIntent) error {
	m.calls = append(m.calls, "record")
	m.intent = intent
	return m.recordErr
}

func (m *mockMergeStore) MarkIntentDone(ctx context.Context, intentID string) error {
	m.calls = append(m.calls, "done")
	return m.markErr
}

func (m *mockMergeStore) PendingIntents(ctx context.Context) ([]models.MergeIntent, error) {
	return m.pending, nil
}

func (m *mockMergeStore) ExecuteCascade(ctx context.Context, survivorID string, loserIDs []string) (*models.MergeResult, error) {
	m.calls = append(m.calls, "cascade")
	m.survivorID = survivorID
	m.loserIDs = loserIDs
	if m.cascadeErr != nil {
		return nil, m.cascadeErr
	}
	if m.result != nil {
		return m.result, nil
	}
	return &models.MergeResult{SurvivorID: survivorID, DeletedStudents: int64(len(loserIDs))}, nil
}

func duplicateSet() []models.Student {
	return []models.Student{
		{ID: "ghost-row", Legajo: "10234", CreatedAt: date(2021, 1, 1)},
		{ID: "real-row", Legajo: "10234", AccountID: strptr("acc-1"), CreatedAt: date(2022, 1, 1)},
		{ID: "other", Legajo: "99999", AccountID: strptr("acc-2"), CreatedAt: date(2022, 1, 1)},
	}
}

func TestMergeExecutePrefersLinkedAccount(t *testing.T) {
	store := &mockMergeStore{}
	svc := NewMergeService(&mockStudentRepo{students: duplicateSet()}, store, nil, nil)

	result, err := svc.Execute(context.Background(), "10234")
	require.NoError(t, err)

	// The row with an account survives even though it is not first.
	assert.Equal(t, "real-row", store.survivorID)
	assert.Equal(t, []string{"ghost-row"}, store.loserIDs)
	assert.Equal(t, "10234", result.Legajo)
	assert.Equal(t, int64(1), result.DeletedStudents)

	// Intent is written before the cascade runs, then cleared after.
	assert.Equal(t, []string{"record", "cascade", "done"}, store.calls)
	require.NotNil(t, store.intent)
	assert.Equal(t, models.IntentStatePending, store.intent.State)
	assert.Equal(t, "real-row", store.intent.SurvivorID)
}

func TestMergeExecuteFallsBackToFirstRow(t *testing.T) {
	students := []models.Student{
		{ID: "first", Legajo: "500", CreatedAt: date(2021, 1, 1)},
		{ID: "second", Legajo: "500", CreatedAt: date(2022, 1, 1)},
	}
	store := &mockMergeStore{}
	svc := NewMergeService(&mockStudentRepo{students: students}, store, nil, nil)

	_, err := svc.Execute(context.Background(), "500")
	require.NoError(t, err)
	assert.Equal(t, "first", store.survivorID)
	assert.Equal(t, []string{"second"}, store.loserIDs)
}

func TestMergeExecuteNoDuplicates(t *testing.T) {
	store := &mockMergeStore{}
	svc := NewMergeService(&mockStudentRepo{students: duplicateSet()}, store, nil, nil)

	_, err := svc.Execute(context.Background(), "99999")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.calls)
}

func TestMergeExecuteEmptyLegajo(t *testing.T) {
	svc := NewMergeService(&mockStudentRepo{}, &mockMergeStore{}, nil, nil)

	_, err := svc.Execute(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMergeExecuteCascadeFailureKeepsIntentPending(t *testing.T) {
	store := &mockMergeStore{cascadeErr: errors.New("deadlock")}
	svc := NewMergeService(&mockStudentRepo{students: duplicateSet()}, store, nil, nil)

	_, err := svc.Execute(context.Background(), "10234")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCascadeFailure.Code, appErrors.FromError(err).Code)
	// The intent stays pending: MarkIntentDone must not run.
	assert.Equal(t, []string{"record", "cascade"}, store.calls)
}

func TestMergeExecuteMarkDoneFailureStillSucceeds(t *testing.T) {
	store := &mockMergeStore{markErr: errors.New("timeout")}
	svc := NewMergeService(&mockStudentRepo{students: duplicateSet()}, store, nil, nil)

	result, err := svc.Execute(context.Background(), "10234")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.DeletedStudents)
}

func TestPendingMerges(t *testing.T) {
	store := &mockMergeStore{pending: []models.MergeIntent{
		{ID: "i1", Legajo: "10234", State: models.IntentStatePending},
	}}
	svc := NewMergeService(&mockStudentRepo{}, store, nil, nil)

	intents, err := svc.PendingMerges(context.Background())
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, "10234", intents[0].Legajo)
}
