package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-club-api/pkg/errors"
)

type mockDraftStore struct {
	creates   int
	updates   []string
	finalized []string
	nextID    string
	version   int
	createErr error
	updateErr error
	finalErr  error
}

func (m *mockDraftStore) CreateDraft(ctx context.Context, data Data) (DraftRef, error) {
	m.creates++
	if m.createErr != nil {
		return DraftRef{}, m.createErr
	}
	m.version = 1
	return DraftRef{ID: m.nextID, Version: m.version}, nil
}

func (m *mockDraftStore) UpdateDraft(ctx context.Context, id string, data Data) (DraftRef, error) {
	m.updates = append(m.updates, id)
	if m.updateErr != nil {
		return DraftRef{}, m.updateErr
	}
	m.version++
	return DraftRef{ID: id, Version: m.version}, nil
}

func (m *mockDraftStore) Finalize(ctx context.Context, id string, data Data) (FinalRef, error) {
	m.finalized = append(m.finalized, id)
	if m.finalErr != nil {
		return FinalRef{}, m.finalErr
	}
	return FinalRef{ID: id, Number: "ENR-2024-00042", Status: "ACTIVE"}, nil
}

func TestReconcilerSaveCreatesThenUpdates(t *testing.T) {
	store := &mockDraftStore{nextID: "draft-1"}
	rec := NewReconciler(store, zap.NewNop())

	ref, err := rec.Save(context.Background(), Data{})
	require.NoError(t, err)
	assert.Equal(t, "draft-1", ref.ID)
	assert.Equal(t, 1, store.creates)
	assert.Empty(t, store.updates)

	data := Data{RemoteID: ref.ID, Version: ref.Version}
	ref, err = rec.Save(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "draft-1", ref.ID)
	assert.Equal(t, 1, store.creates, "never a second create once an id is assigned")
	assert.Equal(t, []string{"draft-1"}, store.updates)
}

func TestReconcilerSaveFailureSurfacesMessage(t *testing.T) {
	store := &mockDraftStore{createErr: errors.New("enrollment period closed")}
	rec := NewReconciler(store, zap.NewNop())

	_, err := rec.Save(context.Background(), Data{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Message, "enrollment period closed")
}

func TestReconcilerVersionConflict(t *testing.T) {
	store := &mockDraftStore{updateErr: ErrVersionConflict}
	rec := NewReconciler(store, zap.NewNop())

	_, err := rec.Save(context.Background(), Data{RemoteID: "draft-1", Version: 1})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestReconcilerSubmitCreatesWhenNeverSaved(t *testing.T) {
	store := &mockDraftStore{nextID: "draft-9"}
	rec := NewReconciler(store, zap.NewNop())

	final, err := rec.Submit(context.Background(), Data{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, []string{"draft-9"}, store.finalized)
	assert.Equal(t, "ENR-2024-00042", final.Number)
	assert.Equal(t, "ACTIVE", final.Status)
}

func TestReconcilerSubmitUsesExistingDraft(t *testing.T) {
	store := &mockDraftStore{}
	rec := NewReconciler(store, zap.NewNop())

	_, err := rec.Submit(context.Background(), Data{RemoteID: "draft-3"})
	require.NoError(t, err)
	assert.Zero(t, store.creates)
	assert.Equal(t, []string{"draft-3"}, store.finalized)
}

func TestReconcilerBindMachineFoldsAssignedID(t *testing.T) {
	store := &mockDraftStore{nextID: "draft-7"}
	rec := NewReconciler(store, zap.NewNop())
	m := NewMachine(EnrollmentPolicy{})

	require.NoError(t, m.GoNext(context.Background(), rec.BindMachine(m)))

	state := m.GetState()
	assert.Equal(t, "draft-7", state.Data.RemoteID)
	assert.Equal(t, 1, state.Data.Version)
	assert.Equal(t, StepStudentSelection, state.CurrentStep)
}

func TestReconcilerBindMachineFailClosed(t *testing.T) {
	store := &mockDraftStore{createErr: errors.New("timeout")}
	rec := NewReconciler(store, zap.NewNop())
	m := NewMachine(EnrollmentPolicy{})

	err := m.GoNext(context.Background(), rec.BindMachine(m))
	require.Error(t, err)

	state := m.GetState()
	assert.Equal(t, StepClubSelection, state.CurrentStep)
	assert.Empty(t, state.Data.RemoteID)
	assert.NotEmpty(t, state.Error)
}
