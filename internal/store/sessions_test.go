package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labdesk/internal/validation"
	"labdesk/internal/wizard"
)

func openTestDB(t *testing.T) *Sessions {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessions(db)
}

func TestSessions_SaveLoadRoundTrip(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	state := wizard.NewState()
	state.LabDetails.LabName = "Acme Testing Labs"
	state.LabDetails.Logo = &validation.Upload{Name: "logo.png", Size: 2048, ContentType: "image/png", Data: []byte{1, 2, 3}}
	state.Legal.Category = wizard.OrgCategory{Category: wizard.Other{Description: "Cooperative"}}
	state.TopManagement = []wizard.Person{{ID: "p1", Name: "A. Rao", Designation: "Director"}}

	s := &wizard.Session{ID: "s1", CurrentStep: 3, State: state, CreatedAt: created, UpdatedAt: created}
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStep)
	assert.Equal(t, "Acme Testing Labs", got.State.LabDetails.LabName)
	assert.Equal(t, wizard.Other{Description: "Cooperative"}, got.State.Legal.Category.Category)
	assert.Equal(t, "logo.png", got.State.LabDetails.Logo.Name)
	assert.Nil(t, got.State.LabDetails.Logo.Data, "file bytes are not persisted")
	assert.True(t, created.Equal(got.CreatedAt))
	assert.False(t, got.Submitted)

	s.CurrentStep = 4
	s.Submitted = true
	require.NoError(t, repo.Save(ctx, s))
	got, err = repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentStep)
	assert.True(t, got.Submitted)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSessions_ListNewestFirst(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 5, 0, time.UTC)

	// whole second first, then half a second later
	require.NoError(t, repo.Save(ctx, &wizard.Session{ID: "whole", CurrentStep: 1, State: wizard.NewState(), CreatedAt: base, UpdatedAt: base}))
	later := base.Add(500 * time.Millisecond)
	require.NoError(t, repo.Save(ctx, &wizard.Session{ID: "half", CurrentStep: 1, State: wizard.NewState(), CreatedAt: later, UpdatedAt: later}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "half", list[0].ID)
	assert.Equal(t, "whole", list[1].ID)
	assert.True(t, list[1].UpdatedAt.Equal(base))
}

func TestSessions_LoadUnknown(t *testing.T) {
	repo := openTestDB(t)
	_, err := repo.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, wizard.ErrSessionNotFound)
}

func TestSessions_RejectsStepOutOfRange(t *testing.T) {
	repo := openTestDB(t)
	err := repo.Save(context.Background(), &wizard.Session{ID: "bad", CurrentStep: 12, State: wizard.NewState()})
	assert.Error(t, err)
}

func TestSessions_Delete(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &wizard.Session{ID: "s1", CurrentStep: 1, State: wizard.NewState()}))
	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err := repo.Load(ctx, "s1")
	assert.ErrorIs(t, err, wizard.ErrSessionNotFound)
}
