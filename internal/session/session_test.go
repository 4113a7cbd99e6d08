package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jportela/comanda/internal/state"
)

func TestLogin_ThenStartService(t *testing.T) {
	ctx := context.Background()
	m := New(nil)

	a, err := m.Login(ctx, "42", "J. Silva")
	require.NoError(t, err)
	assert.NotEmpty(t, a.SessionID)
	assert.Equal(t, "42", m.Attendant().Badge)

	s, err := m.StartService(ctx, "3", 2)
	require.NoError(t, err)
	assert.Equal(t, "3", s.Table)
	assert.Equal(t, 2, m.Service().PartySize)
}

func TestLogin_RequiresBadgeAndName(t *testing.T) {
	ctx := context.Background()
	m := New(nil)

	_, err := m.Login(ctx, "", "J. Silva")
	assert.Error(t, err)
	_, err = m.Login(ctx, "42", "")
	assert.Error(t, err)
	assert.Nil(t, m.Attendant())
}

func TestStartService_RequiresAttendant(t *testing.T) {
	ctx := context.Background()
	m := New(nil)

	_, err := m.StartService(ctx, "3", 2)
	assert.Error(t, err)
	assert.Nil(t, m.Service())
}

func TestStartService_RequiresTableAndParty(t *testing.T) {
	ctx := context.Background()
	m := New(nil)
	_, err := m.Login(ctx, "42", "J. Silva")
	require.NoError(t, err)

	_, err = m.StartService(ctx, "", 2)
	assert.Error(t, err)
	_, err = m.StartService(ctx, "3", 0)
	assert.Error(t, err)
}

func TestLoad_RestoresAcrossRestart(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := New(store)
	_, err = m.Login(ctx, "42", "J. Silva")
	require.NoError(t, err)
	_, err = m.StartService(ctx, "3", 2)
	require.NoError(t, err)

	restored := Load(ctx, store)
	require.NotNil(t, restored.Attendant())
	assert.Equal(t, "J. Silva", restored.Attendant().Name)
	require.NotNil(t, restored.Service())
	assert.Equal(t, "3", restored.Service().Table)
}

func TestResumeTable_RebindsService(t *testing.T) {
	ctx := context.Background()
	m := New(nil)
	_, err := m.Login(ctx, "42", "J. Silva")
	require.NoError(t, err)
	_, err = m.StartService(ctx, "3", 2)
	require.NoError(t, err)

	s, err := m.ResumeTable(ctx, "7", 4)
	require.NoError(t, err)
	assert.Equal(t, "7", s.Table)
	assert.Equal(t, 4, s.PartySize)

	// Omitted party size carries the previous one over.
	s, err = m.ResumeTable(ctx, "3", 0)
	require.NoError(t, err)
	assert.Equal(t, "3", s.Table)
	assert.Equal(t, 4, s.PartySize)
}

func TestResumeTable_RequiresAttendant(t *testing.T) {
	ctx := context.Background()
	m := New(nil)

	_, err := m.ResumeTable(ctx, "7", 2)
	assert.Error(t, err)
}

func TestEndService_KeepsAttendant(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := New(store)
	_, err = m.Login(ctx, "42", "J. Silva")
	require.NoError(t, err)
	_, err = m.StartService(ctx, "3", 2)
	require.NoError(t, err)

	require.NoError(t, m.EndService(ctx))
	assert.Nil(t, m.Service())
	assert.NotNil(t, m.Attendant())

	restored := Load(ctx, store)
	assert.Nil(t, restored.Service())
	assert.NotNil(t, restored.Attendant())
}

func TestLogout_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewFileStore(t.TempDir())
	require.NoError(t, err)

	m := New(store)
	_, err = m.Login(ctx, "42", "J. Silva")
	require.NoError(t, err)
	_, err = m.StartService(ctx, "3", 2)
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))
	assert.Nil(t, m.Attendant())
	assert.Nil(t, m.Service())

	restored := Load(ctx, store)
	assert.Nil(t, restored.Attendant())
	assert.Nil(t, restored.Service())
}
