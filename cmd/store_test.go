package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/canvass/internal/model"
)

func TestInitState_Memory(t *testing.T) {
	cfg = testConfig("memory", "")
	st, closeStore, err := initState(context.Background())
	require.NoError(t, err)
	defer closeStore()

	assert.Zero(t, st.Count())
	assert.Equal(t, model.StatusOpen, st.Statuses().Default())
}

func TestInitState_SQLitePersists(t *testing.T) {
	ctx := context.Background()
	cfg = testConfig("sqlite", filepath.Join(t.TempDir(), "canvass.db"))

	st, closeStore, err := initState(ctx)
	require.NoError(t, err)
	_, err = st.AddCompany(ctx, model.Company{ID: "acme", Name: "Acme"})
	require.NoError(t, err)
	closeStore()

	st, closeStore, err = initState(ctx)
	require.NoError(t, err)
	defer closeStore()
	assert.Len(t, st.Companies(), 1)
	assert.Equal(t, "acme", st.SelectedCompany())
}

func TestInitState_UnsupportedDriver(t *testing.T) {
	cfg = testConfig("mongo", "")
	_, _, err := initState(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestMigrateCmd_MemoryRejected(t *testing.T) {
	cfg = testConfig("memory", "")
	migrateCmd.SetContext(context.Background())
	err := migrateCmd.RunE(migrateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires store.driver")
}

func TestMigrateCmd_SQLite(t *testing.T) {
	cfg = testConfig("sqlite", filepath.Join(t.TempDir(), "canvass.db"))
	migrateCmd.SetContext(context.Background())
	require.NoError(t, migrateCmd.RunE(migrateCmd, nil))
}
