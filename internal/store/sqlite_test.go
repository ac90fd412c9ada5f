package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/canvass/internal/model"
)

func newTestSQLiteRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() }) //nolint:errcheck
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	repo := newTestSQLiteRepository(t)
	require.NoError(t, repo.Migrate(context.Background()))
}

func TestSQLite_EmptyLoad(t *testing.T) {
	repo := newTestSQLiteRepository(t)
	ctx := context.Background()

	companies, err := repo.LoadCompanies(ctx)
	require.NoError(t, err)
	assert.Empty(t, companies)

	selected, err := repo.LoadSelectedCompany(ctx)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestSQLite_WriteThroughRoundTrip(t *testing.T) {
	repo := newTestSQLiteRepository(t)
	ctx := context.Background()
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	fixedNow(t, ts)

	s, err := Open(ctx, nil, repo)
	require.NoError(t, err)

	acme, err := s.AddCompany(ctx, model.Company{ID: "acme", Name: "Acme", CustomIcon: "data:image/png;base64,AA"})
	require.NoError(t, err)
	beta, err := s.AddCompany(ctx, model.Company{ID: "beta", Name: "Beta"})
	require.NoError(t, err)
	require.NoError(t, s.SelectCompany(ctx, beta.ID))

	_, err = s.Add(ctx, model.Business{ID: "b2", CompanyID: acme.ID, Name: "Second", Location: pin(37.7883, -122.4325)})
	require.NoError(t, err)
	_, err = s.Add(ctx, model.Business{ID: "b1", CompanyID: acme.ID, Name: "First", Tags: model.Tags{"vip"}})
	require.NoError(t, err)
	_, err = s.AddNote(ctx, "b2", "call back")
	require.NoError(t, err)
	status := model.StatusPending
	_, err = s.Update(ctx, "b2", model.BusinessPatch{Status: &status})
	require.NoError(t, err)

	reopened, err := Open(ctx, nil, repo)
	require.NoError(t, err)

	assert.Equal(t, s.Companies(), reopened.Companies())
	assert.Equal(t, beta.ID, reopened.SelectedCompany())

	got := reopened.List()
	require.Len(t, got, 2)
	assert.Equal(t, "b2", got[0].ID, "insertion order survives upserts")
	assert.Equal(t, model.StatusPending, got[0].Status)
	require.NotNil(t, got[0].Location)
	assert.InDelta(t, 37.7883, got[0].Location.Latitude, 1e-12)
	assert.InDelta(t, -122.4325, got[0].Location.Longitude, 1e-12)
	require.Len(t, got[0].Notes, 1)
	assert.Equal(t, "call back", got[0].Notes[0].Text)
	assert.True(t, ts.Equal(got[0].Notes[0].Timestamp))

	assert.Nil(t, got[1].Location)
	assert.Equal(t, model.Tags{"vip"}, got[1].Tags)
}

func TestSQLite_Delete(t *testing.T) {
	repo := newTestSQLiteRepository(t)
	ctx := context.Background()

	s, err := Open(ctx, nil, repo)
	require.NoError(t, err)
	co, err := s.AddCompany(ctx, model.Company{Name: "Acme"})
	require.NoError(t, err)
	b, err := s.Add(ctx, model.Business{CompanyID: co.ID, Name: "Shop"})
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, b.ID))
	require.NoError(t, s.RemoveCompany(ctx, co.ID))

	reopened, err := Open(ctx, nil, repo)
	require.NoError(t, err)
	assert.Empty(t, reopened.List())
	assert.Empty(t, reopened.Companies())
	assert.Empty(t, reopened.SelectedCompany())

	assert.True(t, eris.Is(repo.DeleteBusiness(ctx, "missing"), ErrNotFound))
}
