package store

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/model"
)

func fixedNow(t *testing.T, ts time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = orig })
}

func newTestState(t *testing.T) (*State, model.Company) {
	t.Helper()
	s := New(nil)
	co, err := s.AddCompany(context.Background(), model.Company{ID: "c1", Name: "Acme"})
	require.NoError(t, err)
	return s, co
}

func pin(lat, lng float64) *geo.Coordinate {
	return &geo.Coordinate{Latitude: lat, Longitude: lng}
}

func TestState_AddCompany(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	co, err := s.AddCompany(ctx, model.Company{Name: "  Acme "})
	require.NoError(t, err)
	assert.NotEmpty(t, co.ID)
	assert.Equal(t, "Acme", co.Name)
	assert.Equal(t, model.DefaultCompanyColor, co.Color)
	assert.Equal(t, co.ID, s.SelectedCompany(), "first company is selected")

	second, err := s.AddCompany(ctx, model.Company{Name: "Beta", Color: "#222"})
	require.NoError(t, err)
	assert.Equal(t, co.ID, s.SelectedCompany())
	assert.Len(t, s.Companies(), 2)

	found, ok := s.FindCompany(second.ID)
	require.True(t, ok)
	assert.Equal(t, "#222", found.Color)

	_, err = s.AddCompany(ctx, model.Company{Name: " "})
	assert.True(t, eris.Is(err, ErrInvalidCompany))

	_, err = s.AddCompany(ctx, model.Company{ID: co.ID, Name: "Dup"})
	assert.True(t, eris.Is(err, ErrInvalidCompany))
}

func TestState_RemoveCompany_ReferentialIntegrity(t *testing.T) {
	s, co := newTestState(t)
	ctx := context.Background()

	b, err := s.Add(ctx, model.Business{CompanyID: co.ID, Name: "Shop", Location: pin(1, 1)})
	require.NoError(t, err)

	err = s.RemoveCompany(ctx, co.ID)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrCompanyInUse))
	_, ok := s.FindCompany(co.ID)
	assert.True(t, ok)

	require.NoError(t, s.Remove(ctx, b.ID))
	require.NoError(t, s.RemoveCompany(ctx, co.ID))
	assert.Empty(t, s.Companies())

	assert.True(t, eris.Is(s.RemoveCompany(ctx, co.ID), ErrNotFound))
}

func TestState_RemoveSelectedCompanyMovesSelection(t *testing.T) {
	s, first := newTestState(t)
	ctx := context.Background()
	second, err := s.AddCompany(ctx, model.Company{Name: "Beta"})
	require.NoError(t, err)

	require.NoError(t, s.RemoveCompany(ctx, first.ID))
	assert.Equal(t, second.ID, s.SelectedCompany())

	require.NoError(t, s.RemoveCompany(ctx, second.ID))
	assert.Empty(t, s.SelectedCompany())
}

func TestState_SelectCompany(t *testing.T) {
	s, co := newTestState(t)
	ctx := context.Background()

	assert.True(t, eris.Is(s.SelectCompany(ctx, "missing"), ErrNotFound))
	require.NoError(t, s.SelectCompany(ctx, ""))
	assert.Empty(t, s.SelectedCompany())
	require.NoError(t, s.SelectCompany(ctx, co.ID))
	assert.Equal(t, co.ID, s.SelectedCompany())
}

func TestState_AddBusiness(t *testing.T) {
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fixedNow(t, ts)
	s, co := newTestState(t)

	b, err := s.Add(context.Background(), model.Business{
		CompanyID: co.ID,
		Name:      "Corner Cafe",
		Location:  pin(37.7882, -122.4324),
		Tags:      model.Tags{" coffee", "Coffee", "", "wifi"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.StatusOpen, b.Status, "empty status takes the first configured status")
	assert.Equal(t, model.Tags{"coffee", "wifi"}, b.Tags)
	assert.Equal(t, ts, b.LastModified)
	assert.Equal(t, 1, s.Count())

	got, ok := s.FindByID(b.ID)
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestState_AddBusiness_Validation(t *testing.T) {
	s, co := newTestState(t)
	ctx := context.Background()

	tests := []struct {
		name string
		b    model.Business
	}{
		{"blank name", model.Business{CompanyID: co.ID, Name: " "}},
		{"unknown status", model.Business{CompanyID: co.ID, Name: "x", Status: "archived"}},
		{"unknown company", model.Business{CompanyID: "nope", Name: "x"}},
		{"missing company", model.Business{Name: "x"}},
		{"non-finite location", model.Business{CompanyID: co.ID, Name: "x", Location: pin(1, math.Inf(1))}},
		{"cluster prefix id", model.Business{ID: "cluster:a,b", CompanyID: co.ID, Name: "x"}},
		{"separator in id", model.Business{ID: "a,b", CompanyID: co.ID, Name: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(ctx, tt.b)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidBusiness), "got %v", err)
		})
	}
	assert.Zero(t, s.Count())
}

func TestState_Update(t *testing.T) {
	s, co := newTestState(t)
	ctx := context.Background()
	b, err := s.Add(ctx, model.Business{CompanyID: co.ID, Name: "Shop", Location: pin(1, 1)})
	require.NoError(t, err)

	later := b.LastModified.Add(time.Hour)
	fixedNow(t, later)

	name := "Shop & Co"
	status := model.StatusClosed
	got, err := s.Update(ctx, b.ID, model.BusinessPatch{Name: &name, Status: &status, Location: pin(2, 2)})
	require.NoError(t, err)
	assert.Equal(t, "Shop & Co", got.Name)
	assert.Equal(t, model.StatusClosed, got.Status)
	assert.Equal(t, geo.Coordinate{Latitude: 2, Longitude: 2}, *got.Location)
	assert.Equal(t, later, got.LastModified)

	bad := model.Status("archived")
	_, err = s.Update(ctx, b.ID, model.BusinessPatch{Status: &bad})
	assert.True(t, eris.Is(err, ErrInvalidBusiness))
	stored, _ := s.FindByID(b.ID)
	assert.Equal(t, model.StatusClosed, stored.Status, "failed update leaves state unchanged")

	_, err = s.Update(ctx, "missing", model.BusinessPatch{Name: &name})
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestState_NotesAndActivity(t *testing.T) {
	ts := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)
	fixedNow(t, ts)
	s, co := newTestState(t)
	ctx := context.Background()
	b, err := s.Add(ctx, model.Business{CompanyID: co.ID, Name: "Shop"})
	require.NoError(t, err)

	got, err := s.AddNote(ctx, b.ID, "  owner asked to call back ")
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, model.Note{Text: "owner asked to call back", Timestamp: ts}, got.Notes[0])

	_, err = s.AddNote(ctx, b.ID, "   ")
	assert.True(t, eris.Is(err, ErrInvalidBusiness))

	got, err = s.AddActivity(ctx, b.ID, model.Activity{Type: "visit", Notes: "left flyer", User: "sam"})
	require.NoError(t, err)
	require.Len(t, got.History, 1)
	assert.Equal(t, ts, got.History[0].Date)
	assert.Equal(t, "visit", got.History[0].Type)

	_, err = s.AddActivity(ctx, b.ID, model.Activity{})
	assert.True(t, eris.Is(err, ErrInvalidBusiness))

	_, err = s.AddNote(ctx, "missing", "hi")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestState_ListByCompanyAndClone(t *testing.T) {
	s, co := newTestState(t)
	ctx := context.Background()
	other, err := s.AddCompany(ctx, model.Company{Name: "Other"})
	require.NoError(t, err)

	_, err = s.Add(ctx, model.Business{ID: "a", CompanyID: co.ID, Name: "A", Location: pin(1, 1)})
	require.NoError(t, err)
	_, err = s.Add(ctx, model.Business{ID: "b", CompanyID: other.ID, Name: "B"})
	require.NoError(t, err)
	_, err = s.Add(ctx, model.Business{ID: "c", CompanyID: co.ID, Name: "C"})
	require.NoError(t, err)

	mine := s.ListByCompany(co.ID)
	require.Len(t, mine, 2)
	assert.Equal(t, "a", mine[0].ID)
	assert.Equal(t, "c", mine[1].ID)

	mine[0].Location.Latitude = 99
	fresh, _ := s.FindByID("a")
	assert.Equal(t, 1.0, fresh.Location.Latitude, "callers cannot alias store records")

	assert.Len(t, s.List(), 3)
}

func TestState_RevisionBumpsOnMutation(t *testing.T) {
	s, co := newTestState(t)
	ctx := context.Background()
	r0 := s.Revision()

	b, err := s.Add(ctx, model.Business{CompanyID: co.ID, Name: "A"})
	require.NoError(t, err)
	r1 := s.Revision()
	assert.Greater(t, r1, r0)

	_, err = s.Add(ctx, model.Business{CompanyID: co.ID, Name: ""})
	require.Error(t, err)
	assert.Equal(t, r1, s.Revision(), "failed mutation keeps revision")

	require.NoError(t, s.Remove(ctx, b.ID))
	assert.Greater(t, s.Revision(), r1)
	assert.True(t, eris.Is(s.Remove(ctx, b.ID), ErrNotFound))
}
