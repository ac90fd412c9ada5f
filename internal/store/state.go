package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/model"
)

var now = func() time.Time { return time.Now().UTC() }

// State is the application state store. It is safe for concurrent use.
type State struct {
	mu         sync.RWMutex
	statuses   *model.StatusSet
	repo       Repository
	companies  []model.Company
	businesses []model.Business
	selected   string
	revision   uint64
}

// Option configures a State.
type Option func(*State)

// WithRepository writes every mutation through repo.
func WithRepository(repo Repository) Option {
	return func(s *State) {
		s.repo = repo
	}
}

// New creates an empty State. A nil statuses uses the defaults.
func New(statuses *model.StatusSet, opts ...Option) *State {
	if statuses == nil {
		statuses = model.DefaultStatuses()
	}
	s := &State{statuses: statuses}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a State backed by repo and loads its contents.
func Open(ctx context.Context, statuses *model.StatusSet, repo Repository) (*State, error) {
	s := New(statuses, WithRepository(repo))

	companies, err := repo.LoadCompanies(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "store: load companies")
	}
	businesses, err := repo.LoadBusinesses(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "store: load businesses")
	}
	selected, err := repo.LoadSelectedCompany(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "store: load selected company")
	}

	s.companies = companies
	s.businesses = businesses
	if s.companyIndex(selected) >= 0 {
		s.selected = selected
	} else if len(companies) > 0 {
		s.selected = companies[0].ID
	}

	zap.L().Info("store: loaded state",
		zap.Int("companies", len(companies)),
		zap.Int("businesses", len(businesses)),
		zap.String("selected_company", s.selected),
	)
	return s, nil
}

// Statuses returns the configured status set.
func (s *State) Statuses() *model.StatusSet { return s.statuses }

// Revision increases on every mutation.
func (s *State) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// --- Companies ---

// Companies returns all companies in insertion order.
func (s *State) Companies() []model.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.companies)
}

// FindCompany returns the company with id.
func (s *State) FindCompany(id string) (model.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.companyIndex(id)
	if i < 0 {
		return model.Company{}, false
	}
	return s.companies[i], true
}

// AddCompany inserts c, assigning an id when empty and the default color when
// unset. The first company added becomes the selected company.
func (s *State) AddCompany(ctx context.Context, c model.Company) (model.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return model.Company{}, eris.Wrap(ErrInvalidCompany, "name is required")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Color == "" {
		c.Color = model.DefaultCompanyColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.companyIndex(c.ID) >= 0 {
		return model.Company{}, eris.Wrapf(ErrInvalidCompany, "duplicate id %s", c.ID)
	}
	if s.repo != nil {
		if err := s.repo.SaveCompany(ctx, c); err != nil {
			return model.Company{}, eris.Wrap(err, "store: save company")
		}
	}
	if s.selected == "" {
		if err := s.setSelected(ctx, c.ID); err != nil {
			return model.Company{}, err
		}
	}
	s.companies = append(s.companies, c)
	s.revision++
	return c, nil
}

// RemoveCompany deletes the company with id. It fails with ErrCompanyInUse
// while any business references it. Removing the selected company moves the
// selection to the first remaining company.
func (s *State) RemoveCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.companyIndex(id)
	if i < 0 {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	for _, b := range s.businesses {
		if b.CompanyID == id {
			return eris.Wrapf(ErrCompanyInUse, "company %s", id)
		}
	}

	if s.repo != nil {
		if err := s.repo.DeleteCompany(ctx, id); err != nil {
			return eris.Wrap(err, "store: delete company")
		}
	}
	s.companies = slices.Delete(s.companies, i, i+1)
	if s.selected == id {
		next := ""
		if len(s.companies) > 0 {
			next = s.companies[0].ID
		}
		if err := s.setSelected(ctx, next); err != nil {
			return err
		}
	}
	s.revision++
	return nil
}

// SelectedCompany returns the selected company id, or "".
func (s *State) SelectedCompany() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SelectCompany changes the selected company. An empty id clears it.
func (s *State) SelectCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.companyIndex(id) < 0 {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err := s.setSelected(ctx, id); err != nil {
		return err
	}
	s.revision++
	return nil
}

func (s *State) setSelected(ctx context.Context, id string) error {
	if s.repo != nil {
		if err := s.repo.SaveSelectedCompany(ctx, id); err != nil {
			return eris.Wrap(err, "store: save selected company")
		}
	}
	s.selected = id
	return nil
}

func (s *State) companyIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.companies, func(c model.Company) bool { return c.ID == id })
}

// --- Businesses ---

// List returns every business in insertion order.
func (s *State) List() []model.Business {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Business, len(s.businesses))
	for i, b := range s.businesses {
		out[i] = b.Clone()
	}
	return out
}

// ListByCompany returns the businesses of companyID in insertion order.
func (s *State) ListByCompany(companyID string) []model.Business {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Business
	for _, b := range s.businesses {
		if b.CompanyID == companyID {
			out = append(out, b.Clone())
		}
	}
	return out
}

// Count returns the number of businesses across all companies.
func (s *State) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.businesses)
}

// FindByID returns the business with id.
func (s *State) FindByID(id string) (model.Business, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.businessIndex(id)
	if i < 0 {
		return model.Business{}, false
	}
	return s.businesses[i].Clone(), true
}

// Add validates and inserts b. An empty id is generated, an empty status
// takes the first configured status, and lastModified is set.
func (s *State) Add(ctx context.Context, b model.Business) (model.Business, error) {
	b = b.Clone()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = s.statuses.Default()
	}
	b.Tags = model.NormalizeTags(b.Tags)
	b.LastModified = now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.businessIndex(b.ID) >= 0 {
		return model.Business{}, eris.Wrapf(ErrInvalidBusiness, "duplicate id %s", b.ID)
	}
	if model.ReservedID(b.ID) {
		return model.Business{}, eris.Wrapf(ErrInvalidBusiness, "reserved id %q", b.ID)
	}
	if err := s.validate(b); err != nil {
		return model.Business{}, err
	}
	if s.repo != nil {
		if err := s.repo.SaveBusiness(ctx, b); err != nil {
			return model.Business{}, eris.Wrap(err, "store: save business")
		}
	}
	s.businesses = append(s.businesses, b)
	s.revision++
	return b.Clone(), nil
}

// Update applies patch to the business with id.
func (s *State) Update(ctx context.Context, id string, patch model.BusinessPatch) (model.Business, error) {
	return s.mutate(ctx, id, func(b model.Business) (model.Business, error) {
		return patch.Apply(b), nil
	})
}

// AddNote appends a timestamped note. Blank text is rejected.
func (s *State) AddNote(ctx context.Context, id, text string) (model.Business, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Business{}, eris.Wrap(ErrInvalidBusiness, "note text is required")
	}
	return s.mutate(ctx, id, func(b model.Business) (model.Business, error) {
		b.Notes = append(b.Notes, model.Note{Text: text, Timestamp: now()})
		return b, nil
	})
}

// AddActivity appends a history entry, dating it now when Date is zero.
func (s *State) AddActivity(ctx context.Context, id string, a model.Activity) (model.Business, error) {
	a.Type = strings.TrimSpace(a.Type)
	if a.Type == "" {
		return model.Business{}, eris.Wrap(ErrInvalidBusiness, "activity type is required")
	}
	if a.Date.IsZero() {
		a.Date = now()
	}
	return s.mutate(ctx, id, func(b model.Business) (model.Business, error) {
		b.History = append(b.History, a)
		return b, nil
	})
}

// Remove deletes the business with id.
func (s *State) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.businessIndex(id)
	if i < 0 {
		return eris.Wrapf(ErrNotFound, "business %s", id)
	}
	if s.repo != nil {
		if err := s.repo.DeleteBusiness(ctx, id); err != nil {
			return eris.Wrap(err, "store: delete business")
		}
	}
	s.businesses = slices.Delete(s.businesses, i, i+1)
	s.revision++
	return nil
}

func (s *State) mutate(ctx context.Context, id string, fn func(model.Business) (model.Business, error)) (model.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.businessIndex(id)
	if i < 0 {
		return model.Business{}, eris.Wrapf(ErrNotFound, "business %s", id)
	}
	next, err := fn(s.businesses[i].Clone())
	if err != nil {
		return model.Business{}, err
	}
	next.ID = id
	next.LastModified = now()
	if err := s.validate(next); err != nil {
		return model.Business{}, err
	}
	if s.repo != nil {
		if err := s.repo.SaveBusiness(ctx, next); err != nil {
			return model.Business{}, eris.Wrap(err, "store: save business")
		}
	}
	s.businesses[i] = next
	s.revision++
	return next.Clone(), nil
}

func (s *State) validate(b model.Business) error {
	if strings.TrimSpace(b.Name) == "" {
		return eris.Wrap(ErrInvalidBusiness, "name is required")
	}
	if !s.statuses.Has(b.Status) {
		return eris.Wrapf(ErrInvalidBusiness, "unknown status %q", b.Status)
	}
	if s.companyIndex(b.CompanyID) < 0 {
		return eris.Wrapf(ErrInvalidBusiness, "unknown company %q", b.CompanyID)
	}
	if b.Location != nil && !b.Location.Valid() {
		return eris.Wrap(ErrInvalidBusiness, "location must be finite")
	}
	return nil
}

func (s *State) businessIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.businesses, func(b model.Business) bool { return b.ID == id })
}
