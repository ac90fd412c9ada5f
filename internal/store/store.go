// Package store holds the canvassing application state: companies,
// businesses and the selected company. State is in memory; an optional
// Repository receives every mutation before it is committed.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/canvass/internal/model"
)

// Sentinel errors. Match with eris.Is.
var (
	ErrNotFound        = eris.New("store: not found")
	ErrCompanyInUse    = eris.New("store: company has businesses")
	ErrInvalidBusiness = eris.New("store: invalid business")
	ErrInvalidCompany  = eris.New("store: invalid company")
)

// Repository persists state. Implementations must keep insertion order for
// companies and businesses.
type Repository interface {
	LoadCompanies(ctx context.Context) ([]model.Company, error)
	LoadBusinesses(ctx context.Context) ([]model.Business, error)
	LoadSelectedCompany(ctx context.Context) (string, error)

	SaveCompany(ctx context.Context, c model.Company) error
	DeleteCompany(ctx context.Context, id string) error
	SaveBusiness(ctx context.Context, b model.Business) error
	DeleteBusiness(ctx context.Context, id string) error
	SaveSelectedCompany(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
