// Package importer bulk-loads companies and businesses from seed files,
// spreadsheets and point shapefiles.
package importer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/canvass/internal/model"
	"github.com/sells-group/canvass/internal/store"
)

// Seed is a batch of records to load.
type Seed struct {
	Companies  []model.Company  `json:"companies" yaml:"companies"`
	Businesses []model.Business `json:"businesses" yaml:"businesses"`
}

// ReadFile picks a reader by file extension.
func ReadFile(path string) (Seed, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return ReadSeed(path)
	case ".xlsx":
		b, err := ReadXLSX(path)
		return Seed{Businesses: b}, err
	case ".shp":
		b, err := ReadShapefile(path)
		return Seed{Businesses: b}, err
	case ".zip":
		b, err := ReadShapefileZIP(path)
		return Seed{Businesses: b}, err
	default:
		return Seed{}, eris.Errorf("importer: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadFiles parses paths concurrently and returns seeds in path order.
func ReadFiles(ctx context.Context, paths []string) ([]Seed, error) {
	seeds := make([]Seed, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "importer: cancelled")
			}
			s, err := ReadFile(p)
			if err != nil {
				return eris.Wrapf(err, "importer: read %s", p)
			}
			seeds[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return seeds, nil
}

// Result counts what Load did.
type Result struct {
	Companies  int `json:"companies"`
	Businesses int `json:"businesses"`
	Skipped    int `json:"skipped"`
}

// Load inserts seed into st. Companies already present are left alone.
// Businesses without a company go to companyID, or to the selected company
// when companyID is empty. Invalid businesses are logged and skipped.
func Load(ctx context.Context, st *store.State, seed Seed, companyID string) (Result, error) {
	var res Result
	for _, c := range seed.Companies {
		if c.ID != "" {
			if _, ok := st.FindCompany(c.ID); ok {
				continue
			}
		}
		if _, err := st.AddCompany(ctx, c); err != nil {
			return res, eris.Wrapf(err, "importer: add company %q", c.Name)
		}
		res.Companies++
	}

	if companyID == "" {
		companyID = st.SelectedCompany()
	}
	for _, b := range seed.Businesses {
		if b.CompanyID == "" {
			b.CompanyID = companyID
		}
		if _, err := st.Add(ctx, b); err != nil {
			if eris.Is(err, store.ErrInvalidBusiness) {
				res.Skipped++
				zap.L().Warn("importer: skipping business",
					zap.String("business_id", b.ID),
					zap.String("name", b.Name),
					zap.Error(err),
				)
				continue
			}
			return res, eris.Wrapf(err, "importer: add business %q", b.Name)
		}
		res.Businesses++
	}
	return res, nil
}
