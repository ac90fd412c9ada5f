package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/canvass/internal/geo"
	"github.com/sells-group/canvass/internal/model"
)

const selectedCompanyKey = "selected_company"

// SQLiteRepository implements Repository using modernc.org/sqlite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteRepository{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id          TEXT PRIMARY KEY,
	seq         INTEGER NOT NULL,
	name        TEXT NOT NULL,
	color       TEXT NOT NULL,
	custom_icon TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS businesses (
	id            TEXT PRIMARY KEY,
	seq           INTEGER NOT NULL,
	company_id    TEXT NOT NULL,
	status        TEXT NOT NULL,
	geom          BLOB,
	data          TEXT NOT NULL,
	last_modified DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_businesses_company ON businesses(company_id);
CREATE INDEX IF NOT EXISTS idx_businesses_seq ON businesses(seq);
CREATE INDEX IF NOT EXISTS idx_companies_seq ON companies(seq);
`

// Migrate creates the schema.
func (s *SQLiteRepository) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}

func (s *SQLiteRepository) LoadCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, custom_icon FROM companies ORDER BY seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Company
	for rows.Next() {
		var c model.Company
		var icon string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &icon); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		c.CustomIcon = model.Icon(icon)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteRepository) LoadBusinesses(ctx context.Context) ([]model.Business, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, geom, data FROM businesses ORDER BY seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Business
	for rows.Next() {
		var id, data string
		var wkb []byte
		if err := rows.Scan(&id, &wkb, &data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan business")
		}
		b, err := decodeBusiness(id, wkb, []byte(data))
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: decode business")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list businesses iterate")
}

func (s *SQLiteRepository) LoadSelectedCompany(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, selectedCompanyKey,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, eris.Wrap(err, "sqlite: get selected company")
}

func (s *SQLiteRepository) SaveCompany(ctx context.Context, c model.Company) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, seq, name, color, custom_icon)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM companies), ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, color = excluded.color, custom_icon = excluded.custom_icon`,
		c.ID, c.Name, c.Color, string(c.CustomIcon),
	)
	return eris.Wrapf(err, "sqlite: upsert company %s", c.ID)
}

func (s *SQLiteRepository) DeleteCompany(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete company %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

func (s *SQLiteRepository) SaveBusiness(ctx context.Context, b model.Business) error {
	wkb, data, err := encodeBusiness(b)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO businesses (id, seq, company_id, status, geom, data, last_modified)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM businesses), ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET company_id = excluded.company_id, status = excluded.status,
		 geom = excluded.geom, data = excluded.data, last_modified = excluded.last_modified`,
		b.ID, b.CompanyID, string(b.Status), wkb, string(data), b.LastModified,
	)
	return eris.Wrapf(err, "sqlite: upsert business %s", b.ID)
}

func (s *SQLiteRepository) DeleteBusiness(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete business %s", id)
	}
	return checkRowsAffected(res, "business", id)
}

func (s *SQLiteRepository) SaveSelectedCompany(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		selectedCompanyKey, id,
	)
	return eris.Wrap(err, "sqlite: set selected company")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

// encodeBusiness splits b into a point geometry and a JSON document. A nil
// location encodes as a nil geometry.
func encodeBusiness(b model.Business) ([]byte, []byte, error) {
	var wkb []byte
	if c, ok := b.Coordinate(); ok {
		var err error
		wkb, err = geo.EncodePoint(c)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "store: encode location %s", b.ID)
		}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "store: marshal business %s", b.ID)
	}
	return wkb, data, nil
}

// decodeBusiness rebuilds a business. The geometry column wins over the
// location stored in the document.
func decodeBusiness(id string, wkb, data []byte) (model.Business, error) {
	var b model.Business
	if err := json.Unmarshal(data, &b); err != nil {
		return model.Business{}, eris.Wrapf(err, "store: unmarshal business %s", id)
	}
	b.ID = id
	if len(wkb) > 0 {
		c, err := geo.DecodePoint(wkb)
		if err != nil {
			return model.Business{}, eris.Wrapf(err, "store: decode location %s", id)
		}
		b.Location = &c
	}
	return b, nil
}
