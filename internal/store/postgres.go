package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/canvass/internal/model"
)

// pgPool is the subset of pgxpool.Pool used by PostgresRepository.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresRepository implements Repository using pgxpool and PostGIS.
type PostgresRepository struct {
	pool pgPool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresRepository with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresRepository, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresRepository{pool: pool}, nil
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS companies (
	id          TEXT PRIMARY KEY,
	seq         BIGSERIAL,
	name        TEXT NOT NULL,
	color       TEXT NOT NULL,
	custom_icon TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS businesses (
	id            TEXT PRIMARY KEY,
	seq           BIGSERIAL,
	company_id    TEXT NOT NULL,
	status        TEXT NOT NULL,
	geom          geometry(Point, 4326),
	data          JSONB NOT NULL,
	last_modified TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_businesses_company ON businesses(company_id);
CREATE INDEX IF NOT EXISTS idx_businesses_geom ON businesses USING GIST (geom);
`

// Migrate creates the schema.
func (s *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the pool.
func (s *PostgresRepository) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresRepository) LoadCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, color, custom_icon FROM companies ORDER BY seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		var c model.Company
		var icon string
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &icon); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		c.CustomIcon = model.Icon(icon)
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresRepository) LoadBusinesses(ctx context.Context) ([]model.Business, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, ST_AsEWKB(geom), data FROM businesses ORDER BY seq`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list businesses")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		var id string
		var wkb, data []byte
		if err := rows.Scan(&id, &wkb, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan business")
		}
		b, err := decodeBusiness(id, wkb, data)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: decode business")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list businesses iterate")
}

func (s *PostgresRepository) LoadSelectedCompany(ctx context.Context) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM settings WHERE key = $1`, selectedCompanyKey,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, eris.Wrap(err, "postgres: get selected company")
}

func (s *PostgresRepository) SaveCompany(ctx context.Context, c model.Company) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, name, color, custom_icon) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, color = EXCLUDED.color, custom_icon = EXCLUDED.custom_icon`,
		c.ID, c.Name, c.Color, string(c.CustomIcon),
	)
	return eris.Wrapf(err, "postgres: upsert company %s", c.ID)
}

func (s *PostgresRepository) DeleteCompany(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete company %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	return nil
}

func (s *PostgresRepository) SaveBusiness(ctx context.Context, b model.Business) error {
	wkb, data, err := encodeBusiness(b)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO businesses (id, company_id, status, geom, data, last_modified)
		 VALUES ($1, $2, $3, ST_GeomFromEWKB($4), $5, $6)
		 ON CONFLICT (id) DO UPDATE SET company_id = EXCLUDED.company_id, status = EXCLUDED.status,
		 geom = EXCLUDED.geom, data = EXCLUDED.data, last_modified = EXCLUDED.last_modified`,
		b.ID, b.CompanyID, string(b.Status), wkb, data, b.LastModified,
	)
	return eris.Wrapf(err, "postgres: upsert business %s", b.ID)
}

func (s *PostgresRepository) DeleteBusiness(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete business %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "business %s", id)
	}
	return nil
}

func (s *PostgresRepository) SaveSelectedCompany(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		selectedCompanyKey, id,
	)
	return eris.Wrap(err, "postgres: set selected company")
}
