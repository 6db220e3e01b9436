package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	// Registers the postgres driver with database/sql.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	experiment TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS params (
	run_id TEXT NOT NULL REFERENCES runs (id),
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (run_id, key)
);
CREATE TABLE IF NOT EXISTS metrics (
	run_id     TEXT NOT NULL REFERENCES runs (id),
	key        TEXT NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	logged_at  TIMESTAMPTZ NOT NULL
);`

// Postgres records runs in a postgres database.
type Postgres struct {
	db      *sqlx.DB
	Timeout time.Duration
}

// NewPostgres creates a tracker on top of an open database.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db, Timeout: 10 * time.Second}
}

// OpenPostgres connects to the database at dsn and creates the tracking tables if they are missing.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to tracking database")
	}
	p := NewPostgres(db)
	ctx, cancel := p.context()
	defer cancel()
	if err := p.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), p.Timeout)
}

// EnsureSchema creates the runs, params and metrics tables.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "creating tracking tables")
}

func (p *Postgres) CreateRun(experiment string) (string, error) {
	ctx, cancel := p.context()
	defer cancel()

	id := uuid.New().String()
	query := `INSERT INTO runs (id, experiment, created_at) VALUES ($1, $2, $3)`
	if _, err := p.db.ExecContext(ctx, query, id, experiment, time.Now()); err != nil {
		return "", errors.Wrap(err, "inserting run")
	}
	return id, nil
}

func (p *Postgres) LogParam(runID, key, value string) error {
	ctx, cancel := p.context()
	defer cancel()

	query := `
		INSERT INTO params (run_id, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (run_id, key) DO UPDATE SET value = EXCLUDED.value`
	_, err := p.db.ExecContext(ctx, query, runID, key, value)
	return errors.Wrap(err, "inserting param")
}

func (p *Postgres) LogMetric(runID, key string, value float64) error {
	ctx, cancel := p.context()
	defer cancel()

	query := `INSERT INTO metrics (run_id, key, value, logged_at) VALUES ($1, $2, $3, $4)`
	_, err := p.db.ExecContext(ctx, query, runID, key, value, time.Now())
	return errors.Wrap(err, "inserting metric")
}

// Metric is a metric as stored in the metrics table.
type Metric struct {
	RunID    string    `db:"run_id"`
	Key      string    `db:"key"`
	Value    float64   `db:"value"`
	LoggedAt time.Time `db:"logged_at"`
}

// Metrics reads back the metrics of a run, oldest first.
func (p *Postgres) Metrics(ctx context.Context, runID string) ([]Metric, error) {
	var m []Metric
	err := p.db.SelectContext(ctx, &m, `SELECT run_id, key, value, logged_at FROM metrics WHERE run_id = $1 ORDER BY logged_at`, runID)
	return m, errors.Wrap(err, "selecting metrics")
}

// Close closes the underlying database.
func (p *Postgres) Close() error {
	return p.db.Close()
}
