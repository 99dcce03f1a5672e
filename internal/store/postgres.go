package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
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
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assessment_documents (
	assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
	key           TEXT NOT NULL,
	data          JSONB NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (assessment_id, key)
);

CREATE TABLE IF NOT EXISTS score_snapshots (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
	total_score   INTEGER NOT NULL,
	readiness     TEXT NOT NULL,
	progress      INTEGER NOT NULL,
	gap_count     INTEGER NOT NULL,
	result        JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_score_snapshots_assessment ON score_snapshots(assessment_id, created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateAssessment(ctx context.Context, name string) (*model.Assessment, error) {
	now := time.Now().UTC()
	a := &model.Assessment{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assessments (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.Name, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create assessment")
	}
	return a, nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM assessments WHERE id = $1`, id)
	a, err := scanAssessment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("assessment", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get assessment")
	}
	return a, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context) ([]model.Assessment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM assessments ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list assessments")
}

// DeleteAssessment relies on ON DELETE CASCADE for documents and snapshots.
func (s *PostgresStore) DeleteAssessment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	if err != nil {
		return eris.Wrap(err, "postgres: delete assessment")
	}
	if tag.RowsAffected() == 0 {
		return notFound("assessment", id)
	}
	return nil
}

func (s *PostgresStore) PutDocument(ctx context.Context, assessmentID, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin put document")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `UPDATE assessments SET updated_at = $1 WHERE id = $2`, now, assessmentID)
	if err != nil {
		return eris.Wrap(err, "postgres: touch assessment")
	}
	if tag.RowsAffected() == 0 {
		return notFound("assessment", assessmentID)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO assessment_documents (assessment_id, key, data, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (assessment_id, key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		assessmentID, key, data, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: put document %s", key)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit put document")
}

func (s *PostgresStore) GetDocument(ctx context.Context, assessmentID, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM assessment_documents WHERE assessment_id = $1 AND key = $2`,
		assessmentID, key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get document %s", key)
	}
	return data, nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, assessmentID, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM assessment_documents WHERE assessment_id = $1 AND key = $2`, assessmentID, key)
	return eris.Wrapf(err, "postgres: delete document %s", key)
}

func (s *PostgresStore) SaveScoreSnapshot(ctx context.Context, snap *ScoreSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	var result []byte
	if len(snap.Result) > 0 {
		result = snap.Result
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO score_snapshots (id, assessment_id, total_score, readiness, progress, gap_count, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snap.ID, snap.AssessmentID, snap.TotalScore, snap.Readiness, snap.Progress, snap.GapCount, result, snap.CreatedAt,
	)
	return eris.Wrap(err, "postgres: save score snapshot")
}

// ListScoreSnapshots returns the newest snapshots first. limit <= 0 means all.
func (s *PostgresStore) ListScoreSnapshots(ctx context.Context, assessmentID string, limit int) ([]ScoreSnapshot, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, assessment_id, total_score, readiness, progress, gap_count, result, created_at
		 FROM score_snapshots WHERE assessment_id = $1 ORDER BY created_at DESC LIMIT $2`,
		assessmentID, limitArg,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list score snapshots")
	}
	defer rows.Close()

	var out []ScoreSnapshot
	for rows.Next() {
		var snap ScoreSnapshot
		var result []byte
		if err := rows.Scan(&snap.ID, &snap.AssessmentID, &snap.TotalScore, &snap.Readiness,
			&snap.Progress, &snap.GapCount, &result, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score snapshot")
		}
		if len(result) > 0 {
			snap.Result = result
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list score snapshots")
}
