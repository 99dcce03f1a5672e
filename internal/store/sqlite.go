package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/readiness-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS assessment_documents (
	assessment_id TEXT NOT NULL REFERENCES assessments(id),
	key           TEXT NOT NULL,
	data          TEXT NOT NULL,
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (assessment_id, key)
);

CREATE TABLE IF NOT EXISTS score_snapshots (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL REFERENCES assessments(id),
	total_score   INTEGER NOT NULL,
	readiness     TEXT NOT NULL,
	progress      INTEGER NOT NULL,
	gap_count     INTEGER NOT NULL,
	result        TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_score_snapshots_assessment ON score_snapshots(assessment_id, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAssessment(ctx context.Context, name string) (*model.Assessment, error) {
	now := time.Now().UTC()
	a := &model.Assessment{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: create assessment")
	}
	return a, nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM assessments WHERE id = ?`, id)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("assessment", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get assessment")
	}
	return a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context) ([]model.Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM assessments ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assessments")
}

// DeleteAssessment removes the assessment with its documents and snapshots.
func (s *SQLiteStore) DeleteAssessment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete assessment")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		`DELETE FROM assessment_documents WHERE assessment_id = ?`,
		`DELETE FROM score_snapshots WHERE assessment_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return eris.Wrap(err, "sqlite: delete assessment children")
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "sqlite: delete assessment")
	}
	if err := checkRowsAffected(res, "assessment", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete assessment")
}

// PutDocument upserts a document and bumps the assessment's updated_at.
func (s *SQLiteStore) PutDocument(ctx context.Context, assessmentID, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin put document")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE assessments SET updated_at = ? WHERE id = ?`, now, assessmentID)
	if err != nil {
		return eris.Wrap(err, "sqlite: touch assessment")
	}
	if err := checkRowsAffected(res, "assessment", assessmentID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO assessment_documents (assessment_id, key, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (assessment_id, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		assessmentID, key, string(data), now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: put document %s", key)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit put document")
}

func (s *SQLiteStore) GetDocument(ctx context.Context, assessmentID, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM assessment_documents WHERE assessment_id = ? AND key = ?`,
		assessmentID, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document %s", key)
	}
	return []byte(data), nil
}

// DeleteDocument is a no-op when the document is absent.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, assessmentID, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM assessment_documents WHERE assessment_id = ? AND key = ?`, assessmentID, key)
	return eris.Wrapf(err, "sqlite: delete document %s", key)
}

func (s *SQLiteStore) SaveScoreSnapshot(ctx context.Context, snap *ScoreSnapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	var result any
	if len(snap.Result) > 0 {
		result = string(snap.Result)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO score_snapshots (id, assessment_id, total_score, readiness, progress, gap_count, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.AssessmentID, snap.TotalScore, snap.Readiness, snap.Progress, snap.GapCount, result, snap.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: save score snapshot")
}

// ListScoreSnapshots returns the newest snapshots first. limit <= 0 means all.
func (s *SQLiteStore) ListScoreSnapshots(ctx context.Context, assessmentID string, limit int) ([]ScoreSnapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, assessment_id, total_score, readiness, progress, gap_count, result, created_at
		 FROM score_snapshots WHERE assessment_id = ? ORDER BY created_at DESC LIMIT ?`,
		assessmentID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list score snapshots")
	}
	defer rows.Close() //nolint:errcheck

	var out []ScoreSnapshot
	for rows.Next() {
		var (
			snap   ScoreSnapshot
			result sql.NullString
		)
		if err := rows.Scan(&snap.ID, &snap.AssessmentID, &snap.TotalScore, &snap.Readiness,
			&snap.Progress, &snap.GapCount, &result, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score snapshot")
		}
		if result.Valid {
			snap.Result = []byte(result.String)
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list score snapshots")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAssessment(row scannable) (*model.Assessment, error) {
	var a model.Assessment
	if err := row.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
