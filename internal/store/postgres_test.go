package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS assessments`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateAssessment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO assessments`).
		WithArgs(pgxmock.AnyArg(), "Acme", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	a, err := s.CreateAssessment(context.Background(), "Acme")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Acme", a.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAssessment(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, created_at, updated_at FROM assessments WHERE id = \$1`).
		WithArgs("a-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("a-1", "Acme", now, now))

	a, err := s.GetAssessment(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", a.Name)
	assert.Equal(t, now, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAssessment_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, created_at, updated_at FROM assessments WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAssessment(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAssessments(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, name, created_at, updated_at FROM assessments ORDER BY`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
			AddRow("a-2", "Second", now, now).
			AddRow("a-1", "First", now, now))

	list, err := s.ListAssessments(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-2", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteAssessment(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		notFound bool
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, notFound: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockPostgresStore(t)
			mock.ExpectExec(`DELETE FROM assessments WHERE id = \$1`).
				WithArgs("a-1").
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := s.DeleteAssessment(context.Background(), "a-1")
			if tt.notFound {
				assert.True(t, eris.Is(err, ErrNotFound))
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_PutDocument(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	data := []byte(`{"G1":{"severity":1}}`)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assessments SET updated_at = \$1 WHERE id = \$2`).
		WithArgs(pgxmock.AnyArg(), "a-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO assessment_documents`).
		WithArgs("a-1", KeyAnswers, data, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.PutDocument(context.Background(), "a-1", KeyAnswers, data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutDocument_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE assessments SET updated_at`).
		WithArgs(pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.PutDocument(context.Background(), "missing", KeyCompanyProfile, []byte(`{}`))
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutDocument_UnknownKey(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	err := s.PutDocument(context.Background(), "a-1", "notes", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown document key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDocument(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM assessment_documents`).
		WithArgs("a-1", KeyClassification).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"in_scope":true}`)))

	data, err := s.GetDocument(context.Background(), "a-1", KeyClassification)
	require.NoError(t, err)
	assert.JSONEq(t, `{"in_scope":true}`, string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDocument_Absent(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM assessment_documents`).
		WithArgs("a-1", KeyAnswers).
		WillReturnError(pgx.ErrNoRows)

	data, err := s.GetDocument(context.Background(), "a-1", KeyAnswers)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDocument_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT data FROM assessment_documents`).
		WithArgs("a-1", KeyAnswers).
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetDocument(context.Background(), "a-1", KeyAnswers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get document")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteDocument(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM assessment_documents WHERE assessment_id = \$1 AND key = \$2`).
		WithArgs("a-1", KeyClassification).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.DeleteDocument(context.Background(), "a-1", KeyClassification))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ScoreSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO score_snapshots`).
		WithArgs(pgxmock.AnyArg(), "a-1", 24, "Moderate", 80, 3, []byte(`{}`), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	snap := &ScoreSnapshot{AssessmentID: "a-1", TotalScore: 24, Readiness: "Moderate", Progress: 80, GapCount: 3, Result: []byte(`{}`), CreatedAt: now}
	require.NoError(t, s.SaveScoreSnapshot(context.Background(), snap))
	assert.NotEmpty(t, snap.ID)

	mock.ExpectQuery(`SELECT id, assessment_id, total_score, readiness, progress, gap_count, result, created_at\s+FROM score_snapshots`).
		WithArgs("a-1", 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "assessment_id", "total_score", "readiness", "progress", "gap_count", "result", "created_at"}).
			AddRow(snap.ID, "a-1", 24, "Moderate", 80, 3, []byte(`{}`), now))

	snaps, err := s.ListScoreSnapshots(context.Background(), "a-1", 5)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, snap.ID, snaps[0].ID)
	assert.Equal(t, 80, snaps[0].Progress)
	assert.NoError(t, mock.ExpectationsWereMet())
}
