package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/model"
)

// Logical document names stored per assessment.
const (
	KeyCompanyProfile = "company_profile"
	KeyAnswers        = "questionnaire_answers"
	KeyClassification = "classification_result"
)

// Keys lists every document name the store accepts.
var Keys = []string{KeyCompanyProfile, KeyAnswers, KeyClassification}

// ErrNotFound is returned when an assessment does not exist.
var ErrNotFound = eris.New("store: not found")

// ValidKey reports whether key is a known document name.
func ValidKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// ScoreSnapshot is a point-in-time copy of a scoring pass, kept so readiness
// can be tracked across batch runs.
type ScoreSnapshot struct {
	ID           string          `json:"id"`
	AssessmentID string          `json:"assessment_id"`
	TotalScore   int             `json:"total_score"`
	Readiness    string          `json:"readiness"`
	Progress     int             `json:"progress"`
	GapCount     int             `json:"gap_count"`
	Result       json.RawMessage `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Store persists assessments and their documents.
type Store interface {
	CreateAssessment(ctx context.Context, name string) (*model.Assessment, error)
	// GetAssessment returns ErrNotFound when id is unknown.
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context) ([]model.Assessment, error)
	DeleteAssessment(ctx context.Context, id string) error

	PutDocument(ctx context.Context, assessmentID, key string, data []byte) error
	// GetDocument returns nil data and no error when nothing is stored.
	GetDocument(ctx context.Context, assessmentID, key string) ([]byte, error)
	DeleteDocument(ctx context.Context, assessmentID, key string) error

	SaveScoreSnapshot(ctx context.Context, snap *ScoreSnapshot) error
	ListScoreSnapshots(ctx context.Context, assessmentID string, limit int) ([]ScoreSnapshot, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Driver and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		st, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func checkKey(key string) error {
	if !ValidKey(key) {
		return eris.Errorf("store: unknown document key %q", key)
	}
	return nil
}

func notFound(entity, id string) error {
	return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
}
