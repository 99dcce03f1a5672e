// Package assessment maps assessments onto the document store and runs the
// eligibility and scoring engines over what is stored.
package assessment

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/readiness-cli/internal/config"
	"github.com/sells-group/readiness-cli/internal/eligibility"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/render"
	"github.com/sells-group/readiness-cli/internal/scorer"
	"github.com/sells-group/readiness-cli/internal/store"
)

// ErrUnknownQuestion is returned when an answer names a question the catalog
// does not contain.
var ErrUnknownQuestion = eris.New("assessment: unknown question")

// ErrInvalidSeverity is returned for severities outside 0..max.
var ErrInvalidSeverity = eris.New("assessment: invalid severity")

// Status says whether a report could be scored.
type Status string

const (
	StatusReady   Status = "ready"
	StatusPending Status = "pending"
)

// State is everything stored for one assessment.
type State struct {
	Assessment     model.Assessment      `json:"assessment"`
	Profile        *model.EntityProfile  `json:"company_profile,omitempty"`
	Answers        model.AnswerSet       `json:"questionnaire_answers"`
	Classification *model.Classification `json:"classification_result,omitempty"`
}

// Report is the outcome of scoring an assessment. A pending report lists the
// profile attributes that still block classification; it is not an error.
type Report struct {
	AssessmentID   string                      `json:"assessment_id"`
	Status         Status                      `json:"status"`
	Pending        []string                    `json:"pending,omitempty"`
	Classification *model.Classification       `json:"classification,omitempty"`
	Profile        *model.ApplicabilityProfile `json:"profile,omitempty"`
	Result         *model.ScoringResult        `json:"result,omitempty"`
}

// Service owns assessment persistence and snapshotting.
type Service struct {
	store   store.Store
	catalog *model.Catalog
	elig    config.EligibilityConfig
	engine  *scorer.Engine
	render  config.RenderConfig
	now     func() time.Time

	// answerLocks serialises answer read-modify-write per assessment id.
	answerLocks sync.Map
}

// New creates a Service.
func New(st store.Store, catalog *model.Catalog, cfg *config.Config) *Service {
	return &Service{
		store:   st,
		catalog: catalog,
		elig:    cfg.Eligibility,
		engine:  scorer.NewEngine(cfg.Scoring),
		render:  cfg.Render,
		now:     time.Now,
	}
}

// Catalog returns the catalog answers are validated and scored against.
func (s *Service) Catalog() *model.Catalog {
	return s.catalog
}

func (s *Service) Create(ctx context.Context, name string) (*model.Assessment, error) {
	a, err := s.store.CreateAssessment(ctx, name)
	if err != nil {
		return nil, err
	}
	zap.L().Info("assessment: created", zap.String("assessment_id", a.ID), zap.String("name", name))
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]model.Assessment, error) {
	return s.store.ListAssessments(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAssessment(ctx, id); err != nil {
		return err
	}
	s.answerLocks.Delete(id)
	zap.L().Info("assessment: deleted", zap.String("assessment_id", id))
	return nil
}

// Load reads every stored document. Missing documents are left nil/empty.
func (s *Service) Load(ctx context.Context, id string) (*State, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}
	st := &State{Assessment: *a, Answers: model.NewAnswerSet(nil)}

	var profile model.EntityProfile
	ok, err := s.getJSON(ctx, id, store.KeyCompanyProfile, &profile)
	if err != nil {
		return nil, err
	}
	if ok {
		st.Profile = &profile
	}

	if _, err := s.getJSON(ctx, id, store.KeyAnswers, &st.Answers); err != nil {
		return nil, err
	}

	var class model.Classification
	ok, err = s.getJSON(ctx, id, store.KeyClassification, &class)
	if err != nil {
		return nil, err
	}
	if ok {
		st.Classification = &class
	}
	return st, nil
}

// SaveProfile stores p and keeps the stored classification in step with it:
// re-derived when the profile is complete, removed when it no longer is.
func (s *Service) SaveProfile(ctx context.Context, id string, p model.EntityProfile) (eligibility.Evaluation, error) {
	if err := s.putJSON(ctx, id, store.KeyCompanyProfile, p); err != nil {
		return eligibility.Evaluation{}, err
	}

	eval := eligibility.Evaluate(p, s.elig)
	if !eval.Computable {
		if err := s.store.DeleteDocument(ctx, id, store.KeyClassification); err != nil {
			return eval, err
		}
		zap.L().Debug("assessment: classification pending",
			zap.String("assessment_id", id), zap.Strings("missing", eval.Missing))
		return eval, nil
	}
	if err := s.putJSON(ctx, id, store.KeyClassification, eval.Classification); err != nil {
		return eval, err
	}
	zap.L().Info("assessment: classified",
		zap.String("assessment_id", id),
		zap.Bool("in_scope", eval.Classification.InScope),
		zap.String("group", eval.Classification.Group.String()),
	)
	return eval, nil
}

// SetAnswer records one answer and returns the new snapshot.
func (s *Service) SetAnswer(ctx context.Context, id, questionID string, rec model.AnswerRecord) (model.AnswerSet, error) {
	if err := s.checkAnswer(questionID, rec); err != nil {
		return model.AnswerSet{}, err
	}
	unlock := s.lockAnswers(id)
	defer unlock()

	current, err := s.answers(ctx, id)
	if err != nil {
		return model.AnswerSet{}, err
	}
	next := current.With(questionID, rec)
	if err := s.putJSON(ctx, id, store.KeyAnswers, next); err != nil {
		return model.AnswerSet{}, err
	}
	return next, nil
}

// ClearAnswer removes one answer and returns the new snapshot.
func (s *Service) ClearAnswer(ctx context.Context, id, questionID string) (model.AnswerSet, error) {
	unlock := s.lockAnswers(id)
	defer unlock()

	current, err := s.answers(ctx, id)
	if err != nil {
		return model.AnswerSet{}, err
	}
	next := current.Without(questionID)
	if err := s.putJSON(ctx, id, store.KeyAnswers, next); err != nil {
		return model.AnswerSet{}, err
	}
	return next, nil
}

// SaveAnswers replaces the whole answer set after validating every record.
func (s *Service) SaveAnswers(ctx context.Context, id string, answers model.AnswerSet) error {
	for _, qid := range answers.IDs() {
		rec, _ := answers.Get(qid)
		if err := s.checkAnswer(qid, rec); err != nil {
			return err
		}
	}
	unlock := s.lockAnswers(id)
	defer unlock()
	return s.putJSON(ctx, id, store.KeyAnswers, answers)
}

// Clear removes every stored document but keeps the assessment.
func (s *Service) Clear(ctx context.Context, id string) error {
	if _, err := s.store.GetAssessment(ctx, id); err != nil {
		return err
	}
	for _, key := range store.Keys {
		if err := s.store.DeleteDocument(ctx, id, key); err != nil {
			return err
		}
	}
	zap.L().Info("assessment: cleared", zap.String("assessment_id", id))
	return nil
}

// Score evaluates the stored profile and answers. The classification is
// re-derived from the profile when one is stored; a stored classification
// without a profile is used as is.
func (s *Service) Score(ctx context.Context, id string) (*Report, error) {
	st, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.score(st), nil
}

func (s *Service) score(st *State) *Report {
	rep := &Report{AssessmentID: st.Assessment.ID}

	class := st.Classification
	switch {
	case st.Profile != nil:
		eval := eligibility.Evaluate(*st.Profile, s.elig)
		if !eval.Computable {
			rep.Status = StatusPending
			rep.Pending = eval.Missing
			return rep
		}
		class = eval.Classification
	case class == nil:
		rep.Status = StatusPending
		rep.Pending = []string{store.KeyCompanyProfile}
		return rep
	}

	profile := class.Profile()
	rep.Status = StatusReady
	rep.Classification = class
	rep.Profile = &profile
	rep.Result = s.engine.Score(st.Answers, profile, s.catalog)
	return rep
}

// Snapshot scores an assessment and stores the result as a score snapshot.
// Pending assessments are skipped and return a nil snapshot.
func (s *Service) Snapshot(ctx context.Context, id string) (*store.ScoreSnapshot, error) {
	rep, err := s.Score(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.Status != StatusReady {
		return nil, nil
	}
	raw, err := json.Marshal(rep.Result)
	if err != nil {
		return nil, eris.Wrap(err, "assessment: marshal result")
	}
	snap := &store.ScoreSnapshot{
		AssessmentID: id,
		TotalScore:   rep.Result.TotalScore,
		Readiness:    string(rep.Result.Readiness),
		Progress:     rep.Result.Progress,
		GapCount:     len(rep.Result.Gaps),
		Result:       raw,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.SaveScoreSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// History lists stored snapshots, newest first.
func (s *Service) History(ctx context.Context, id string, limit int) ([]store.ScoreSnapshot, error) {
	if _, err := s.store.GetAssessment(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListScoreSnapshots(ctx, id, limit)
}

// BatchSummary reports the outcome of a batch re-score.
type BatchSummary struct {
	Total   int `json:"total"`
	Scored  int `json:"scored"`
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
}

// Rescore snapshots every assessment with at most concurrency in flight.
// A failing assessment is logged and counted; it does not stop the batch.
func (s *Service) Rescore(ctx context.Context, concurrency int) (BatchSummary, error) {
	list, err := s.store.ListAssessments(ctx)
	if err != nil {
		return BatchSummary{}, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	type outcome int
	const (
		scored outcome = iota
		pending
		failed
	)
	outcomes := make([]outcome, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, a := range list {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			snap, err := s.Snapshot(gctx, a.ID)
			switch {
			case err != nil:
				zap.L().Warn("assessment: rescore failed", zap.String("assessment_id", a.ID), zap.Error(err))
				outcomes[i] = failed
			case snap == nil:
				outcomes[i] = pending
			default:
				outcomes[i] = scored
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchSummary{}, eris.Wrap(err, "assessment: rescore")
	}

	sum := BatchSummary{Total: len(list)}
	for _, o := range outcomes {
		switch o {
		case scored:
			sum.Scored++
		case pending:
			sum.Pending++
		case failed:
			sum.Failed++
		}
	}
	zap.L().Info("assessment: rescore complete",
		zap.Int("total", sum.Total),
		zap.Int("scored", sum.Scored),
		zap.Int("pending", sum.Pending),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}

// Bundle assembles the report bundle for the requested sections. A pending
// assessment still renders; unscored parts show the placeholder.
func (s *Service) Bundle(ctx context.Context, id string, sections []string) (*render.Bundle, error) {
	st, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	rep := s.score(st)

	class := rep.Classification
	if class == nil {
		class = st.Classification
	}
	return render.NewBundle(render.Input{
		Title:          s.render.Title,
		Placeholder:    s.render.Placeholder,
		Sections:       sections,
		Company:        st.Profile,
		Classification: class,
		Answers:        st.Answers,
		Result:         rep.Result,
		Catalog:        s.catalog,
	}, s.now())
}

// lockAnswers holds the answer lock for id until the returned func runs.
// It only covers writers within this process.
func (s *Service) lockAnswers(id string) func() {
	v, _ := s.answerLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Service) checkAnswer(questionID string, rec model.AnswerRecord) error {
	if s.catalog != nil {
		if _, ok := s.catalog.Question(questionID); !ok {
			return eris.Wrapf(ErrUnknownQuestion, "%s", questionID)
		}
	}
	if rec.Severity != nil {
		if maxSev := s.engine.Config().MaxSeverity; *rec.Severity < 0 || *rec.Severity > maxSev {
			return eris.Wrapf(ErrInvalidSeverity, "%s: %d not in 0..%d", questionID, *rec.Severity, maxSev)
		}
	}
	return nil
}

func (s *Service) answers(ctx context.Context, id string) (model.AnswerSet, error) {
	if _, err := s.store.GetAssessment(ctx, id); err != nil {
		return model.AnswerSet{}, err
	}
	set := model.NewAnswerSet(nil)
	if _, err := s.getJSON(ctx, id, store.KeyAnswers, &set); err != nil {
		return model.AnswerSet{}, err
	}
	return set, nil
}

func (s *Service) getJSON(ctx context.Context, id, key string, v any) (bool, error) {
	data, err := s.store.GetDocument(ctx, id, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, eris.Wrapf(err, "assessment: decode %s", key)
	}
	return true, nil
}

func (s *Service) putJSON(ctx context.Context, id, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "assessment: encode %s", key)
	}
	return s.store.PutDocument(ctx, id, key, data)
}
