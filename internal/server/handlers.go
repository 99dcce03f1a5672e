package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/assessment"
	"github.com/sells-group/readiness-cli/internal/eligibility"
	"github.com/sells-group/readiness-cli/internal/export"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/registry"
	"github.com/sells-group/readiness-cli/internal/render"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "ok"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Catalog())
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var p model.EntityProfile
	if err := s.decode(r, &p); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibility.Evaluate(p, s.cfg.Eligibility))
}

type scoreRequest struct {
	Answers        model.AnswerSet       `json:"answers"`
	Profile        *model.EntityProfile  `json:"profile,omitempty"`
	Classification *model.Classification `json:"classification,omitempty"`
	// Catalog optionally replaces the configured catalog for this request.
	Catalog json.RawMessage `json:"catalog,omitempty"`
}

// handleScore scores an inline payload without touching the store.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	cat := s.svc.Catalog()
	if len(req.Catalog) > 0 && string(req.Catalog) != "null" {
		parsed, err := registry.Parse(req.Catalog)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		cat = parsed
	}

	rep := &assessment.Report{}
	class := req.Classification
	if req.Profile != nil {
		eval := eligibility.Evaluate(*req.Profile, s.cfg.Eligibility)
		if !eval.Computable {
			rep.Status = assessment.StatusPending
			rep.Pending = eval.Missing
			writeJSON(w, http.StatusOK, rep)
			return
		}
		class = eval.Classification
	}
	if class == nil {
		writeError(w, http.StatusBadRequest, "profile or classification required")
		return
	}

	profile := class.Profile()
	rep.Status = assessment.StatusReady
	rep.Classification = class
	rep.Profile = &profile
	rep.Result = s.engine.Score(req.Answers, profile, cat)
	writeJSON(w, http.StatusOK, rep)
}

type createAssessmentRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if err := s.decode(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	a, err := s.svc.Create(r.Context(), req.Name)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if list == nil {
		list = []model.Assessment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p model.EntityProfile
	if err := s.decode(r, &p); err != nil {
		writeErr(w, r, err)
		return
	}
	eval, err := s.svc.SaveProfile(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}

func (s *Server) handlePutAnswer(w http.ResponseWriter, r *http.Request) {
	var rec model.AnswerRecord
	if err := readBody(r, &rec); err != nil {
		writeErr(w, r, err)
		return
	}
	answers, err := s.svc.SetAnswer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "questionID"), rec)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (s *Server) handleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	answers, err := s.svc.ClearAnswer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "questionID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

func (s *Server) handleAssessmentScore(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Score(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	snaps, err := s.svc.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if snaps == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleExportGaps streams the gap register as CSV (default) or XLSX.
func (s *Server) handleExportGaps(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	rep, err := s.svc.Score(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if rep.Status != assessment.StatusReady {
		writeJSON(w, http.StatusConflict, rep)
		return
	}

	filename := fmt.Sprintf("AASB_S2_Gap_Register_%s.%s", time.Now().Format("2006-01-02"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = export.WriteXLSX(w, rep.Result)
	default:
		w.Header().Set("Content-Type", "text/csv")
		err = export.WriteCSV(w, rep.Result)
	}
	if err != nil {
		zap.L().Error("server: export gaps", zap.String("assessment_id", id), zap.Error(err))
	}
}

// exportPDFRequest accepts either a stored assessment or inline data.
// Sections must be present; an empty list selects every section.
type exportPDFRequest struct {
	Sections       []string              `json:"sections" validate:"required,dive,oneof=company-profile responses gaps-analysis"`
	AssessmentID   string                `json:"assessment_id,omitempty"`
	Company        *model.EntityProfile  `json:"company,omitempty"`
	Classification *model.Classification `json:"classification,omitempty"`
	Answers        model.AnswerSet       `json:"answers"`
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	var req exportPDFRequest
	if err := readBody(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}
	if req.Sections == nil {
		writeError(w, http.StatusBadRequest, "sections required")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeErr(w, r, err)
		return
	}
	if s.pdf == nil {
		writeError(w, http.StatusServiceUnavailable, "pdf rendering unavailable")
		return
	}

	bundle, err := s.bundleFor(r, &req)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	pdf, err := s.pdf.PDF(r.Context(), bundle)
	if err != nil {
		zap.L().Error("server: pdf export", zap.String("report_id", bundle.ReportID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="AASB_S2_Readiness_Report.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf) //nolint:errcheck
}

func (s *Server) bundleFor(r *http.Request, req *exportPDFRequest) (*render.Bundle, error) {
	if req.AssessmentID != "" {
		return s.svc.Bundle(r.Context(), req.AssessmentID, req.Sections)
	}

	class := req.Classification
	if req.Company != nil {
		if eval := eligibility.Evaluate(*req.Company, s.cfg.Eligibility); eval.Computable {
			class = eval.Classification
		}
	}
	var result *model.ScoringResult
	if class != nil {
		result = s.engine.Score(req.Answers, class.Profile(), s.svc.Catalog())
	}
	return render.NewBundle(render.Input{
		Title:          s.cfg.Render.Title,
		Placeholder:    s.cfg.Render.Placeholder,
		Sections:       req.Sections,
		Company:        req.Company,
		Classification: class,
		Answers:        req.Answers,
		Result:         result,
		Catalog:        s.svc.Catalog(),
	}, time.Now())
}
