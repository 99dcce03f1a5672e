package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/assessment"
	"github.com/sells-group/readiness-cli/internal/registry"
	"github.com/sells-group/readiness-cli/internal/store"
)

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// writeErr maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without its message.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs validator.ValidationErrors
		cerr  *registry.ValidationError
		mbe   *http.MaxBytesError
	)
	switch {
	case eris.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, "invalid request body")
	case eris.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case eris.Is(err, assessment.ErrUnknownQuestion), eris.Is(err, assessment.ErrInvalidSeverity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &verrs):
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, strings.ToLower(fe.Field())+": failed "+fe.Tag())
		}
		writeError(w, http.StatusBadRequest, "invalid request", details...)
	case errors.As(err, &cerr):
		details := make([]string, 0, len(cerr.Errors))
		for _, fe := range cerr.Errors {
			details = append(details, fe.Field+": "+fe.Message)
		}
		writeError(w, http.StatusBadRequest, "invalid catalog", details...)
	case errors.As(err, &mbe):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		zap.L().Error("server: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body into v and validates struct tags.
func (s *Server) decode(r *http.Request, v any) error {
	if err := readBody(r, v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

// readBody decodes the JSON body into v. An oversized body keeps its
// *http.MaxBytesError so writeErr reports 413.
func readBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return errBadBody
	}
	return nil
}

var errBadBody = eris.New("invalid request body")
