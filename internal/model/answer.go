package model

import (
	"encoding/json"
	"math"
	"sort"
)

// AnswerRecord is the respondent's answer to one question. A nil Severity
// means unanswered.
type AnswerRecord struct {
	Severity      *int `json:"severity"`
	NotApplicable bool `json:"not_applicable,omitempty"`
}

// Answered reports whether a severity has been recorded.
func (r AnswerRecord) Answered() bool {
	return r.Severity != nil
}

// Severity returns a record answered with the given severity.
func Severity(n int) AnswerRecord {
	return AnswerRecord{Severity: &n}
}

// NotApplicable returns a record marked not applicable. Severity 0 mirrors
// what the questionnaire stores when the respondent picks "N/A".
func NotApplicable() AnswerRecord {
	zero := 0
	return AnswerRecord{Severity: &zero, NotApplicable: true}
}

// maxDecodedSeverity bounds decoded severities well inside int range.
// Scoring applies the configured maximum on top of this.
const maxDecodedSeverity = math.MaxInt32

// UnmarshalJSON tolerates the legacy "na" key and malformed severities.
// Anything that is not a whole number in 0..maxDecodedSeverity decodes as
// unanswered.
func (r *AnswerRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		*r = AnswerRecord{}
		return nil
	}
	rec := AnswerRecord{}
	if f, ok := raw["severity"].(float64); ok && f >= 0 && f <= maxDecodedSeverity && f == math.Trunc(f) {
		n := int(f)
		rec.Severity = &n
	}
	for _, key := range []string{"not_applicable", "na", "notApplicable"} {
		if b, ok := raw[key].(bool); ok && b {
			rec.NotApplicable = true
		}
	}
	*r = rec
	return nil
}

// AnswerSet is an immutable snapshot of answers keyed by question id.
// Updates return a new snapshot; the receiver is never modified.
type AnswerSet struct {
	records map[string]AnswerRecord
}

// NewAnswerSet copies m into a new snapshot.
func NewAnswerSet(m map[string]AnswerRecord) AnswerSet {
	records := make(map[string]AnswerRecord, len(m))
	for id, rec := range m {
		records[id] = copyRecord(rec)
	}
	return AnswerSet{records: records}
}

// Get returns the record for a question and whether one exists.
func (s AnswerSet) Get(id string) (AnswerRecord, bool) {
	rec, ok := s.records[id]
	if !ok {
		return AnswerRecord{}, false
	}
	return copyRecord(rec), true
}

// With returns a new snapshot with id set to rec.
func (s AnswerSet) With(id string, rec AnswerRecord) AnswerSet {
	next := make(map[string]AnswerRecord, len(s.records)+1)
	for k, v := range s.records {
		next[k] = v
	}
	next[id] = copyRecord(rec)
	return AnswerSet{records: next}
}

// Without returns a new snapshot with id removed.
func (s AnswerSet) Without(id string) AnswerSet {
	next := make(map[string]AnswerRecord, len(s.records))
	for k, v := range s.records {
		if k != id {
			next[k] = v
		}
	}
	return AnswerSet{records: next}
}

// Len returns the number of records, answered or not.
func (s AnswerSet) Len() int {
	return len(s.records)
}

// IDs returns the question ids in sorted order.
func (s AnswerSet) IDs() []string {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Map returns a copy of the underlying records.
func (s AnswerSet) Map() map[string]AnswerRecord {
	out := make(map[string]AnswerRecord, len(s.records))
	for k, v := range s.records {
		out[k] = copyRecord(v)
	}
	return out
}

// MarshalJSON encodes the snapshot as a plain question id -> record object.
func (s AnswerSet) MarshalJSON() ([]byte, error) {
	if s.records == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.records)
}

// UnmarshalJSON decodes a question id -> record object. A non-object payload
// decodes as an empty set.
func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	var m map[string]AnswerRecord
	if err := json.Unmarshal(data, &m); err != nil {
		*s = NewAnswerSet(nil)
		return nil
	}
	*s = NewAnswerSet(m)
	return nil
}

func copyRecord(r AnswerRecord) AnswerRecord {
	if r.Severity != nil {
		n := *r.Severity
		r.Severity = &n
	}
	return r
}
