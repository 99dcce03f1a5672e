// Package registry loads the questionnaire catalog from YAML or JSON
// documents, the embedded default, or a Notion database.
package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/readiness-cli/internal/model"
)

//go:embed data/aasb_s2.yaml
var defaultCatalog []byte

//go:embed data/catalog.schema.json
var catalogSchema string

// generalSection holds questions that name no section.
const generalSection = "General"

// document is the on-disk catalog layout: a flat question list plus metadata
// describing section order.
type document struct {
	Questionnaire []model.Question `json:"questionnaire"`
	Metadata      docMetadata      `json:"metadata"`
}

type docMetadata struct {
	Title       string       `json:"title"`
	Version     any          `json:"version,omitempty"`
	Description string       `json:"description,omitempty"`
	Sections    []docSection `json:"sections,omitempty"`
	Scoring     struct {
		Levels []model.ScaleLevel `json:"levels,omitempty"`
	} `json:"scoring"`
	Urgency struct {
		Levels []model.LevelNote `json:"levels,omitempty"`
	} `json:"urgency"`
}

type docSection struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// FieldError is a single schema violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every schema violation found in a catalog document.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("registry: catalog validation failed:")
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// Parse decodes a YAML or JSON catalog document. The document shape is
// checked against the embedded schema; question-level consistency (dangling
// skip references, unknown conditions) is left to the scorer's defaults.
func Parse(data []byte) (*model.Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "registry: decode catalog")
	}
	if raw == nil {
		return nil, eris.New("registry: empty catalog document")
	}

	// Round-trip through JSON so YAML and JSON inputs share one decoder.
	jsonDoc, err := json.Marshal(raw)
	if err != nil {
		return nil, eris.Wrap(err, "registry: normalise catalog")
	}
	if err := validate(jsonDoc); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(jsonDoc, &doc); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal catalog")
	}
	return build(&doc), nil
}

func validate(jsonDoc []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return eris.Wrap(err, "registry: load catalog schema")
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

// build groups questions into sections. Metadata order comes first, then
// sections that only appear on questions, in first-appearance order.
func build(doc *document) *model.Catalog {
	cat := &model.Catalog{
		Title:         doc.Metadata.Title,
		Version:       versionString(doc.Metadata.Version),
		Description:   strings.TrimSpace(doc.Metadata.Description),
		ScoringLevels: doc.Metadata.Scoring.Levels,
		UrgencyLevels: doc.Metadata.Urgency.Levels,
	}

	index := map[string]int{}
	for _, s := range doc.Metadata.Sections {
		id := s.ID
		if id == "" {
			id = model.SectionID(s.Title)
		}
		if _, dup := index[s.Title]; dup {
			continue
		}
		index[s.Title] = len(cat.Sections)
		if _, taken := index[id]; !taken {
			index[id] = len(cat.Sections)
		}
		cat.Sections = append(cat.Sections, model.Section{ID: id, Title: s.Title, Description: s.Description})
	}

	for _, q := range doc.Questionnaire {
		name := strings.TrimSpace(q.Section)
		if name == "" {
			name = generalSection
			q.Section = generalSection
		}
		i, ok := index[name]
		if !ok {
			i = len(cat.Sections)
			index[name] = i
			cat.Sections = append(cat.Sections, model.Section{ID: model.SectionID(name), Title: name})
		}
		cat.Sections[i].Questions = append(cat.Sections[i].Questions, q)
	}

	return cat
}

func versionString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// Encode writes cat in the document layout Parse accepts. format is "json"
// or "yaml".
func Encode(cat *model.Catalog, format string) ([]byte, error) {
	doc := document{Questionnaire: cat.Questions()}
	doc.Metadata.Title = cat.Title
	if cat.Version != "" {
		doc.Metadata.Version = cat.Version
	}
	doc.Metadata.Description = cat.Description
	doc.Metadata.Scoring.Levels = cat.ScoringLevels
	doc.Metadata.Urgency.Levels = cat.UrgencyLevels
	for _, s := range cat.Sections {
		doc.Metadata.Sections = append(doc.Metadata.Sections, docSection{ID: s.ID, Title: s.Title, Description: s.Description})
	}
	if doc.Questionnaire == nil {
		doc.Questionnaire = []model.Question{}
	}
	for i := range doc.Questionnaire {
		if doc.Questionnaire[i].Answers == nil {
			doc.Questionnaire[i].Answers = []model.AnswerChoice{}
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "registry: encode catalog")
	}
	switch format {
	case "json":
		return data, nil
	case "yaml", "":
		// Go through a generic value so yaml keys follow the json tags.
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrap(err, "registry: encode catalog")
		}
		out, err := yaml.Marshal(raw)
		if err != nil {
			return nil, eris.Wrap(err, "registry: encode catalog yaml")
		}
		return out, nil
	default:
		return nil, eris.Errorf("registry: unsupported catalog format %q", format)
	}
}

// Load reads and parses a catalog file.
func Load(path string) (*model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read catalog %s", path)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: parse catalog %s", path)
	}
	return cat, nil
}

var loadDefault = sync.OnceValues(func() (*model.Catalog, error) {
	return Parse(defaultCatalog)
})

// Default returns the embedded AASB S2 catalog. The returned catalog is
// shared and must not be modified.
func Default() *model.Catalog {
	cat, err := loadDefault()
	if err != nil {
		// The embedded document is covered by tests; failing here is a build defect.
		panic(err)
	}
	return cat
}

// DefaultSource returns the raw embedded catalog document.
func DefaultSource() []byte {
	return bytes.Clone(defaultCatalog)
}
