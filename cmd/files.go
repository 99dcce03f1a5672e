package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/readiness-cli/internal/model"
)

// decodeFile reads a YAML or JSON document into v. Documents are normalised
// through JSON so the model's JSON decoders (answer records, entity groups)
// apply to both formats.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	return decodeDocument(data, v)
}

func decodeDocument(data []byte, v any) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "decode document")
	}
	if raw == nil {
		return eris.New("decode document: empty")
	}
	jsonDoc, err := json.Marshal(raw)
	if err != nil {
		return eris.Wrap(err, "normalise document")
	}
	if err := json.Unmarshal(jsonDoc, v); err != nil {
		return eris.Wrap(err, "decode document")
	}
	return nil
}

func readProfile(path string) (model.EntityProfile, error) {
	var p model.EntityProfile
	err := decodeFile(path, &p)
	return p, err
}

func readAnswers(path string) (model.AnswerSet, error) {
	var a model.AnswerSet
	if path == "" {
		return a, nil
	}
	err := decodeFile(path, &a)
	return a, err
}

func readClassification(path string) (*model.Classification, error) {
	var c model.Classification
	if err := decodeFile(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// createOutput opens path for writing, or returns stdout when path is "" or "-".
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create %s", path)
	}
	return f, f.Close, nil
}
