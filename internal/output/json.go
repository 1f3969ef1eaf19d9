package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/maxvaer/secprobe/internal/check"
)

type jsonEntry struct {
	Probe      string `json:"probe"`
	Group      string `json:"group"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type jsonSummary struct {
	Passed     int    `json:"passed"`
	Warned     int    `json:"warned"`
	Failed     int    `json:"failed"`
	Verdict    string `json:"verdict"`
	DurationMS int64  `json:"duration_ms"`
}

type jsonDocument struct {
	Target  string      `json:"target"`
	Results []jsonEntry `json:"results"`
	Summary jsonSummary `json:"summary"`
}

// JSONWriter accumulates results and writes one document in the footer,
// so consumers always get the summary alongside the results.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []jsonEntry
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
	}
	return &JSONWriter{w: w, closer: closer, entries: []jsonEntry{}}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteResult(result *check.Result) error {
	j.entries = append(j.entries, jsonEntry{
		Probe:      result.Probe,
		Group:      result.Group,
		Status:     result.Verdict.Status.String(),
		Message:    result.Verdict.Message,
		StatusCode: result.StatusCode,
		DurationMS: result.Duration.Milliseconds(),
	})
	return nil
}

func (j *JSONWriter) WriteFooter(summary Summary) error {
	doc := jsonDocument{
		Target:  summary.Target,
		Results: j.entries,
		Summary: jsonSummary{
			Passed:     summary.Passed,
			Warned:     summary.Warned,
			Failed:     summary.Failed,
			Verdict:    summary.Verdict,
			DurationMS: summary.Duration.Milliseconds(),
		},
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (j *JSONWriter) Close() error {
	if j.closer == nil {
		return nil
	}
	err := j.closer.Close()
	j.closer = nil
	return err
}
