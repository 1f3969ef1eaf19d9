package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maxvaer/secprobe/internal/check"
)

func sampleResults() []check.Result {
	return []check.Result{
		{Probe: "root reachable", Group: "connectivity", Verdict: check.Passed(), StatusCode: 200, Duration: 12 * time.Millisecond},
		{Probe: "burst rate limit", Group: "rate-limit", Verdict: check.Warnf("no 429 after 10 requests"), StatusCode: 200},
		{Probe: "x-frame-options", Group: "headers", Verdict: check.Failf("X-Frame-Options missing"), StatusCode: 200},
	}
}

func sampleSummary() Summary {
	return Summary{
		Target:   "http://example.com",
		Passed:   1,
		Warned:   1,
		Failed:   1,
		Verdict:  "DEGRADED",
		Duration: 480 * time.Millisecond,
	}
}

func writeAll(t *testing.T, w Writer) {
	t.Helper()
	if err := w.WriteHeader(); err != nil {
		t.Fatal(err)
	}
	for _, res := range sampleResults() {
		if err := w.WriteResult(&res); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.WriteFooter(sampleSummary()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestTextWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	w, err := NewTextWriter(path, false, false)
	if err != nil {
		t.Fatal(err)
	}
	writeAll(t, w)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	for _, want := range []string{"PASS", "WARN", "FAIL", "x-frame-options", "no 429 after 10 requests", "Verdict: DEGRADED"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	// Escape codes never belong in a file.
	if strings.Contains(out, "\033[") {
		t.Error("unexpected ANSI escape codes in file output")
	}
}

func TestTextWriterQuiet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	w, err := NewTextWriter(path, true, true)
	if err != nil {
		t.Fatal(err)
	}
	writeAll(t, w)

	data, _ := os.ReadFile(path)
	out := string(data)
	if strings.Contains(out, "Status") || strings.Contains(out, "Verdict:") {
		t.Errorf("quiet output should omit header and footer:\n%s", out)
	}
	if !strings.Contains(out, "FAIL") {
		t.Error("quiet output should still carry result lines")
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	writeAll(t, w)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Target  string `json:"target"`
		Results []struct {
			Probe   string `json:"probe"`
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"results"`
		Summary struct {
			Failed  int    `json:"failed"`
			Verdict string `json:"verdict"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if doc.Target != "http://example.com" {
		t.Errorf("target = %q", doc.Target)
	}
	if len(doc.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(doc.Results))
	}
	if doc.Results[2].Status != "FAIL" || doc.Results[2].Probe != "x-frame-options" {
		t.Errorf("third result = %+v", doc.Results[2])
	}
	if doc.Summary.Failed != 1 || doc.Summary.Verdict != "DEGRADED" {
		t.Errorf("summary = %+v", doc.Summary)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	writeAll(t, w)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 { // header + 3 results
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[0][0] != "probe" || rows[0][2] != "status" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[3][2] != "FAIL" || rows[3][3] != "X-Frame-Options missing" {
		t.Errorf("fail row = %v", rows[3])
	}
}
