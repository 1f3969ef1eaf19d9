package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/maxvaer/secprobe/internal/check"
)

// CSVWriter writes results in CSV format.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
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
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"probe", "group", "status", "message", "status_code", "duration_ms"})
}

func (c *CSVWriter) WriteResult(result *check.Result) error {
	return c.w.Write([]string{
		result.Probe,
		result.Group,
		result.Verdict.Status.String(),
		result.Verdict.Message,
		fmt.Sprintf("%d", result.StatusCode),
		fmt.Sprintf("%d", result.Duration.Milliseconds()),
	})
}

func (c *CSVWriter) WriteFooter(_ Summary) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}
