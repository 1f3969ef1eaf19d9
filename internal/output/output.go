package output

import (
	"time"

	"github.com/maxvaer/secprobe/internal/check"
)

// Summary holds the aggregate outcome written in the report footer.
type Summary struct {
	Target   string
	Passed   int
	Warned   int
	Failed   int
	Verdict  string // rendered readiness, e.g. "READY"
	Duration time.Duration
}

// Writer is implemented by each output format.
type Writer interface {
	WriteHeader() error
	WriteResult(result *check.Result) error
	WriteFooter(summary Summary) error
	Close() error
}
