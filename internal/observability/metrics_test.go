package observability

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danmuck/fsdctl/internal/fsd"
	"github.com/danmuck/fsdctl/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordJob(JobOutcome{Resource: "types", Decoder: "fsd", BytesIn: 128, BytesOut: 512, Duration: 12 * time.Millisecond})
	RecordJob(JobOutcome{Resource: "types", Decoder: "fsd", Duration: time.Millisecond,
		Err: fmt.Errorf("wrapped: %w", fsd.ErrCorruptData)})

	if got := testutil.ToFloat64(extractJobs.WithLabelValues("types", "fsd", "ok")); got < 1 {
		t.Fatalf("ok jobs = %v", got)
	}
	if got := testutil.ToFloat64(decodeErrors.WithLabelValues("corrupt_data")); got < 1 {
		t.Fatalf("corrupt_data errors = %v", got)
	}
}

func TestErrorKind(t *testing.T) {
	if got := ErrorKind(fsd.ErrUnsupportedSchema); got != "unsupported_schema" {
		t.Fatalf("ErrorKind = %s", got)
	}
	if got := ErrorKind(errors.New("disk full")); got != "other" {
		t.Fatalf("ErrorKind = %s", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	testlog.Start(t)
	RecordJob(JobOutcome{Resource: "blueprints", Decoder: "sqlite", Duration: time.Millisecond})
	path := filepath.Join(t.TempDir(), "fsdctl.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(raw), `fsdctl_extract_jobs_total{decoder="sqlite",resource="blueprints",status="ok"}`) {
		t.Fatalf("textfile missing job counter:\n%s", raw)
	}
}
