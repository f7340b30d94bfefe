package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danmuck/fsdctl/internal/config"
	"github.com/danmuck/fsdctl/internal/fsd"
	"github.com/danmuck/fsdctl/internal/fsd/container"
	"github.com/danmuck/fsdctl/internal/fsd/schema"
	logs "github.com/danmuck/fsdctl/internal/logging"
	"github.com/danmuck/fsdctl/internal/observability"
	"github.com/danmuck/fsdctl/internal/resindex"
	"github.com/danmuck/fsdctl/internal/sqlitedump"
)

const (
	DecoderFSD    = "fsd"
	DecoderSQLite = "sqlite"
)

// Index resolves resource paths to index entries.
type Index interface {
	Lookup(resPath string) (resindex.Entry, error)
}

// BlobStore reads the bytes of an index entry.
type BlobStore interface {
	Read(e resindex.Entry) ([]byte, error)
}

// Result reports one job. Err is nil on success.
type Result struct {
	Job        Job
	Decoder    string
	OutputPath string
	BytesIn    int
	BytesOut   int
	Duration   time.Duration
	Err        error
}

// Runner executes jobs with at most Workers running at once. Jobs share no
// mutable state; each owns its blob, schema and output.
type Runner struct {
	Index            Index
	Store            BlobStore
	Schemas          schema.Source
	OutputDir        string
	Workers          int
	Indent           int
	Options          fsd.Options
	Limits           container.Limits
	KeepIntermediate bool
}

// NewRunner loads the resource index named by cfg and wires the default
// schema chain: the file's own textual schema, then <schema_dir> sidecars.
func NewRunner(cfg config.Config) (*Runner, error) {
	if cfg.IndexFile == "" || cfg.ResFilesPath == "" {
		return nil, fmt.Errorf("%w: game_path or index_file/resfiles_path required", config.ErrInvalidConfig)
	}
	idx, err := resindex.Load(cfg.IndexFile)
	if err != nil {
		return nil, err
	}
	return &Runner{
		Index:            idx,
		Store:            resindex.Store{Root: cfg.ResFilesPath},
		Schemas:          schema.ChainSource{schema.EmbeddedSource{}, schema.SidecarSource{Dir: cfg.SchemaDir}},
		OutputDir:        cfg.OutputDir,
		Workers:          cfg.Workers,
		Indent:           cfg.Indent,
		Options:          cfg.DecodeOptions(),
		Limits:           container.DefaultLimits(),
		KeepIntermediate: cfg.KeepIntermediate,
	}, nil
}

// Run executes every job and returns their results in job order. A failed
// job does not stop the others; the returned error joins all job errors.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("extract: create output dir: %w", err)
	}
	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(max(1, r.Workers))
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = r.RunJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Job.Name, res.Err))
		}
	}
	return results, errors.Join(errs...)
}

// RunJob executes one job and records its metrics.
func (r *Runner) RunJob(ctx context.Context, job Job) Result {
	start := time.Now()
	res := Result{Job: job, OutputPath: job.outputPath(r.OutputDir)}
	res.Err = r.runJob(ctx, job, &res)
	res.Duration = time.Since(start)

	observability.RecordJob(observability.JobOutcome{
		Resource: job.Name,
		Decoder:  res.Decoder,
		BytesIn:  res.BytesIn,
		BytesOut: res.BytesOut,
		Duration: res.Duration,
		Err:      res.Err,
	})
	if res.Err != nil {
		logs.Errf("extract job=%s resource=%s failed: %v", job.Name, job.Resource, res.Err)
	} else {
		logs.Infof("extract job=%s decoder=%s in=%d out=%d path=%s took=%s",
			job.Name, res.Decoder, res.BytesIn, res.BytesOut, res.OutputPath, res.Duration.Round(time.Millisecond))
	}
	return res
}

func (r *Runner) runJob(ctx context.Context, job Job, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry, err := r.Index.Lookup(job.Resource)
	if err != nil {
		return err
	}
	blob, err := r.Store.Read(entry)
	if err != nil {
		return err
	}
	res.BytesIn = len(blob)

	if r.KeepIntermediate {
		raw := filepath.Join(r.OutputDir, job.Name+filepath.Ext(job.Resource))
		if err := writeAtomic(raw, blob); err != nil {
			return fmt.Errorf("write intermediate: %w", err)
		}
	}

	var value fsd.Value
	if sqlitedump.IsSQLite(blob) {
		res.Decoder = DecoderSQLite
		value, err = sqlitedump.DumpBytes(ctx, blob)
	} else {
		res.Decoder = DecoderFSD
		value, err = container.Decode(blob, job.schemaName(), r.Schemas, r.Limits, r.Options)
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var out bytes.Buffer
	if err := fsd.Encode(&out, value, job.Format, r.Indent); err != nil {
		return err
	}
	res.BytesOut = out.Len()
	return writeAtomic(res.OutputPath, out.Bytes())
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
