package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danmuck/fsdctl/internal/config"
	"github.com/danmuck/fsdctl/internal/fsd"
)

// Job extracts one indexed resource to one output file.
type Job struct {
	Name     string
	Resource string
	// Schema names the descriptor for FSD payloads; empty means Name.
	Schema string
	// Output is relative to the runner output directory unless absolute.
	Output string
	Format fsd.Format
}

func (j Job) schemaName() string {
	if j.Schema != "" {
		return j.Schema
	}
	return j.Name
}

func (j Job) outputPath(dir string) string {
	out := j.Output
	if out == "" {
		out = j.Name + "." + string(j.Format)
	}
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(dir, out)
}

// JobsFromConfig plans jobs for the configured resources. With names only
// those resources are planned, in the order given.
func JobsFromConfig(cfg config.Config, names ...string) ([]Job, error) {
	byName := make(map[string]config.Resource, len(cfg.Resources))
	for _, r := range cfg.Resources {
		byName[r.Name] = r
	}
	selected := cfg.Resources
	if len(names) > 0 {
		selected = make([]config.Resource, 0, len(names))
		for _, name := range names {
			r, ok := byName[strings.TrimSpace(name)]
			if !ok {
				return nil, fmt.Errorf("extract: unknown resource %q", name)
			}
			selected = append(selected, r)
		}
	}
	jobs := make([]Job, 0, len(selected))
	for _, r := range selected {
		format := cfg.OutputFormat()
		if r.Format != "" {
			f, err := fsd.ParseFormat(r.Format)
			if err != nil {
				return nil, err
			}
			format = f
		}
		jobs = append(jobs, Job{
			Name:     r.Name,
			Resource: r.Resource,
			Schema:   r.Schema,
			Output:   r.Output,
			Format:   format,
		})
	}
	return jobs, nil
}
