// Package config loads and validates fsdctl configuration files.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	pelletier "github.com/pelletier/go-toml/v2"

	"github.com/danmuck/fsdctl/internal/catalog"
	"github.com/danmuck/fsdctl/internal/fsd"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Resource is one resource to extract.
type Resource struct {
	Name     string `toml:"name"`
	Resource string `toml:"resource"`
	Schema   string `toml:"schema,omitempty"`
	Output   string `toml:"output,omitempty"`
	Format   string `toml:"format,omitempty"`
}

type Config struct {
	GamePath         string         `toml:"game_path"`
	ResFilesPath     string         `toml:"resfiles_path"`
	IndexFile        string         `toml:"index_file"`
	OutputDir        string         `toml:"output_dir"`
	SchemaDir        string         `toml:"schema_dir"`
	Format           string         `toml:"format"`
	Indent           int            `toml:"indent"`
	Workers          int            `toml:"workers"`
	KeepIntermediate bool           `toml:"keep_intermediate"`
	MaxDepth         int            `toml:"max_depth"`
	MaxCount         int            `toml:"max_count"`
	MetricsFile      string         `toml:"metrics_file"`
	Resources        []Resource     `toml:"resources"`
	Categories       []catalog.Rule `toml:"categories"`
}

func Default() Config {
	opts := fsd.DefaultOptions()
	return Config{
		OutputDir:  "extracted_data",
		SchemaDir:  "schemas",
		Format:     string(fsd.FormatJSON),
		Indent:     2,
		Workers:    4,
		MaxDepth:   opts.MaxDepth,
		MaxCount:   opts.MaxCount,
		Resources:  DefaultResources(),
		Categories: catalog.DefaultRules(),
	}
}

func DefaultResources() []Resource {
	return []Resource{
		{Name: "types", Resource: "res:/staticdata/types.fsdbinary"},
		{Name: "blueprints", Resource: "res:/staticdata/blueprints.static"},
		{Name: "solarsystemcontent", Resource: "res:/staticdata/solarsystemcontent.static"},
	}
}

// Load decodes path over Default, resolves derived paths and validates.
func Load(path string) (Config, error) {
	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	cfg := Resolve(apply(Default(), raw, meta))
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over Default without touching the filesystem.
func Parse(data string) (Config, error) {
	var raw Config
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	cfg := Resolve(apply(Default(), raw, meta))
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func apply(cfg Config, raw Config, meta toml.MetaData) Config {
	if meta.IsDefined("game_path") {
		cfg.GamePath = strings.TrimSpace(raw.GamePath)
	}
	if meta.IsDefined("resfiles_path") {
		cfg.ResFilesPath = strings.TrimSpace(raw.ResFilesPath)
	}
	if meta.IsDefined("index_file") {
		cfg.IndexFile = strings.TrimSpace(raw.IndexFile)
	}
	if meta.IsDefined("output_dir") {
		cfg.OutputDir = strings.TrimSpace(raw.OutputDir)
	}
	if meta.IsDefined("schema_dir") {
		cfg.SchemaDir = strings.TrimSpace(raw.SchemaDir)
	}
	if meta.IsDefined("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(raw.Format))
	}
	if meta.IsDefined("indent") {
		cfg.Indent = raw.Indent
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("keep_intermediate") {
		cfg.KeepIntermediate = raw.KeepIntermediate
	}
	if meta.IsDefined("max_depth") {
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("max_count") {
		cfg.MaxCount = raw.MaxCount
	}
	if meta.IsDefined("metrics_file") {
		cfg.MetricsFile = strings.TrimSpace(raw.MetricsFile)
	}
	if meta.IsDefined("resources") {
		cfg.Resources = normalizeResources(raw.Resources)
	}
	if meta.IsDefined("categories") {
		cfg.Categories = raw.Categories
	}
	return cfg
}

func normalizeResources(in []Resource) []Resource {
	out := make([]Resource, 0, len(in))
	for _, r := range in {
		out = append(out, Resource{
			Name:     strings.TrimSpace(r.Name),
			Resource: strings.TrimSpace(r.Resource),
			Schema:   strings.TrimSpace(r.Schema),
			Output:   strings.TrimSpace(r.Output),
			Format:   strings.ToLower(strings.TrimSpace(r.Format)),
		})
	}
	return out
}

// Resolve fills paths derived from game_path: ResFiles next to the game
// directory and resfileindex.txt inside it.
func Resolve(cfg Config) Config {
	if cfg.GamePath != "" {
		if cfg.ResFilesPath == "" {
			cfg.ResFilesPath = filepath.Join(filepath.Dir(filepath.Clean(cfg.GamePath)), "ResFiles")
		}
		if cfg.IndexFile == "" {
			cfg.IndexFile = filepath.Join(cfg.GamePath, "resfileindex.txt")
		}
	}
	return cfg
}

func Validate(cfg Config) error {
	if _, err := fsd.ParseFormat(cfg.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Indent < 0 || cfg.Indent > 8 {
		return fmt.Errorf("%w: indent %d outside 0..8", ErrInvalidConfig, cfg.Indent)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	if cfg.MaxDepth < 1 || cfg.MaxCount < 1 {
		return fmt.Errorf("%w: max_depth and max_count must be positive", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalidConfig)
	}
	seen := map[string]struct{}{}
	for i, r := range cfg.Resources {
		if r.Name == "" {
			return fmt.Errorf("%w: resources[%d] missing name", ErrInvalidConfig, i)
		}
		if r.Resource == "" {
			return fmt.Errorf("%w: resources[%d] (%s) missing resource", ErrInvalidConfig, i, r.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: duplicate resource name %q", ErrInvalidConfig, r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.Format != "" {
			if _, err := fsd.ParseFormat(r.Format); err != nil {
				return fmt.Errorf("%w: resources[%d]: %v", ErrInvalidConfig, i, err)
			}
		}
	}
	for i, rule := range cfg.Categories {
		if strings.TrimSpace(rule.Category) == "" || strings.TrimSpace(rule.Expr) == "" {
			return fmt.Errorf("%w: categories[%d] needs name and rule", ErrInvalidConfig, i)
		}
	}
	return nil
}

// DecodeOptions returns the decoder limits of cfg.
func (c Config) DecodeOptions() fsd.Options {
	return fsd.Options{MaxDepth: c.MaxDepth, MaxCount: c.MaxCount}
}

// OutputFormat is the default output format; Validate has checked it.
func (c Config) OutputFormat() fsd.Format {
	f, _ := fsd.ParseFormat(c.Format)
	return f
}

// Marshal renders cfg as TOML.
func Marshal(cfg Config) ([]byte, error) {
	out, err := pelletier.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config marshal failed: %w", err)
	}
	return out, nil
}
