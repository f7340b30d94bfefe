package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/fsdctl/internal/fsd"
	"github.com/danmuck/fsdctl/internal/testutil/testlog"
)

func TestTemplateLoads(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "fsdctl.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.IndexFile != filepath.Join("/path/to/eve-frontier/stillness", "resfileindex.txt") {
		t.Fatalf("index file not derived: %s", cfg.IndexFile)
	}
	if cfg.ResFilesPath != filepath.Join("/path/to/eve-frontier", "ResFiles") {
		t.Fatalf("resfiles path not derived: %s", cfg.ResFilesPath)
	}
	if len(cfg.Resources) != 3 || cfg.Resources[2].Schema != "solarsystemcontent" {
		t.Fatalf("unexpected resources: %+v", cfg.Resources)
	}
	if len(cfg.Categories) != 7 {
		t.Fatalf("expected 7 category rules, got %d", len(cfg.Categories))
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := Parse(`
game_path = "/games/frontier/stillness"
format = "YAML"
workers = 2
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	def := Default()
	if cfg.Workers != 2 || cfg.OutputFormat() != fsd.FormatYAML {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Indent != def.Indent || cfg.MaxCount != def.MaxCount || len(cfg.Resources) != len(def.Resources) {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if got := cfg.DecodeOptions(); got.MaxDepth != def.MaxDepth {
		t.Fatalf("decode options: %+v", got)
	}
}

func TestValidateRejects(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"format":    `format = "xml"`,
		"workers":   `workers = 0`,
		"indent":    `indent = 12`,
		"duplicate": "[[resources]]\nname = \"a\"\nresource = \"res:/a\"\n[[resources]]\nname = \"a\"\nresource = \"res:/b\"\n",
		"resource":  "[[resources]]\nname = \"a\"\n",
		"rule":      "[[categories]]\nname = \"x\"\n",
	}
	for name, body := range cases {
		if _, err := Parse(body); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	testlog.Start(t)
	cfg := Resolve(Default())
	cfg.GamePath = "/games/stillness"
	out, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "game_path = '/games/stillness'") && !strings.Contains(text, `game_path = "/games/stillness"`) {
		t.Fatalf("game_path missing:\n%s", text)
	}
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("parse marshaled config: %v\n%s", err, text)
	}
	if back.GamePath != cfg.GamePath || len(back.Categories) != len(cfg.Categories) {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
