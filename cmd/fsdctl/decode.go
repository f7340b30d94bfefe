package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danmuck/fsdctl/internal/fsd"
	"github.com/danmuck/fsdctl/internal/fsd/container"
	"github.com/danmuck/fsdctl/internal/fsd/schema"
	"github.com/danmuck/fsdctl/internal/sqlitedump"
)

type decodeFlags struct {
	schemaPath string
	output     string
	format     string
	indent     int
	raw        bool
}

func (c *cli) newDecodeCmd() *cobra.Command {
	f := &decodeFlags{}
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode one FSD or SQLite static file",
		Long: `Decodes a container file (schema length, schema, payload) and writes the
value tree as JSON or YAML.

Without --schema the file's own textual schema is used, then a descriptor
named after the file in schema_dir. --raw treats the file as a bare payload
and requires --schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDecode(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.schemaPath, "schema", "", "schema descriptor (yaml or json)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&f.format, "format", "", "json or yaml (default from config)")
	cmd.Flags().IntVar(&f.indent, "indent", -1, "indent width (default from config)")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "file is a bare payload without the container header")
	return cmd
}

func (c *cli) runDecode(cmd *cobra.Command, path string, f *decodeFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	format := cfg.OutputFormat()
	if f.format != "" {
		if format, err = fsd.ParseFormat(f.format); err != nil {
			return err
		}
	}
	indent := cfg.Indent
	if f.indent >= 0 {
		indent = f.indent
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var override schema.Node
	if f.schemaPath != "" {
		if override, err = schema.Load(f.schemaPath); err != nil {
			return err
		}
	}

	var value fsd.Value
	switch {
	case f.raw:
		if override == nil {
			return fmt.Errorf("--raw requires --schema")
		}
		value, err = fsd.Decode(data, override, cfg.DecodeOptions())
	case sqlitedump.IsSQLite(data):
		value, err = sqlitedump.DumpBytes(cmd.Context(), data)
	default:
		var src schema.Source = schema.ChainSource{schema.EmbeddedSource{}, schema.SidecarSource{Dir: cfg.SchemaDir}}
		if override != nil {
			src = schema.StaticSource{Node: override}
		}
		value, err = container.Decode(data, resourceName(path), src, container.DefaultLimits(), cfg.DecodeOptions())
	}
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(cmd, f.output)
	if err != nil {
		return err
	}
	return withClose(fsd.Encode(w, value, format, indent), closeFn)
}

// resourceName is the file name without directory or extension.
func resourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
