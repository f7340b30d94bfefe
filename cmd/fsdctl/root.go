package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danmuck/fsdctl/internal/config"
	logs "github.com/danmuck/fsdctl/internal/logging"
)

// DefaultConfigFile is read from the working directory when --config is not set.
const DefaultConfigFile = "fsdctl.toml"

type cli struct {
	configPath string
	verbose    bool
}

var (
	okText   = color.New(color.FgGreen).SprintFunc()
	failText = color.New(color.FgRed, color.Bold).SprintFunc()
	dimText  = color.New(color.Faint).SprintFunc()
	nameText = color.New(color.FgCyan).SprintFunc()
)

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "fsdctl",
		Short:         "Decode FSD static data and extract game resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				logs.Apply(logs.Config{Level: zerolog.DebugLevel, NoColor: color.NoColor})
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+DefaultConfigFile+" when present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.newDecodeCmd(),
		c.newExtractCmd(),
		c.newIndexCmd(),
		c.newSQLiteCmd(),
		c.newCatalogCmd(),
		c.newPackCmd(),
	)
	return root
}

// loadConfig reads --config, else ./fsdctl.toml when present, else defaults.
func (c *cli) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path == "" {
		cfg := config.Resolve(config.Default())
		return cfg, config.Validate(cfg)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	logs.Debugf("fsdctl config=%s game_path=%s output_dir=%s", path, cfg.GamePath, cfg.OutputDir)
	return cfg, nil
}

// openOutput returns stdout for "" or "-", else a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func withClose(err error, closeFn func() error) error {
	return errors.Join(err, closeFn())
}
