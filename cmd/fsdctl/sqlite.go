package main

import (
	"github.com/spf13/cobra"

	"github.com/danmuck/fsdctl/internal/fsd"
	"github.com/danmuck/fsdctl/internal/sqlitedump"
)

func (c *cli) newSQLiteCmd() *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "sqlite <file>",
		Short: "Dump every table of a SQLite resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			f := cfg.OutputFormat()
			if format != "" {
				if f, err = fsd.ParseFormat(format); err != nil {
					return err
				}
			}
			tables, err := sqlitedump.Dump(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w, closeFn, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			return withClose(fsd.Encode(w, tables, f, cfg.Indent), closeFn)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from config)")
	return cmd
}
