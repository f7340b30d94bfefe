package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/fsdctl/internal/fsd/container"
	"github.com/danmuck/fsdctl/internal/fsd/schema"
)

func (c *cli) newPackCmd() *cobra.Command {
	var schemaPath, output string
	cmd := &cobra.Command{
		Use:   "pack <payload>",
		Short: "Wrap a payload and a textual schema into a container file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := os.ReadFile(schemaPath)
			if err != nil {
				return fmt.Errorf("read schema: %w", err)
			}
			if _, err := schema.Parse(desc); err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			w, closeFn, err := openOutput(cmd, output)
			if err != nil {
				return err
			}
			err = container.Write(w, container.Container{Schema: desc, Payload: payload}, container.DefaultLimits())
			return withClose(err, closeFn)
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema descriptor to embed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
