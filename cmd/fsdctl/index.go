package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/fsdctl/internal/resindex"
)

func (c *cli) newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Query resfileindex.txt",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "find <term>",
		Short: "List resource paths containing term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, _, err := c.loadIndex()
			if err != nil {
				return err
			}
			matches := idx.Find(args[0])
			for _, e := range matches {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.ResourcePath, dimText(e.HashPath))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d entries\n", len(matches), idx.Len())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <res:/path>",
		Short: "Show one index entry and where its blob lives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, store, err := c.loadIndex()
			if err != nil {
				return err
			}
			e, err := idx.Lookup(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "resource: %s\n", nameText(e.ResourcePath))
			fmt.Fprintf(w, "hash_path: %s\nfile_hash: %s\noffset: %d\nsize: %d\nline: %d\n",
				e.HashPath, e.FileHash, e.Offset, e.Size, e.Line)
			if path, err := store.Path(e); err == nil {
				fmt.Fprintf(w, "blob: %s\n", path)
			} else {
				fmt.Fprintf(w, "blob: %s\n", failText(err.Error()))
			}
			return nil
		},
	})
	return cmd
}

func (c *cli) loadIndex() (*resindex.Index, resindex.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, resindex.Store{}, err
	}
	if cfg.IndexFile == "" {
		return nil, resindex.Store{}, fmt.Errorf("no index file: set game_path or index_file")
	}
	idx, err := resindex.Load(cfg.IndexFile)
	if err != nil {
		return nil, resindex.Store{}, err
	}
	return idx, resindex.Store{Root: cfg.ResFilesPath}, nil
}
