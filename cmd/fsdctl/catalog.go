package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danmuck/fsdctl/internal/catalog"
	"github.com/danmuck/fsdctl/internal/fsd"
)

type catalogFlags struct {
	dataDir string
	format  string
	output  string

	category string
	types    string
	noDeps   bool
}

func (c *cli) newCatalogCmd() *cobra.Command {
	f := &catalogFlags{}
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query types, blueprints and their dependencies in extracted data",
	}
	cmd.PersistentFlags().StringVar(&f.dataDir, "data", "", "extracted data directory (default output_dir)")
	cmd.PersistentFlags().StringVar(&f.format, "format", "", "json or yaml (default from config)")

	var depth int
	deps := &cobra.Command{
		Use:   "deps <typeID>",
		Short: "List the type ids a type needs to be built",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTypeID(args[0])
			if err != nil {
				return err
			}
			cat, err := c.loadCatalog(f)
			if err != nil {
				return err
			}
			ids := cat.Dependencies(id, depth)
			w := cmd.OutOrStdout()
			for _, dep := range ids {
				fmt.Fprintf(w, "%d\t%s\n", dep, cat.TypeName(dep))
			}
			fmt.Fprintf(w, "%d types\n", len(ids))
			return nil
		},
	}
	deps.Flags().IntVar(&depth, "depth", catalog.DefaultDepth, "maximum recursion depth")

	export := &cobra.Command{
		Use:   "export",
		Short: "Export a selection, a category or all blueprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCatalogExport(cmd, f)
		},
	}
	export.Flags().StringVar(&f.category, "category", "", "export one category")
	export.Flags().StringVar(&f.types, "types", "", "comma separated type ids")
	export.Flags().BoolVar(&f.noDeps, "no-deps", false, "skip dependency resolution")
	export.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "search <name>",
			Short: "Find types and ships by name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := c.loadCatalog(f)
				if err != nil {
					return err
				}
				hits := cat.Search(args[0])
				w := cmd.OutOrStdout()
				for _, h := range hits {
					fmt.Fprintf(w, "%d\t%s\t%s\n", h.TypeID, nameText(h.TypeName), dimText(h.Source))
				}
				fmt.Fprintf(w, "%d matches\n", len(hits))
				return nil
			},
		},
		deps,
		&cobra.Command{
			Use:   "chain <typeID>",
			Short: "Show the manufacturing chain of a type level by level",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseTypeID(args[0])
				if err != nil {
					return err
				}
				cat, err := c.loadCatalog(f)
				if err != nil {
					return err
				}
				chain := cat.Chain(id)
				if f.format != "" {
					format, err := fsd.ParseFormat(f.format)
					if err != nil {
						return err
					}
					return fsd.Encode(cmd.OutOrStdout(), chain, format, 2)
				}
				printChain(cmd.OutOrStdout(), chain)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list [category]",
			Short: "List categories, or the members of one",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := c.loadCatalog(f)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(args) == 0 {
					for _, cc := range cat.Categories() {
						fmt.Fprintf(w, "%-14s %d\n", nameText(cc.Name), cc.Count)
					}
					return nil
				}
				items, err := cat.ListCategory(args[0])
				if err != nil {
					return err
				}
				for _, it := range items {
					fmt.Fprintf(w, "%d\t%s\n", it.TypeID, it.TypeName)
				}
				return nil
			},
		},
		export,
	)
	return cmd
}

func (c *cli) runCatalogExport(cmd *cobra.Command, f *catalogFlags) error {
	cat, err := c.loadCatalog(f)
	if err != nil {
		return err
	}
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

	var value fsd.Value
	switch {
	case f.category != "":
		value, err = cat.ExportCategory(f.category)
		if err != nil {
			return err
		}
	case f.types != "":
		ids, err := parseTypeIDs(f.types)
		if err != nil {
			return err
		}
		value = cat.ExportSelection(ids, !f.noDeps)
	default:
		value = cat.ExportBlueprints(!f.noDeps)
	}

	w, closeFn, err := openOutput(cmd, f.output)
	if err != nil {
		return err
	}
	return withClose(fsd.Encode(w, value, format, cfg.Indent), closeFn)
}

func (c *cli) loadCatalog(f *catalogFlags) (*catalog.Catalog, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	dir := f.dataDir
	if dir == "" {
		dir = cfg.OutputDir
	}
	data, err := catalog.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return catalog.New(data, cfg.Categories)
}

func printChain(w io.Writer, chain catalog.Chain) {
	fmt.Fprintf(w, "%s (%d)\n", nameText(chain.TargetName), chain.Target)
	for i, level := range chain.Levels {
		fmt.Fprintf(w, "level %d:\n", i)
		for _, e := range level {
			mark := dimText("raw")
			if e.Craftable {
				mark = okText("craft")
			}
			fmt.Fprintf(w, "  %d %s [%s]", e.TypeID, e.TypeName, mark)
			if len(e.Materials) > 0 {
				names := make([]string, len(e.Materials))
				for j, m := range e.Materials {
					names[j] = m.TypeName
				}
				fmt.Fprintf(w, " <- %s", strings.Join(names, ", "))
			}
			fmt.Fprintln(w)
		}
	}
}

func parseTypeID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid type id %q", raw)
	}
	return id, nil
}

func parseTypeIDs(raw string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseTypeID(part)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
