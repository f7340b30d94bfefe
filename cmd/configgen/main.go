package main

import (
	"flag"
	"log"
	"os"

	"github.com/danmuck/fsdctl/internal/config"
)

const defaultPath = "fsdctl.toml"

func main() {
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for -validate and -show")
	show := flag.Bool("show", false, "print the effective config with defaults applied")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate || *show {
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal(err)
		}
		if *show {
			out, err := config.Marshal(cfg)
			if err != nil {
				log.Fatal(err)
			}
			os.Stdout.Write(out)
			return
		}
		log.Printf("Validated config at %s (%d resources, %d category rules)", *input, len(cfg.Resources), len(cfg.Categories))
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote config template to %s", *output)
}
