// Command fsdctl decodes FSD static data files and extracts configured game
// resources.
package main

import (
	"fmt"
	"os"

	logs "github.com/danmuck/fsdctl/internal/logging"
)

func main() {
	logs.ConfigureRuntime()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fsdctl: %v\n", err)
		os.Exit(1)
	}
}
