package main

import (
	"fmt"
	"os"

	"github.com/psantana5/procbox/cmd/procbox/cmd"
	"github.com/psantana5/procbox/pkg/harness"
)

func main() {
	// Must run before anything else: in a re-exec'ed child this executes the
	// unit of work and never returns.
	harness.ChildMain()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
