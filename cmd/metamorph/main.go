// Metamorph: guided metamodel evolution.
//
// Interprets loosely specified schema-change scripts into typed mutation
// intents, surfaces ambiguities for resolution, and applies resolved
// batches to a CUE-defined schema.
//
// Usage:
//
//	metamorph validate <schema-dir>
//	metamorph plan <schema-dir> <script.yaml>
//	metamorph apply <schema-dir> <script.yaml> [--journal history.db]
//	metamorph coevolve <schema-dir> <model-dir>
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/metamorph-dev/metamorph/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own structured output; an ExitError only
		// carries the exit code at this point. Anything else (usage
		// errors, unexpected failures) still needs printing.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
