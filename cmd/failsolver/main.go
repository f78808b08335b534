// failsolver analyzes failed JUnit/TestNG runs: it parses the XML reports,
// re-runs the failing tests against a local checkout, asks a text-generation
// model for a root cause, and renders a single analysis document.
//
// Usage:
//
//	failsolver analyze --xml-report <path>... --repo-path <path> [--test-name <label>] [-o <path>]
//	failsolver batch   --manifest <path> [--parallel N]
//	failsolver history [id] [--limit N]
//	failsolver serve
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
