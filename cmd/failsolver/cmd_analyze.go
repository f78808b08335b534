package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"failsolver/internal/pipeline"
)

var analyzeFlags struct {
	xmlReports []string
	repoPath   string
	testName   string
	output     string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one failed test run",
	Long: `Parse the given XML reports, locate and re-run the failing tests in the
repository checkout, and produce a root-cause analysis document.

The document goes to stdout, or to the path given with --output. Exit code is
0 when the pipeline completes (even with degraded stages) and 1 when it ends
in error.`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringArrayVar(&analyzeFlags.xmlReports, "xml-report", nil, "XML report file (repeatable; JUnit or TestNG)")
	f.StringVar(&analyzeFlags.repoPath, "repo-path", "", "Local repository checkout (required)")
	f.StringVar(&analyzeFlags.testName, "test-name", "", "Optional label for the run")
	f.StringVarP(&analyzeFlags.output, "output", "o", "", "Write the document to this path instead of stdout")
	_ = analyzeCmd.MarkFlagRequired("xml-report")
	_ = analyzeCmd.MarkFlagRequired("repo-path")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	final, err := runOne(cmd.Context(),
		analyzeFlags.xmlReports, analyzeFlags.repoPath,
		analyzeFlags.testName, analyzeFlags.output)
	if err != nil {
		return err
	}

	if analyzeFlags.output == "" {
		fmt.Println(final.Document)
	} else {
		fmt.Printf("Report: %s\n", analyzeFlags.output)
	}

	if final.Status != pipeline.StatusCompleted {
		if final.Err != nil {
			fmt.Fprintf(os.Stderr, "analysis failed: %v\n", final.Err)
		}
		// The document already explains the failure; just signal it.
		cmd.SilenceUsage = true
		return fmt.Errorf("pipeline ended in %s", final.Status)
	}
	return nil
}
