package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"failsolver/internal/pipeline"
)

var batchFlags struct {
	manifest string
	parallel int
}

// batchManifest is the YAML shape consumed by the batch command.
type batchManifest struct {
	Runs []batchRun `yaml:"runs"`
}

type batchRun struct {
	XMLReports []string `yaml:"xml_reports"`
	RepoPath   string   `yaml:"repo_path"`
	TestName   string   `yaml:"test_name"`
	Output     string   `yaml:"output"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze several failed runs from a YAML manifest",
	Long: `Run the analysis pipeline for every entry in a manifest:

    runs:
      - xml_reports: [target/surefire-reports/TEST-all.xml]
        repo_path: /work/service-a
        test_name: service-a nightly
        output: reports/service-a.md

Independent runs share no state, so --parallel bounds how many execute at
once. The command fails if any run ends in error, after all runs finish.`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchFlags.manifest, "manifest", "f", "", "Manifest YAML path (required)")
	f.IntVar(&batchFlags.parallel, "parallel", 1, "Max concurrent runs")
	_ = batchCmd.MarkFlagRequired("manifest")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(batchFlags.manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var manifest batchManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if len(manifest.Runs) == 0 {
		return fmt.Errorf("manifest has no runs")
	}
	for i, run := range manifest.Runs {
		if len(run.XMLReports) == 0 || run.RepoPath == "" {
			return fmt.Errorf("run %d: xml_reports and repo_path are required", i+1)
		}
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	if batchFlags.parallel > 0 {
		g.SetLimit(batchFlags.parallel)
	}

	var mu sync.Mutex
	failed := 0
	for i, run := range manifest.Runs {
		g.Go(func() error {
			label := run.TestName
			if label == "" {
				label = fmt.Sprintf("run %d", i+1)
			}
			final, err := runOne(ctx, run.XMLReports, run.RepoPath, run.TestName, run.Output)
			if err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if final.Status != pipeline.StatusCompleted {
				failed++
				fmt.Printf("%-24s %s (%v)\n", label, final.Status, final.Err)
			} else {
				fmt.Printf("%-24s %s\n", label, final.Status)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if failed > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d runs ended in error", failed, len(manifest.Runs))
	}
	return nil
}
