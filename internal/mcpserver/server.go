// Package mcpserver exposes the analysis pipeline and its history over the
// Model Context Protocol so agent frontends can drive runs directly.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"failsolver/internal/analyze"
	"failsolver/internal/config"
	"failsolver/internal/logging"
	"failsolver/internal/pipeline"
	"failsolver/internal/store"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server around the pipeline and the history store.
type Server struct {
	MCPServer *sdkmcp.Server

	cfg    config.Config
	gen    analyze.Generator
	st     *store.Store
	logger *slog.Logger
}

// NewServer registers the analysis tools. The store may be nil; analyses are
// then not persisted and the history tools report that.
func NewServer(cfg config.Config, gen analyze.Generator, st *store.Store) *Server {
	s := &Server{
		cfg:    cfg,
		gen:    gen,
		st:     st,
		logger: logging.New("mcpserver"),
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "failsolver", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_failure",
		Description: "Run the full failure analysis pipeline over one or more XML test reports against a local repository checkout.",
	}, s.handleAnalyzeFailure)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_analysis",
		Description: "Fetch a past analysis by id, including its full rendered document.",
	}, s.handleGetAnalysis)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_analyses",
		Description: "List recent analyses, newest first.",
	}, s.handleListAnalyses)
}

// --- Tool input/output types ---

type analyzeFailureInput struct {
	ReportPaths []string `json:"report_paths" jsonschema:"XML report file paths (JUnit or TestNG)"`
	RepoPath    string   `json:"repo_path" jsonschema:"local repository checkout to locate and re-run tests in"`
	TestName    string   `json:"test_name,omitempty" jsonschema:"optional label for the run"`
}

type analyzeFailureOutput struct {
	ID              int64    `json:"id,omitempty"`
	Status          string   `json:"status"`
	Result          string   `json:"result,omitempty"`
	BuildSystem     string   `json:"build_system,omitempty"`
	Reproducible    bool     `json:"reproducible"`
	RootCause       string   `json:"root_cause,omitempty"`
	Confidence      float64  `json:"confidence"`
	Recommendations []string `json:"recommendations,omitempty"`
	Document        string   `json:"document"`
	Error           string   `json:"error,omitempty"`
}

type getAnalysisInput struct {
	ID int64 `json:"id" jsonschema:"analysis id from analyze_failure or list_analyses"`
}

type getAnalysisOutput struct {
	Analysis *store.Analysis `json:"analysis"`
}

type listAnalysesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max rows to return (default 20)"`
}

type analysisSummary struct {
	ID         int64   `json:"id"`
	TestName   string  `json:"test_name,omitempty"`
	Status     string  `json:"status"`
	Result     string  `json:"result,omitempty"`
	Failed     int     `json:"failed"`
	Total      int     `json:"total"`
	Confidence float64 `json:"confidence"`
	CreatedAt  string  `json:"created_at"`
}

type listAnalysesOutput struct {
	Analyses []analysisSummary `json:"analyses"`
	Total    int               `json:"total"`
}

// --- Tool handlers ---

func (s *Server) handleAnalyzeFailure(ctx context.Context, _ *sdkmcp.CallToolRequest, input analyzeFailureInput) (*sdkmcp.CallToolResult, analyzeFailureOutput, error) {
	if len(input.ReportPaths) == 0 {
		return nil, analyzeFailureOutput{}, fmt.Errorf("report_paths is required")
	}
	if input.RepoPath == "" {
		return nil, analyzeFailureOutput{}, fmt.Errorf("repo_path is required")
	}

	runner, err := pipeline.New(pipeline.Deps{Config: s.cfg, Generator: s.gen, Logger: s.logger})
	if err != nil {
		return nil, analyzeFailureOutput{}, fmt.Errorf("build pipeline: %w", err)
	}
	final := runner.Run(ctx, pipeline.NewState(input.ReportPaths, input.RepoPath, input.TestName))

	out := analyzeFailureOutput{
		Status:      string(final.Status),
		BuildSystem: final.BuildSystem,
		Document:    final.Document,
	}
	if final.Merged != nil {
		out.Result = string(final.Merged.Result)
	}
	if final.Comparison != nil {
		out.Reproducible = final.Comparison.Reproducible
	}
	if final.Analysis != nil {
		out.RootCause = final.Analysis.RootCause
		out.Confidence = final.Analysis.Confidence
		out.Recommendations = final.Analysis.Recommendations
	}
	if final.Err != nil {
		out.Error = final.Err.Error()
	}

	if s.st != nil {
		id, err := s.st.Save(store.FromState(final))
		if err != nil {
			s.logger.Error("persist analysis", "error", err)
		} else {
			out.ID = id
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetAnalysis(_ context.Context, _ *sdkmcp.CallToolRequest, input getAnalysisInput) (*sdkmcp.CallToolResult, getAnalysisOutput, error) {
	if s.st == nil {
		return nil, getAnalysisOutput{}, fmt.Errorf("history store is not configured")
	}
	a, err := s.st.Get(input.ID)
	if err != nil {
		return nil, getAnalysisOutput{}, err
	}
	return nil, getAnalysisOutput{Analysis: a}, nil
}

func (s *Server) handleListAnalyses(_ context.Context, _ *sdkmcp.CallToolRequest, input listAnalysesInput) (*sdkmcp.CallToolResult, listAnalysesOutput, error) {
	if s.st == nil {
		return nil, listAnalysesOutput{}, fmt.Errorf("history store is not configured")
	}
	rows, err := s.st.List(input.Limit)
	if err != nil {
		return nil, listAnalysesOutput{}, err
	}
	out := listAnalysesOutput{Total: len(rows)}
	for _, a := range rows {
		out.Analyses = append(out.Analyses, analysisSummary{
			ID:         a.ID,
			TestName:   a.TestName,
			Status:     a.Status,
			Result:     a.Result,
			Failed:     a.Failed,
			Total:      a.Total,
			Confidence: a.Confidence,
			CreatedAt:  a.CreatedAt,
		})
	}
	return nil, out, nil
}

// Run serves MCP over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// WatchParent starts a background goroutine that calls cancelFn when the
// parent PID changes, so an orphaned server shuts down instead of lingering
// after its MCP host disconnects. It must never read stdin: StdioTransport
// owns stdin exclusively and a competing reader would corrupt the JSON-RPC
// stream. The goroutine exits on ctx cancellation or after firing once.
func (s *Server) WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if os.Getppid() != ppid {
					s.logger.Warn("parent process died, shutting down", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
