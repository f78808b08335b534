// Package execute re-runs located tests through the project's build tool.
package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"failsolver/internal/locate"
)

// Sentinel conditions distinguishing why a run failed. All are recoverable at
// the pipeline level; none escape the component as a panic.
var (
	ErrNoTests       = errors.New("no tests to run")
	ErrToolNotFound  = errors.New("build tool not found on PATH")
	ErrTimeout       = errors.New("test execution timed out")
	ErrUnknownSystem = errors.New("unsupported build system")
)

// Result captures one subprocess invocation.
// Success holds exactly when the process exited zero with no internal error.
type Result struct {
	ExitCode    int
	Stdout      string
	Stderr      string
	Success     bool
	CommandLine string
	TimedOut    bool
	Err         error // classification; nil on success
}

// Executor runs tests with Maven or Gradle under a hard timeout.
type Executor struct {
	repoPath    string
	buildSystem string
	timeout     time.Duration
	logger      *slog.Logger
}

// New creates an Executor. timeout <= 0 defaults to 300s.
func New(repoPath, buildSystem string, timeout time.Duration, logger *slog.Logger) *Executor {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{repoPath: repoPath, buildSystem: buildSystem, timeout: timeout, logger: logger}
}

// Run executes the located tests in a single blocking subprocess call.
// One attempt only: callers wanting retries re-run the whole pipeline.
func (e *Executor) Run(ctx context.Context, tests []locate.LocatedTest) *Result {
	if len(tests) == 0 {
		return &Result{ExitCode: -1, Err: ErrNoTests}
	}

	var args []string
	switch e.buildSystem {
	case locate.BuildMaven:
		args = mavenArgs(tests)
	case locate.BuildGradle:
		args = gradleArgs(tests)
	default:
		return &Result{ExitCode: -1, Err: fmt.Errorf("%w: %q", ErrUnknownSystem, e.buildSystem)}
	}

	return e.invoke(ctx, args)
}

// mavenArgs builds a single comma-joined selector:
// mvn test -Dtest=pkg.Class#method,... -DfailIfNoTests=false
func mavenArgs(tests []locate.LocatedTest) []string {
	specs := make([]string, 0, len(tests))
	for _, t := range tests {
		specs = append(specs, selector(t, "#"))
	}
	return []string{"mvn", "test", "-Dtest=" + strings.Join(specs, ","), "-DfailIfNoTests=false"}
}

// gradleArgs repeats a --tests flag per located test:
// gradle test --tests pkg.Class.method ...
func gradleArgs(tests []locate.LocatedTest) []string {
	args := []string{"gradle", "test"}
	for _, t := range tests {
		args = append(args, "--tests", selector(t, "."))
	}
	return args
}

func selector(t locate.LocatedTest, sep string) string {
	class := t.FullyQualified
	if class == "" {
		class = t.ClassName
	}
	if t.MethodName == "" {
		return class
	}
	return class + sep + t.MethodName
}

func (e *Executor) invoke(ctx context.Context, args []string) *Result {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.Dir = e.repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	commandLine := strings.Join(args, " ")
	e.logger.Info("running tests locally",
		"command", commandLine, "timeout", e.timeout.String())

	err := cmd.Run()
	res := &Result{
		Stdout:      stdout.String(),
		Stderr:      stderr.String(),
		CommandLine: commandLine,
	}

	switch {
	case err == nil:
		res.ExitCode = 0
		res.Success = true
	case runCtx.Err() == context.DeadlineExceeded:
		res.ExitCode = -1
		res.TimedOut = true
		res.Err = fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	case errors.Is(err, exec.ErrNotFound):
		res.ExitCode = -1
		res.Err = fmt.Errorf("%w: %s", ErrToolNotFound, args[0])
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Err = fmt.Errorf("tests exited with code %d", res.ExitCode)
		} else {
			res.ExitCode = -1
			res.Err = fmt.Errorf("run %s: %w", args[0], err)
		}
	}

	e.logger.Info("local execution finished",
		"exit_code", res.ExitCode, "success", res.Success, "timed_out", res.TimedOut)
	return res
}
