// Package locate maps failing test identifiers to source files in a local
// checkout and detects the project's build system.
package locate

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"failsolver/internal/report"
)

// Signatures look like "com.acme.FooTest.testBar(String)"; the trailing group
// pattern splits the qualifier from the method name.
var signatureRe = regexp.MustCompile(`(.+)\.([^.]+)\(.*\)$`)

// LocatedTest is a failure record mapped to a source file.
type LocatedTest struct {
	FilePath       string
	ClassName      string
	FullyQualified string
	MethodName     string
	Failure        report.Failure
}

// Locator finds test sources under a repository root.
type Locator struct {
	repoPath   string
	searchDirs []string
	sourceExt  string
	logger     *slog.Logger
}

// New creates a Locator for the given repository root. searchDirs are
// relative to the root; when empty the conventional test-source, main-source
// and root directories are searched. ext defaults to ".java".
func New(repoPath string, searchDirs []string, ext string, logger *slog.Logger) (*Locator, error) {
	info, err := os.Stat(repoPath)
	if err != nil {
		return nil, fmt.Errorf("repository not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path %s is not a directory", repoPath)
	}
	if ext == "" {
		ext = ".java"
	}
	if len(searchDirs) == 0 {
		searchDirs = []string{
			filepath.Join("src", "test", "java"),
			filepath.Join("src", "main", "java"),
			".",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{repoPath: repoPath, searchDirs: searchDirs, sourceExt: ext, logger: logger}, nil
}

// FindAll maps each failure to a source file. Unmatched failures are skipped,
// not errors: execution is best-effort and the result may be shorter than the
// input.
func (l *Locator) FindAll(failures []report.Failure) []LocatedTest {
	var located []LocatedTest
	for _, f := range failures {
		lt := l.find(f)
		if lt == nil {
			l.logger.Debug("no source file for failure",
				"test", f.FullyQualified, "signature", f.MethodSignature)
			continue
		}
		located = append(located, *lt)
	}
	return located
}

func (l *Locator) find(f report.Failure) *LocatedTest {
	if f.MethodSignature != "" {
		if lt := l.findBySignature(f); lt != nil {
			return lt
		}
	}
	// Fall back to the class name and test name carried on the record.
	if f.ClassName != "" && f.TestName != "" {
		simple := simpleName(f.ClassName)
		if path := l.searchByClassName(simple); path != "" {
			return &LocatedTest{
				FilePath:       path,
				ClassName:      simple,
				FullyQualified: f.ClassName,
				MethodName:     f.TestName,
				Failure:        f,
			}
		}
	}
	return nil
}

// findBySignature parses "package.Class.method(args)" and checks the expected
// package-derived path under each search directory, then falls back to a
// recursive search for the bare class file.
func (l *Locator) findBySignature(f report.Failure) *LocatedTest {
	sig := f.MethodSignature
	// TestNG appends an instance fragment after the argument list; the class
	// qualifier recorded on the failure is more reliable, so prefer it.
	qualifier, method := splitSignature(sig)
	if qualifier == "" && f.ClassName != "" {
		qualifier, method = f.ClassName, f.TestName
	}
	if qualifier == "" {
		return nil
	}
	if f.ClassName != "" && !strings.Contains(qualifier, ".") {
		// Signature carried only the method; qualify with the record's class.
		qualifier = f.ClassName
	}

	relPath := strings.ReplaceAll(qualifier, ".", string(os.PathSeparator)) + l.sourceExt
	for _, dir := range l.searchDirs {
		candidate := filepath.Join(l.repoPath, dir, relPath)
		if fileExists(candidate) {
			return &LocatedTest{
				FilePath:       candidate,
				ClassName:      simpleName(qualifier),
				FullyQualified: qualifier,
				MethodName:     method,
				Failure:        f,
			}
		}
	}

	if path := l.searchByClassName(simpleName(qualifier)); path != "" {
		return &LocatedTest{
			FilePath:       path,
			ClassName:      simpleName(qualifier),
			FullyQualified: qualifier,
			MethodName:     method,
			Failure:        f,
		}
	}
	return nil
}

// splitSignature returns the qualifying part and method name of a signature,
// or empty strings when the trailing-group pattern does not match.
func splitSignature(sig string) (qualifier, method string) {
	// Strip any bracketed suffix so "m(args)[instance:...]" still matches.
	if i := strings.Index(sig, ")["); i >= 0 {
		sig = sig[:i+1]
	}
	m := signatureRe.FindStringSubmatch(sig)
	if m == nil {
		// A bare "method(args)" has no qualifier.
		return "", ""
	}
	return m[1], m[2]
}

// searchByClassName walks each search directory for a file literally named
// <ClassName><ext> and returns the first match.
func (l *Locator) searchByClassName(className string) string {
	if className == "" {
		return ""
	}
	target := className + l.sourceExt
	for _, dir := range l.searchDirs {
		root := filepath.Join(l.repoPath, dir)
		var found string
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable subtree; keep going
			}
			if !d.IsDir() && d.Name() == target {
				found = path
				return fs.SkipAll
			}
			return nil
		})
		if err == nil && found != "" {
			return found
		}
	}
	return ""
}

func simpleName(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
