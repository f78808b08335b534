package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// xmlNode is a generic element tree. Both report dialects are walked through
// it, which also makes descendant-based format detection cheap.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (n *xmlNode) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// child returns the first direct child with the given element name.
func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// descendants appends every element named name in document order, including
// n itself.
func (n *xmlNode) descendants(name string, out []*xmlNode) []*xmlNode {
	if n.XMLName.Local == name {
		out = append(out, n)
	}
	for i := range n.Children {
		out = n.Children[i].descendants(name, out)
	}
	return out
}

func (n *xmlNode) findAll(name string) []*xmlNode {
	return n.descendants(name, nil)
}

func (n *xmlNode) find(name string) *xmlNode {
	all := n.descendants(name, nil)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// atoi parses a count attribute; malformed or absent values count as zero.
func atoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseFile reads and parses one XML report file, detecting its dialect.
func ParseFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IngestionError{Path: path, Err: err}
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*Report, error) {
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, &IngestionError{Path: path, Err: err}
	}

	format, err := detectFormat(path, &root)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatTestNG:
		return parseTestNG(path, &root), nil
	default:
		return parseJUnit(path, &root), nil
	}
}

// detectFormat identifies the dialect from the root element, falling back to
// a descendant scan for fragments whose root is a wrapper element.
func detectFormat(path string, root *xmlNode) (Format, error) {
	switch root.XMLName.Local {
	case "testng-results":
		return FormatTestNG, nil
	case "testsuite", "testsuites":
		return FormatJUnit, nil
	}
	if root.find("test-method") != nil {
		return FormatTestNG, nil
	}
	if root.find("testcase") != nil {
		return FormatJUnit, nil
	}
	return "", &FormatError{Path: path, Root: root.XMLName.Local}
}

// parseJUnit sums counts across all testsuite elements and collects every
// testcase that carries a failure or error child.
func parseJUnit(path string, root *xmlNode) *Report {
	suites := root.findAll("testsuite")

	s := Summary{SourceFormat: FormatJUnit}
	for _, suite := range suites {
		tests := atoi(suite.attr("tests"))
		failures := atoi(suite.attr("failures"))
		errs := atoi(suite.attr("errors"))
		skipped := atoi(suite.attr("skipped"))

		s.Total += tests
		s.Failed += failures
		s.Errored += errs
		s.Skipped += skipped
		s.Passed += tests - failures - errs - skipped
		s.DurationSeconds += atof(suite.attr("time"))
	}

	var failures []Failure
	var errorLines []string
	for _, tc := range root.findAll("testcase") {
		elem := tc.child("failure")
		if elem == nil {
			elem = tc.child("error")
		}
		if elem == nil {
			continue
		}

		f := Failure{
			TestName:   tc.attr("name"),
			ClassName:  tc.attr("classname"),
			ErrorType:  elem.attr("type"),
			Message:    elem.attr("message"),
			StackTrace: strings.TrimSpace(elem.Text),
		}
		if f.ErrorType == "" {
			f.ErrorType = "Error"
		}
		f.FullyQualified = qualify(f.ClassName, f.TestName)
		failures = append(failures, f)

		if f.Message != "" {
			errorLines = append(errorLines, fmt.Sprintf("%s: %s", f.FullyQualified, f.Message))
		}
		errorLines = append(errorLines, headLines(f.StackTrace, 5, "")...)
	}

	return &Report{Path: path, Summary: s, Failures: failures, ErrorLines: errorLines}
}

// parseTestNG reads aggregate counts from the root attributes and collects
// every test-method with status FAIL.
func parseTestNG(path string, root *xmlNode) *Report {
	s := Summary{
		SourceFormat: FormatTestNG,
		Total:        atoi(root.attr("total")),
		Passed:       atoi(root.attr("passed")),
		Failed:       atoi(root.attr("failed")),
		// TestNG does not distinguish errors from failures; ignored tests
		// count as skipped.
		Skipped: atoi(root.attr("skipped")) + atoi(root.attr("ignored")),
	}
	for _, suite := range root.findAll("suite") {
		s.DurationSeconds += atof(suite.attr("duration-ms")) / 1000.0
	}

	var failures []Failure
	var errorLines []string
	for _, tm := range root.findAll("test-method") {
		if tm.attr("status") != "FAIL" {
			continue
		}

		f := Failure{
			TestName:        tm.attr("name"),
			MethodSignature: tm.attr("signature"),
			ClassName:       classFromSignature(tm.attr("signature")),
		}
		if exc := tm.find("exception"); exc != nil {
			f.ErrorType = exc.attr("class")
			if f.ErrorType == "" {
				f.ErrorType = "Exception"
			}
			if msg := exc.child("message"); msg != nil {
				f.Message = strings.TrimSpace(msg.Text)
			}
			if full := exc.child("full-stacktrace"); full != nil && strings.TrimSpace(full.Text) != "" {
				f.StackTrace = strings.TrimSpace(full.Text)
			} else if short := exc.child("short-stacktrace"); short != nil {
				f.StackTrace = strings.TrimSpace(short.Text)
			}
		}
		f.FullyQualified = qualify(f.ClassName, f.TestName)
		failures = append(failures, f)

		errorLines = append(errorLines, fmt.Sprintf("%s: %s", f.FullyQualified, f.ErrorType))
		if f.Message != "" {
			errorLines = append(errorLines, "  Message: "+f.Message)
		}
		errorLines = append(errorLines, headLines(f.StackTrace, 10, "  ")...)
	}

	return &Report{Path: path, Summary: s, Failures: failures, ErrorLines: errorLines}
}

// qualify joins a class name and test name, tolerating a missing class.
func qualify(className, testName string) string {
	if className == "" {
		return testName
	}
	return className + "." + testName
}

// headLines returns up to max non-empty trimmed lines of s, each prefixed.
func headLines(s string, max int, prefix string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, prefix+line)
		if len(out) == max {
			break
		}
	}
	return out
}
