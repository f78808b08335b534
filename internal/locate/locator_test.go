package locate

import (
	"os"
	"path/filepath"
	"testing"

	"failsolver/internal/report"
)

// scaffold builds a minimal Maven-shaped checkout with one test class.
func scaffold(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "src", "test", "java", "com", "acme")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := filepath.Join(dir, "FooTest.java")
	if err := os.WriteFile(src, []byte("public class FooTest {}\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return root
}

func TestSplitSignature(t *testing.T) {
	tests := []struct {
		sig, qualifier, method string
	}{
		{"com.acme.FooTest.testBar(String)", "com.acme.FooTest", "testBar"},
		{"com.acme.FooTest.testBar()", "com.acme.FooTest", "testBar"},
		{"testBar(String)[pri:0, instance:com.acme.FooTest@1a2b]", "", ""},
		{"not a signature", "", ""},
	}
	for _, tt := range tests {
		q, m := splitSignature(tt.sig)
		if q != tt.qualifier || m != tt.method {
			t.Errorf("splitSignature(%q) = (%q, %q), want (%q, %q)",
				tt.sig, q, m, tt.qualifier, tt.method)
		}
	}
}

func TestFindBySignatureDirectPath(t *testing.T) {
	root := scaffold(t)
	l, err := New(root, nil, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	located := l.FindAll([]report.Failure{{
		TestName:        "testBar",
		ClassName:       "com.acme.FooTest",
		MethodSignature: "com.acme.FooTest.testBar(String)",
	}})
	if len(located) != 1 {
		t.Fatalf("len(located) = %d, want 1", len(located))
	}
	lt := located[0]
	if lt.FullyQualified != "com.acme.FooTest" || lt.MethodName != "testBar" {
		t.Errorf("located = %s#%s, want com.acme.FooTest#testBar", lt.FullyQualified, lt.MethodName)
	}
	if filepath.Base(lt.FilePath) != "FooTest.java" {
		t.Errorf("FilePath = %q", lt.FilePath)
	}
}

func TestFindRecursiveFallback(t *testing.T) {
	// Class file lives outside the package-derived path; the recursive
	// search must still find it.
	root := t.TempDir()
	odd := filepath.Join(root, "tests", "regression")
	if err := os.MkdirAll(odd, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(odd, "FooTest.java"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	l, err := New(root, nil, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	located := l.FindAll([]report.Failure{{
		TestName:        "testBar",
		ClassName:       "com.acme.FooTest",
		MethodSignature: "com.acme.FooTest.testBar()",
	}})
	if len(located) != 1 {
		t.Fatalf("len(located) = %d, want 1", len(located))
	}
	if filepath.Base(located[0].FilePath) != "FooTest.java" {
		t.Errorf("FilePath = %q", located[0].FilePath)
	}
}

func TestFindByClassNameWithoutSignature(t *testing.T) {
	root := scaffold(t)
	l, err := New(root, nil, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	located := l.FindAll([]report.Failure{{
		TestName:  "testBar",
		ClassName: "com.acme.FooTest",
	}})
	if len(located) != 1 {
		t.Fatalf("len(located) = %d, want 1", len(located))
	}
	if located[0].MethodName != "testBar" {
		t.Errorf("MethodName = %q", located[0].MethodName)
	}
}

func TestUnmatchedFailuresAreSkipped(t *testing.T) {
	root := scaffold(t)
	l, err := New(root, nil, "", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	located := l.FindAll([]report.Failure{
		{TestName: "testBar", ClassName: "com.acme.FooTest", MethodSignature: "com.acme.FooTest.testBar()"},
		{TestName: "ghost", ClassName: "com.acme.NoSuchClass", MethodSignature: "com.acme.NoSuchClass.ghost()"},
	})
	if len(located) != 1 {
		t.Fatalf("len(located) = %d, want 1 (unmatched failure dropped)", len(located))
	}
}

func TestDetectBuildSystem(t *testing.T) {
	root := t.TempDir()
	if bs, ok := DetectBuildSystem(root); ok {
		t.Errorf("DetectBuildSystem(empty) = %q, want none", bs)
	}

	if err := os.WriteFile(filepath.Join(root, "pom.xml"), []byte("<project/>"), 0o644); err != nil {
		t.Fatalf("write pom: %v", err)
	}
	if bs, ok := DetectBuildSystem(root); !ok || bs != BuildMaven {
		t.Errorf("DetectBuildSystem = (%q, %v), want (maven, true)", bs, ok)
	}

	gradleRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(gradleRoot, "build.gradle.kts"), []byte(""), 0o644); err != nil {
		t.Fatalf("write gradle: %v", err)
	}
	if bs, ok := DetectBuildSystem(gradleRoot); !ok || bs != BuildGradle {
		t.Errorf("DetectBuildSystem = (%q, %v), want (gradle, true)", bs, ok)
	}
}

func TestNewRejectsMissingRepo(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope"), nil, "", nil); err == nil {
		t.Fatal("New should fail for a missing repository path")
	}
}
