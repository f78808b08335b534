package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Locate.SourceExt != ".java" {
		t.Errorf("SourceExt = %q, want .java", cfg.Locate.SourceExt)
	}
	if cfg.ExecTimeout() != 300*time.Second {
		t.Errorf("ExecTimeout = %v, want 5m", cfg.ExecTimeout())
	}
	if cfg.LLMTimeout() != 120*time.Second {
		t.Errorf("LLMTimeout = %v, want 2m", cfg.LLMTimeout())
	}
	if cfg.Store.Path == "" {
		t.Error("default store path empty")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failsolver.yaml")
	doc := `
logging:
  level: debug
  format: json
locate:
  search_dirs: [src/it/java]
execute:
  timeout_seconds: 60
llm:
  base_url: http://localhost:11434/v1
  model: local-model
notify:
  slack_webhook_url: https://hooks.slack.example/T000/B000
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if diff := cmp.Diff([]string{"src/it/java"}, cfg.Locate.SearchDirs); diff != "" {
		t.Errorf("search dirs mismatch (-want +got):\n%s", diff)
	}
	if cfg.ExecTimeout() != time.Minute {
		t.Errorf("ExecTimeout = %v, want 1m", cfg.ExecTimeout())
	}
	if cfg.LLM.Model != "local-model" {
		t.Errorf("Model = %q", cfg.LLM.Model)
	}
	// Untouched sections keep their defaults.
	if cfg.Locate.SourceExt != ".java" {
		t.Errorf("SourceExt = %q, want default .java", cfg.Locate.SourceExt)
	}
	if cfg.Store.Path != Default().Store.Path {
		t.Errorf("Store.Path = %q, want default", cfg.Store.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/failsolver.yaml"); err == nil {
		t.Error("Load of missing file succeeded")
	}
}

func TestTimeoutFloor(t *testing.T) {
	cfg := Default()
	cfg.Execute.TimeoutSeconds = -5
	cfg.LLM.TimeoutSeconds = 0
	if cfg.ExecTimeout() != 300*time.Second {
		t.Errorf("ExecTimeout = %v, want fallback 5m", cfg.ExecTimeout())
	}
	if cfg.LLMTimeout() != 120*time.Second {
		t.Errorf("LLMTimeout = %v, want fallback 2m", cfg.LLMTimeout())
	}
}
