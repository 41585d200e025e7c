package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"apd/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HF_TOKEN", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantArtifacts := filepath.Join(tempHome, ".local", "share", "apd", "pdfs")
	if cfg.Paths.ArtifactDir != wantArtifacts {
		t.Fatalf("unexpected artifact dir: got %q want %q", cfg.Paths.ArtifactDir, wantArtifacts)
	}
	if cfg.Publish.Enabled {
		t.Fatal("expected publish disabled by default")
	}
	if cfg.Pipeline.MaxRetries != 3 {
		t.Fatalf("unexpected retry budget: %d", cfg.Pipeline.MaxRetries)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Discovery.TimeoutSeconds <= 0 || cfg.ArtifactSource.TimeoutSeconds <= 0 {
		t.Fatal("expected positive collaborator timeouts")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[paths]
artifact_dir = "` + filepath.Join(dir, "pdfs") + `"

[pipeline]
max_retries = 5

[discovery]
base_url = "https://example.test/"
max_papers = 10

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Pipeline.MaxRetries != 5 {
		t.Fatalf("unexpected retry budget: %d", cfg.Pipeline.MaxRetries)
	}
	if cfg.Discovery.BaseURL != "https://example.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Discovery.BaseURL)
	}
	if cfg.Discovery.MaxPapers != 10 {
		t.Fatalf("unexpected max papers: %d", cfg.Discovery.MaxPapers)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.MaxRetries = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero retry budget")
	}

	cfg = config.Default()
	cfg.Logging.Format = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported log format")
	}

	cfg = config.Default()
	cfg.Publish.Enabled = true
	cfg.Publish.Dataset = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when publish enabled without dataset")
	}
}

func TestPublishTokenFallsBackToEnv(t *testing.T) {
	t.Setenv("HF_TOKEN", "env-token")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[publish]
enabled = true
dataset = "someone/videos"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Publish.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Publish.Token)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected sample content")
	}
}
