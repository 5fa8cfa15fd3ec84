package taskdef

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"taskrun/internal/domain/task"
)

func TestParseFullDefinition(t *testing.T) {
	t.Parallel()

	data := []byte(`
id: r-cars
language: r
warningOnStdErr: false
containerImage: rocker/r-ver:4.4.1
script: |
  library(dplyr)
  write.csv(head(mtcars), "final.csv")
beforeCommands:
  - Rscript -e 'install.packages("dplyr")'
outputFiles:
  - "*.csv"
vars:
  rows: 6
timeout: 5m
memoryLimit: 268435456
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if cfg.ID != "r-cars" {
		t.Fatalf("unexpected id: %q", cfg.ID)
	}
	if cfg.Language != task.LanguageR {
		t.Fatalf("unexpected language: %q", cfg.Language)
	}
	if cfg.ContainerImage != "rocker/r-ver:4.4.1" {
		t.Fatalf("unexpected image: %q", cfg.ContainerImage)
	}
	if len(cfg.BeforeCommands) != 1 {
		t.Fatalf("expected one before command, got %v", cfg.BeforeCommands)
	}
	if len(cfg.OutputFiles) != 1 || cfg.OutputFiles[0] != "*.csv" {
		t.Fatalf("unexpected output patterns: %v", cfg.OutputFiles)
	}
	if cfg.Vars["rows"] != 6 {
		t.Fatalf("unexpected vars: %v", cfg.Vars)
	}
	if cfg.Limits.TimeLimit != 5*time.Minute {
		t.Fatalf("unexpected time limit: %v", cfg.Limits.TimeLimit)
	}
	if cfg.Limits.MemoryLimitBytes != 268435456 {
		t.Fatalf("unexpected memory limit: %d", cfg.Limits.MemoryLimitBytes)
	}
	if cfg.TargetOS != task.OSLinux {
		t.Fatalf("expected default target OS linux, got %q", cfg.TargetOS)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("script: print(1)\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.Language != task.LanguageR {
		t.Fatalf("expected default language r, got %q", cfg.Language)
	}
	if cfg.TargetOS != task.OSLinux {
		t.Fatalf("expected default target OS linux, got %q", cfg.TargetOS)
	}
}

func TestParseMissingScriptIsConfigError(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("id: empty\n"))
	if err == nil {
		t.Fatal("expected error for missing script")
	}

	var cfgErr *task.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *task.ConfigError, got %T", err)
	}
	if cfgErr.Field != "Script" {
		t.Fatalf("expected Script field flagged, got %q", cfgErr.Field)
	}
}

func TestParseRejectsUnknownTargetOS(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("script: print(1)\ntargetOS: beos\n"))
	if err == nil {
		t.Fatal("expected error for unknown target OS")
	}
}

func TestParseRejectsInvalidTimeout(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("script: print(1)\ntimeout: soon\n"))
	if err == nil {
		t.Fatal("expected error for invalid timeout")
	}

	var cfgErr *task.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *task.ConfigError, got %T", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "task.yaml")
	if err := os.WriteFile(path, []byte("id: from-file\nscript: print(1)\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ID != "from-file" {
		t.Fatalf("unexpected id: %q", cfg.ID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
