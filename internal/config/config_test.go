package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/perfmodel/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Database.Path != "./perfmodel.db" {
		t.Errorf("Database.Path = %q, want ./perfmodel.db", cfg.Database.Path)
	}
	if cfg.Scenario.Default != "default" {
		t.Errorf("Scenario.Default = %q, want default", cfg.Scenario.Default)
	}
	if !cfg.ClampZeroEntry() {
		t.Error("ClampZeroEntry() = false, want true")
	}
	if cfg.Merge.ArrivalRateScale != model.DefaultRateScale {
		t.Errorf("ArrivalRateScale = %d, want %d", cfg.Merge.ArrivalRateScale, model.DefaultRateScale)
	}
	if !cfg.ValidationEnabled() {
		t.Error("ValidationEnabled() = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfmodel.yaml")
	content := `
database:
  path: /var/lib/perfmodel/model.db
merge:
  clamp_zero_entry: false
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, got, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	if cfg.Database.Path != "/var/lib/perfmodel/model.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.ClampZeroEntry() {
		t.Error("ClampZeroEntry() = true, want false from file")
	}
	if cfg.Scenario.Default != "default" {
		t.Errorf("Scenario.Default = %q, want default", cfg.Scenario.Default)
	}
	if cfg.Merge.ArrivalRateScale != model.DefaultRateScale {
		t.Errorf("ArrivalRateScale = %d, want default", cfg.Merge.ArrivalRateScale)
	}
	if !cfg.ValidationEnabled() {
		t.Error("ValidationEnabled() = false, want default true")
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "database: [unterminated"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad scale", "merge:\n  arrival_rate_scale: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "perfmodel.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := LoadFromPath(path); err == nil {
				t.Error("LoadFromPath() error = nil, want error")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Scenario.Default = "checkout"
	cfg.Merge.ArrivalRateScale = 6
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Scenario.Default != "checkout" {
		t.Errorf("Scenario.Default = %q, want checkout", loaded.Scenario.Default)
	}
	if loaded.Merge.ArrivalRateScale != 6 {
		t.Errorf("ArrivalRateScale = %d, want 6", loaded.Merge.ArrivalRateScale)
	}
}

func TestFindConfigPath_EnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)

	if got := FindConfigPath(); got != path {
		t.Errorf("FindConfigPath() = %q, want %q", got, path)
	}
}

func TestFindConfigPath_XDG(t *testing.T) {
	t.Chdir(t.TempDir())
	xdg := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	if got := FindConfigPath(); got != "" {
		t.Errorf("FindConfigPath() = %q, want empty with no files", got)
	}

	path := filepath.Join(xdg, ConfigDirName, "config.yaml")
	if err := DefaultConfig().Save(path); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigPath(); got != path {
		t.Errorf("FindConfigPath() = %q, want %q", got, path)
	}
	if got := DefaultConfigPath(); got != path {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, path)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
