package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("EPHEMVID_BASE_URL", "http://localhost:8080/")

	cfg, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL() != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL())
	}
	if cfg.MaxBatchFiles() != 10 {
		t.Errorf("MaxBatchFiles = %d, want 10", cfg.MaxBatchFiles())
	}
	if cfg.MaxFileBytes() != 200*1024*1024 {
		t.Errorf("MaxFileBytes = %d, want %d", cfg.MaxFileBytes(), 200*1024*1024)
	}
	if cfg.IdentityTTL() != 24*time.Hour {
		t.Errorf("IdentityTTL = %v, want 24h", cfg.IdentityTTL())
	}
	if len(cfg.AllowedTypes()) != 3 {
		t.Errorf("AllowedTypes = %v, want 3 defaults", cfg.AllowedTypes())
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port(), DefaultPort)
	}
}

func TestNew_MissingBaseURL(t *testing.T) {
	t.Setenv("EPHEMVID_BASE_URL", "")

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for missing base url")
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("EPHEMVID_BASE_URL", "https://api.example.com")
	t.Setenv("EPHEMVID_MAX_BATCH_FILES", "3")
	t.Setenv("EPHEMVID_MAX_FILE_MIB", "50")
	t.Setenv("EPHEMVID_ALLOWED_TYPES", "video/mp4,video/x-matroska")

	cfg, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxBatchFiles() != 3 {
		t.Errorf("MaxBatchFiles = %d, want 3", cfg.MaxBatchFiles())
	}
	if cfg.MaxFileBytes() != 50*1024*1024 {
		t.Errorf("MaxFileBytes = %d, want 50 MiB", cfg.MaxFileBytes())
	}
	types := cfg.AllowedTypes()
	if len(types) != 2 || types[1] != "video/x-matroska" {
		t.Errorf("AllowedTypes = %v", types)
	}
}

func TestNew_FlagOverridesEnv(t *testing.T) {
	t.Setenv("EPHEMVID_BASE_URL", "https://env.example.com")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--base-url", "https://flag.example.com"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := New(fs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL() != "https://flag.example.com" {
		t.Errorf("BaseURL = %q, want flag value", cfg.BaseURL())
	}
}

func TestNew_ConfigFile(t *testing.T) {
	t.Setenv("EPHEMVID_BASE_URL", "")
	path := filepath.Join(t.TempDir(), "ephemvid.yaml")
	content := "base_url: https://file.example.com\nmax_batch_files: 4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigFile, path)

	cfg, err := New(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL() != "https://file.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL())
	}
	if cfg.MaxBatchFiles() != 4 {
		t.Errorf("MaxBatchFiles = %d, want 4", cfg.MaxBatchFiles())
	}
}
