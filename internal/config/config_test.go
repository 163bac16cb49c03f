package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load with no config file failed: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.PreviewTTLSec != 180 {
		t.Errorf("PreviewTTLSec = %d, want 180", cfg.PreviewTTLSec)
	}
	if cfg.JobRetentionHours != 24 {
		t.Errorf("JobRetentionHours = %d, want 24", cfg.JobRetentionHours)
	}
	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q, want :8000", cfg.ListenAddr)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
listen_addr = ":9001"
workers = 4
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != ":9001" {
		t.Errorf("ListenAddr = %q, want :9001", cfg.ListenAddr)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.PreviewTTLSec != 180 {
		t.Errorf("PreviewTTLSec = %d, want 180", cfg.PreviewTTLSec)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`cookies_file = "from_file.txt"`), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("STREAMDL_COOKIES_FILE", "from_env.txt")
	t.Setenv("STREAMDL_FFMPEG_PATH", "/opt/ffmpeg")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CookiesFile != "from_env.txt" {
		t.Errorf("CookiesFile = %q, want the env override", cfg.CookiesFile)
	}
	if cfg.FFmpegPath != "/opt/ffmpeg" {
		t.Errorf("FFmpegPath = %q, want the env override", cfg.FFmpegPath)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Empty downloads dir", `downloads_dir = ""`},
		{"Zero preview TTL", `preview_ttl_sec = 0`},
		{"Zero retention", `job_retention_hours = 0`},
		{"Unknown log level", `log_level = "chatty"`},
		{"Malformed TOML", `workers = [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0600); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load accepted an invalid config")
			}
		})
	}
}

func TestLoadClampsWorkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`workers = 0`), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want clamp to 1", cfg.Workers)
	}
}
