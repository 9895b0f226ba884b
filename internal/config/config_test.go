package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DownloadDir != "~/Videos/vidgrab" {
		t.Errorf("default download dir = %q, want ~/Videos/vidgrab", cfg.DownloadDir)
	}
	if !cfg.ProbeSizes {
		t.Error("default probe_sizes should be true")
	}
	if !cfg.Journal {
		t.Error("default journal should be true")
	}
	if !cfg.Capture {
		t.Error("default capture should be true")
	}
	if cfg.Debug {
		t.Error("default debug should be false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty download dir", func(c *Config) { c.DownloadDir = "" }, true},
		{"negative priming", func(c *Config) { c.Timing.PrimingMS = -1 }, true},
		{"negative deadline", func(c *Config) { c.Timing.DeadlineMS = -500 }, true},
		{"zero retry entry", func(c *Config) { c.Timing.RetryMS = []int{1000, 0} }, true},
		{"too many retries", func(c *Config) { c.Timing.RetryMS = []int{1, 2, 3, 4, 5, 6} }, true},
		{"valid overrides", func(c *Config) {
			c.Timing = Timing{PrimingMS: 250, RetryMS: []int{500}, GraceMS: 100, DeadlineMS: 2000}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	content := `
download_dir = "/srv/media"
probe_sizes = false
journal = false

[timing]
deadline_ms = 5000
retry_ms = [500, 750]
`
	appDir := filepath.Join(tmpDir, "vidgrab")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DownloadDir != "/srv/media" {
		t.Errorf("download_dir = %q, want /srv/media", cfg.DownloadDir)
	}
	if cfg.ProbeSizes {
		t.Error("probe_sizes should be false")
	}
	if cfg.Journal {
		t.Error("journal should be false")
	}
	if cfg.Timing.DeadlineMS != 5000 {
		t.Errorf("deadline_ms = %d, want 5000", cfg.Timing.DeadlineMS)
	}
	if len(cfg.Timing.RetryMS) != 2 || cfg.Timing.RetryMS[1] != 750 {
		t.Errorf("retry_ms = %v, want [500 750]", cfg.Timing.RetryMS)
	}
	// Unset keys keep their defaults.
	if !cfg.Capture {
		t.Error("capture should keep its default of true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.DownloadDir != "~/Videos/vidgrab" {
		t.Errorf("missing file should return defaults, got %q", cfg.DownloadDir)
	}
}

func TestExpandDownloadDir(t *testing.T) {
	cfg := Default()
	cfg.DownloadDir = "/tmp/test-downloads"

	dir, err := cfg.ExpandDownloadDir()
	if err != nil {
		t.Fatalf("ExpandDownloadDir() error: %v", err)
	}
	if dir != "/tmp/test-downloads" {
		t.Errorf("got %q, want /tmp/test-downloads", dir)
	}
}

func TestResolveJournalPathExplicit(t *testing.T) {
	cfg := Default()
	cfg.JournalPath = "/var/lib/vidgrab/journal.db"

	path, err := cfg.ResolveJournalPath()
	if err != nil {
		t.Fatalf("ResolveJournalPath() error: %v", err)
	}
	if path != "/var/lib/vidgrab/journal.db" {
		t.Errorf("got %q, want the explicit path", path)
	}
}
