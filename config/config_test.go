package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "cfg.yaml", `
store:
  type: sqlite
  db_path: /tmp/test.db
scheduler:
  interval: 30s
  parallelism: 4
verify:
  workers: 2
  queue_size: 16
  timeout: 5s
market:
  seed: 42
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.DBPath != "/tmp/test.db" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	d, err := cfg.Scheduler.ParseInterval()
	if err != nil || d != 30*time.Second {
		t.Fatalf("interval = %v, %v", d, err)
	}
	if cfg.Verify.Workers != 2 || cfg.Verify.QueueSize != 16 {
		t.Fatalf("verify = %+v", cfg.Verify)
	}
	if cfg.Market.Seed != 42 {
		t.Fatalf("seed = %v", cfg.Market.Seed)
	}
}

func TestLoadFromFileJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "cfg.json",
		`{"store": {"type": "memory"}, "scheduler": {"interval": "1m"}}`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Store.Type != "memory" {
		t.Fatalf("store type = %q", cfg.Store.Type)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"bad store type", `{"store": {"type": "postgres"}}`},
		{"sqlite without path", `{"store": {"type": "sqlite"}}`},
		{"bad interval", `{"store": {"type": "memory"}, "scheduler": {"interval": "soon"}}`},
		{"negative workers", `{"store": {"type": "memory"}, "verify": {"workers": -1}}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, "cfg.json", tt.content)
			if _, err := LoadFromFile(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Store.Type != "sqlite" {
		t.Fatalf("default store = %q", cfg.Store.Type)
	}
}
