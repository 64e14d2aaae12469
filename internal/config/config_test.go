package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadBoothDefaultsWhenNoFile(t *testing.T) {
	cfg, path, err := LoadBooth(t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if path != "" {
		t.Fatalf("expected empty path for defaults, got %q", path)
	}
	if cfg.ListenAddr != ":8090" {
		t.Fatalf("unexpected default listen addr %q", cfg.ListenAddr)
	}
	if cfg.Camera.Source != "webcam" || cfg.Camera.Facing != "user" {
		t.Fatalf("unexpected default camera config %+v", cfg.Camera)
	}
	if cfg.Photo.MaxDimension != 1024 || cfg.Photo.Quality != 80 {
		t.Fatalf("unexpected default photo config %+v", cfg.Photo)
	}
	if got := cfg.PreviewInterval(); got != 100*time.Millisecond {
		t.Fatalf("unexpected default preview interval %v", got)
	}
}

func TestLoadBoothReadsFile(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`
listen_addr: ":9000"
upload_url: "http://analysis:8080/process"
camera:
  source: mjpeg
  mjpeg_url: "http://cam:8081/stream"
  facing: environment
photo:
  max_dimension: 800
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, path, err := LoadBooth(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if path != filepath.Join(dir, "config.yaml") {
		t.Fatalf("unexpected path %q", path)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected listen addr override, got %q", cfg.ListenAddr)
	}
	if cfg.Camera.Source != "mjpeg" || cfg.Camera.MJPEGURL != "http://cam:8081/stream" {
		t.Fatalf("camera overrides not applied: %+v", cfg.Camera)
	}
	if cfg.Photo.MaxDimension != 800 {
		t.Fatalf("photo override not applied: %+v", cfg.Photo)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Photo.Quality != 80 {
		t.Fatalf("expected default quality to survive, got %d", cfg.Photo.Quality)
	}
	if cfg.StatsPath != "booth_stats.json" {
		t.Fatalf("expected default stats path to survive, got %q", cfg.StatsPath)
	}
}

func TestLoadBoothPrefersHiddenFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`listen_addr: ":1111"`), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".config.yaml"), []byte(`listen_addr: ":2222"`), 0o644); err != nil {
		t.Fatalf("failed to write hidden config: %v", err)
	}

	cfg, path, err := LoadBooth(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if path != filepath.Join(dir, ".config.yaml") {
		t.Fatalf("expected hidden file to win, got %q", path)
	}
	if cfg.ListenAddr != ":2222" {
		t.Fatalf("expected hidden file's value, got %q", cfg.ListenAddr)
	}
}

func TestLoadBoothRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("listen_addr: [:::"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, _, err := LoadBooth(dir); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestServerFromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("DATABASE_URL", "postgres://pg:5432/snapcheck")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := ServerFromEnv()
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("expected listen addr from env, got %q", cfg.ListenAddr)
	}
	if cfg.DatabaseURL != "postgres://pg:5432/snapcheck" {
		t.Fatalf("expected database url from env, got %q", cfg.DatabaseURL)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Fatalf("expected model from env, got %q", cfg.OpenAIModel)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("expected api key from env, got %q", cfg.OpenAIAPIKey)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("expected default redis addr, got %q", cfg.RedisAddr)
	}
}
