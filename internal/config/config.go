// Package config carries the settings for both binaries: the booth reads
// a YAML file next to the executable, the analysis server reads its
// environment the twelve-factor way.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CameraConfig selects and tunes the booth's frame source.
type CameraConfig struct {
	// Source is "webcam" for a local capture device or "mjpeg" for a
	// network camera streaming multipart JPEG.
	Source string `yaml:"source"`
	// Facing picks the preferred camera, "user" or "environment".
	Facing      string `yaml:"facing"`
	IdealWidth  int    `yaml:"ideal_width"`
	IdealHeight int    `yaml:"ideal_height"`
	// MJPEGURL is the stream endpoint when Source is "mjpeg".
	MJPEGURL string `yaml:"mjpeg_url"`
	// Device IDs for the webcam source. EnvironmentDevice below zero
	// means there is no second camera and "environment" requests fall
	// back to the user device.
	UserDevice        int `yaml:"user_device"`
	EnvironmentDevice int `yaml:"environment_device"`
}

// PhotoConfig tunes the capture compression stage.
type PhotoConfig struct {
	MaxDimension int `yaml:"max_dimension"`
	Quality      int `yaml:"quality"`
}

// Booth is the kiosk binary's configuration.
type Booth struct {
	ListenAddr string `yaml:"listen_addr"`
	// StaticDir, when set, is served as the kiosk page.
	StaticDir string `yaml:"static_dir"`
	// UploadURL is the analysis service's process endpoint.
	UploadURL string `yaml:"upload_url"`
	// StatsPath is where usage counters persist across restarts.
	StatsPath string `yaml:"stats_path"`
	LogLevel  string `yaml:"log_level"`

	Camera CameraConfig `yaml:"camera"`
	Photo  PhotoConfig  `yaml:"photo"`

	PreviewIntervalMS int `yaml:"preview_interval_ms"`
}

// PreviewInterval converts the configured preview cadence.
func (b *Booth) PreviewInterval() time.Duration {
	if b.PreviewIntervalMS <= 0 {
		return 0
	}
	return time.Duration(b.PreviewIntervalMS) * time.Millisecond
}

// DefaultBooth returns the configuration used when no file overrides it.
func DefaultBooth() *Booth {
	b := &Booth{
		ListenAddr:        ":8090",
		UploadURL:         "http://localhost:8080/process",
		StatsPath:         "booth_stats.json",
		LogLevel:          "info",
		PreviewIntervalMS: 100,
	}
	b.Camera = CameraConfig{
		Source:            "webcam",
		Facing:            "user",
		IdealWidth:        1280,
		IdealHeight:       720,
		UserDevice:        0,
		EnvironmentDevice: -1,
	}
	b.Photo = PhotoConfig{
		MaxDimension: 1024,
		Quality:      80,
	}
	return b
}

// LoadBooth reads the booth configuration from dir, preferring
// .config.yaml over config.yaml. A missing file is not an error; the
// defaults apply and the returned path is empty.
func LoadBooth(dir string) (*Booth, string, error) {
	path := filepath.Join(dir, ".config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Join(dir, "config.yaml")
	}

	cfg := DefaultBooth()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, "", nil
		}
		return nil, path, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Server is the analysis service's configuration, read from the
// environment.
type Server struct {
	ListenAddr string
	// DatabaseURL selects the records database: postgres://... for
	// Postgres, sqlite://path or empty for a local SQLite file.
	DatabaseURL string
	RedisAddr   string
	// PublicBaseURL prefixes stored photo paths in responses.
	PublicBaseURL string
	// PhotosDir is the root under which framed photos are written.
	PhotosDir string
	// FramesDir holds the verdict frame overlays (yes.png, no.png).
	FramesDir string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	LogLevel string
}

// ServerFromEnv assembles the server configuration with development
// defaults for everything but the API key.
func ServerFromEnv() *Server {
	return &Server{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		PhotosDir:     getEnv("PHOTOS_DIR", "data"),
		FramesDir:     getEnv("FRAMES_DIR", "frames"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
