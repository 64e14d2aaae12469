package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// framedSubdir is the directory framed photos land in, mirrored in the
// public URL path.
const framedSubdir = "framed_photos"

// PhotoStore writes framed photos to disk and knows the public URL they
// are served under.
type PhotoStore struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

// NewPhotoStore stores photos under dir and builds URLs on baseURL.
func NewPhotoStore(dir, baseURL string, logger *zap.Logger) *PhotoStore {
	return &PhotoStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.Named("photostore"),
	}
}

// Dir returns the storage root, for static file serving.
func (s *PhotoStore) Dir() string {
	return s.dir
}

// SaveFramed persists one framed JPEG under a unique, sortable name and
// returns the relative path plus the public URL.
func (s *PhotoStore) SaveFramed(data []byte, style string) (string, string, error) {
	timestamp := time.Now().Format("20060102_150405")
	uniqueID := uuid.NewString()[:8]
	name := fmt.Sprintf("%s_%s_%s.jpg", timestamp, uniqueID, style)

	relPath := filepath.Join(framedSubdir, name)
	fullPath := filepath.Join(s.dir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", "", fmt.Errorf("create photo directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write framed photo: %w", err)
	}

	url := s.baseURL + "/photos/files/" + framedSubdir + "/" + name
	s.logger.Info("framed photo stored",
		zap.String("path", relPath),
		zap.Int("bytes", len(data)))
	return relPath, url, nil
}
