package present

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/example/snapcheck/internal/logging"
	"github.com/example/snapcheck/internal/upload"
)

// maxResultImageBytes bounds the framed photo fetch; the service produces
// images far below this.
const maxResultImageBytes = 32 << 20

// Presenter fetches the framed result photo and reveals it on the surface.
// The image is retained only while the result view is visible, so the
// download action always has the exact bytes being shown.
type Presenter struct {
	surface Surface
	http    *http.Client
	logger  *zap.Logger

	mu        sync.Mutex
	image     []byte
	imageMIME string
	visible   bool
}

// NewPresenter builds a presenter. A nil httpClient selects the default
// client.
func NewPresenter(surface Surface, httpClient *http.Client, logger *zap.Logger) *Presenter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Presenter{
		surface: surface,
		http:    httpClient,
		logger:  logger.Named("present"),
	}
}

// Show fetches the framed image completely and only then reveals the
// result view, so the surface never flashes a half-loaded image.
func (p *Presenter) Show(ctx context.Context, result *upload.Result) error {
	image, mime, err := p.fetchImage(ctx, result.ImageURL)
	if err != nil {
		wrapped := logging.NewOperationError("present.fetch_image", "", err)
		p.logger.Error("result image fetch failed",
			zap.String("url", result.ImageURL), zap.Error(wrapped))
		return wrapped
	}

	view := ViewFor(result)
	view.Image = image
	view.ImageMIME = mime

	p.mu.Lock()
	p.image = image
	p.imageMIME = mime
	p.visible = true
	p.mu.Unlock()

	p.surface.ShowResult(view)
	p.logger.Info("result shown",
		zap.String("verdict", result.Verdict.String()),
		zap.Int("image_bytes", len(image)))
	return nil
}

// Image returns the retained framed photo for the download action. The
// third return is false when no result is visible.
func (p *Presenter) Image() ([]byte, string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.visible {
		return nil, "", false
	}
	return p.image, p.imageMIME, true
}

// Close hides the result view and drops the retained image so it can be
// reclaimed. Calling it with no visible result is a no-op.
func (p *Presenter) Close() {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return
	}
	p.visible = false
	p.image = nil
	p.imageMIME = ""
	p.mu.Unlock()

	p.surface.HideResult()
	p.logger.Info("result closed")
}

func (p *Presenter) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("result image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResultImageBytes))
	if err != nil {
		return nil, "", err
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}
	return data, mime, nil
}
