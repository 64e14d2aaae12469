// Package photo turns live camera frames into upload-ready JPEG stills.
package photo

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/example/snapcheck/internal/camera"
)

// Compression defaults. The quality band is deliberately narrow; the
// analysis service does not benefit from larger uploads.
const (
	DefaultMaxDimension = 1024
	DefaultQuality      = 80
	minQuality          = 75
	maxQuality          = 80
)

// EncodedPhoto is a finished still. It is handed to the upload pipeline
// once and dropped afterwards; nothing retains the buffer.
type EncodedPhoto struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Compressor converts raw frames into bounded JPEG stills.
type Compressor struct {
	// MaxDimension caps the longer side of the output. Zero or negative
	// disables rescaling.
	MaxDimension int
	// Quality is clamped to the supported band; zero selects the default.
	Quality int
}

// NewCompressor returns a compressor with the default bounds.
func NewCompressor() *Compressor {
	return &Compressor{MaxDimension: DefaultMaxDimension, Quality: DefaultQuality}
}

// Capture snapshots the next frame of the session and encodes it. When the
// session is absent, released, or yields no frame, capture is skipped and
// (nil, nil) is returned; a skipped capture is not an error.
func (c *Compressor) Capture(ctx context.Context, session *camera.Session) (*EncodedPhoto, error) {
	if session == nil || !session.Active() {
		return nil, nil
	}

	frame, err := session.Frame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if frame == nil {
		return nil, nil
	}

	return c.Encode(frame)
}

// Encode rescales a frame to the configured bound and JPEG-encodes it.
func (c *Compressor) Encode(frame image.Image) (*EncodedPhoto, error) {
	img := c.rescale(frame)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality()}); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &EncodedPhoto{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// rescale shrinks the frame proportionally so its longer side fits
// MaxDimension. Frames already inside the bound pass through untouched.
func (c *Compressor) rescale(src image.Image) image.Image {
	if c.MaxDimension <= 0 {
		return src
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longer := width
	if height > width {
		longer = height
	}
	if longer <= c.MaxDimension {
		return src
	}

	ratio := float64(c.MaxDimension) / float64(longer)
	newWidth := int(math.Round(float64(width) * ratio))
	newHeight := int(math.Round(float64(height) * ratio))
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}

func (c *Compressor) quality() int {
	q := c.Quality
	if q == 0 {
		q = DefaultQuality
	}
	if q < minQuality {
		q = minQuality
	}
	if q > maxQuality {
		q = maxQuality
	}
	return q
}
