// Package framer composites a verdict frame around a processed photo.
// Frames are PNG overlays with a transparent window; the photo is
// fit-resized into the window area and the frame drawn on top.
package framer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	StyleYes = "yes"
	StyleNo  = "no"

	// FramePadding is the border reserved for the frame graphics on each
	// side of the photo area.
	FramePadding = 50

	// framedQuality is the output encoding quality.
	framedQuality = 85
)

// Compositor holds the loaded frame overlays, one per verdict style.
type Compositor struct {
	frames map[string]image.Image
	logger *zap.Logger
}

// LoadCompositor reads yes.png and no.png from dir. A missing or
// undecodable frame fails the boot; there is no sensible fallback.
func LoadCompositor(dir string, logger *zap.Logger) (*Compositor, error) {
	logger = logger.Named("framer")

	frames := make(map[string]image.Image, 2)
	for _, style := range []string{StyleYes, StyleNo} {
		path := filepath.Join(dir, style+".png")
		frame, err := loadPNG(path)
		if err != nil {
			return nil, fmt.Errorf("load %s frame: %w", style, err)
		}
		bounds := frame.Bounds()
		logger.Info("frame loaded",
			zap.String("style", style),
			zap.Int("width", bounds.Dx()),
			zap.Int("height", bounds.Dy()))
		frames[style] = frame
	}

	return &Compositor{frames: frames, logger: logger}, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// Compose centers the photo on a white canvas sized like the frame,
// fit-resized into the padded window, and overlays the frame graphics.
// The caller decides what to do on error; the pipeline falls back to
// the unframed photo.
func (c *Compositor) Compose(photo image.Image, style string) (image.Image, error) {
	frame, ok := c.frames[style]
	if !ok {
		return nil, fmt.Errorf("no frame loaded for style %q", style)
	}

	frameBounds := frame.Bounds()
	frameWidth := frameBounds.Dx()
	frameHeight := frameBounds.Dy()

	target, err := fitSize(photo.Bounds().Size(),
		frameWidth-2*FramePadding, frameHeight-2*FramePadding)
	if err != nil {
		return nil, err
	}

	resized := image.NewRGBA(image.Rect(0, 0, target.X, target.Y))
	draw.CatmullRom.Scale(resized, resized.Bounds(), photo, photo.Bounds(), draw.Src, nil)

	canvas := image.NewRGBA(image.Rect(0, 0, frameWidth, frameHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	offset := image.Pt((frameWidth-target.X)/2, (frameHeight-target.Y)/2)
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(target)},
		resized, image.Point{}, draw.Src)

	draw.Draw(canvas, canvas.Bounds(), frame, frameBounds.Min, draw.Over)
	return canvas, nil
}

// fitSize scales size to fit within target bounds preserving aspect
// ratio. Dimensions are truncated; a degenerate result is an error.
func fitSize(size image.Point, targetWidth, targetHeight int) (image.Point, error) {
	if targetWidth < 1 || targetHeight < 1 {
		return image.Point{}, fmt.Errorf("frame window %dx%d is too small", targetWidth, targetHeight)
	}
	if size.X < 1 || size.Y < 1 {
		return image.Point{}, fmt.Errorf("photo size %dx%d is degenerate", size.X, size.Y)
	}

	widthRatio := float64(targetWidth) / float64(size.X)
	heightRatio := float64(targetHeight) / float64(size.Y)
	ratio := widthRatio
	if heightRatio < ratio {
		ratio = heightRatio
	}

	fitted := image.Pt(int(float64(size.X)*ratio), int(float64(size.Y)*ratio))
	if fitted.X < 1 || fitted.Y < 1 {
		return image.Point{}, fmt.Errorf("photo %dx%d collapses inside frame window %dx%d",
			size.X, size.Y, targetWidth, targetHeight)
	}
	return fitted, nil
}

// EncodeJPEG renders the composited image for storage.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: framedQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
