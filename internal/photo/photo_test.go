package photo

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"testing"

	"go.uber.org/zap"

	"github.com/example/snapcheck/internal/camera"
)

type fixedTrack struct{}

func (fixedTrack) Kind() string { return "video" }
func (fixedTrack) Stop() error  { return nil }

type fixedStream struct {
	frame image.Image
}

func (s *fixedStream) ReadFrame(ctx context.Context) (image.Image, error) {
	return s.frame, nil
}

func (s *fixedStream) Tracks() []camera.Track { return []camera.Track{fixedTrack{}} }

type fixedOpener struct {
	stream camera.Stream
}

func (o *fixedOpener) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	return o.stream, nil
}

func acquireSession(t *testing.T, frame image.Image) *camera.Session {
	t.Helper()
	opener := &fixedOpener{stream: &fixedStream{frame: frame}}
	mgr := camera.NewManager(opener, camera.Constraints{}, zap.NewNop())
	session, err := mgr.Acquire(context.Background(), camera.FacingUser)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	return session
}

func TestEncodeBoundsLongerSide(t *testing.T) {
	c := NewCompressor()
	photo, err := c.Encode(image.NewRGBA(image.Rect(0, 0, 1920, 1080)))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if photo.Width != 1024 {
		t.Fatalf("expected longer side 1024, got %d", photo.Width)
	}
	if photo.Height != 576 {
		t.Fatalf("expected proportional height 576, got %d", photo.Height)
	}
	if photo.MIME != "image/jpeg" {
		t.Fatalf("unexpected MIME type: %s", photo.MIME)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}
	if got := decoded.Bounds(); got.Dx() != 1024 || got.Dy() != 576 {
		t.Fatalf("decoded bounds mismatch: %v", got)
	}
}

func TestEncodeBoundsPortraitFrames(t *testing.T) {
	c := NewCompressor()
	photo, err := c.Encode(image.NewRGBA(image.Rect(0, 0, 1080, 1920)))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if photo.Height != 1024 {
		t.Fatalf("expected longer side 1024, got %d", photo.Height)
	}
	if photo.Width != 576 {
		t.Fatalf("expected proportional width 576, got %d", photo.Width)
	}
}

func TestEncodeLeavesSmallFramesUntouched(t *testing.T) {
	c := NewCompressor()
	photo, err := c.Encode(image.NewRGBA(image.Rect(0, 0, 800, 600)))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if photo.Width != 800 || photo.Height != 600 {
		t.Fatalf("expected 800x600 passthrough, got %dx%d", photo.Width, photo.Height)
	}
}

func TestEncodeWithRescaleDisabled(t *testing.T) {
	c := &Compressor{MaxDimension: 0, Quality: DefaultQuality}
	photo, err := c.Encode(image.NewRGBA(image.Rect(0, 0, 2048, 1536)))
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if photo.Width != 2048 || photo.Height != 1536 {
		t.Fatalf("expected native resolution, got %dx%d", photo.Width, photo.Height)
	}
}

func TestQualityClampsToSupportedBand(t *testing.T) {
	cases := []struct {
		configured int
		expected   int
	}{
		{0, DefaultQuality},
		{50, 75},
		{77, 77},
		{100, 80},
	}
	for _, tc := range cases {
		c := &Compressor{Quality: tc.configured}
		if got := c.quality(); got != tc.expected {
			t.Fatalf("quality %d: expected clamp to %d, got %d", tc.configured, tc.expected, got)
		}
	}
}

func TestCaptureSkipsWithoutSession(t *testing.T) {
	c := NewCompressor()
	photo, err := c.Capture(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected silent skip, got error: %v", err)
	}
	if photo != nil {
		t.Fatalf("expected no photo, got %+v", photo)
	}
}

func TestCaptureSkipsReleasedSession(t *testing.T) {
	session := acquireSession(t, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	session.Release()

	c := NewCompressor()
	photo, err := c.Capture(context.Background(), session)
	if err != nil {
		t.Fatalf("expected silent skip, got error: %v", err)
	}
	if photo != nil {
		t.Fatalf("expected no photo, got %+v", photo)
	}
}

func TestCaptureEncodesLiveFrame(t *testing.T) {
	session := acquireSession(t, image.NewRGBA(image.Rect(0, 0, 32, 24)))

	c := NewCompressor()
	photo, err := c.Capture(context.Background(), session)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if photo == nil {
		t.Fatal("expected a photo")
	}
	if photo.Width != 32 || photo.Height != 24 {
		t.Fatalf("unexpected dimensions: %dx%d", photo.Width, photo.Height)
	}
	if len(photo.Data) == 0 {
		t.Fatal("expected encoded bytes")
	}
}
