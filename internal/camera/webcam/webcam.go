// Package webcam acquires camera streams from local video devices through
// OpenCV. Facing modes map to configured device IDs since USB webcams do
// not advertise an orientation.
package webcam

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/example/snapcheck/internal/camera"
)

// Opener opens local capture devices. EnvironmentDevice may be negative
// when only one camera exists; environment requests then fall back to the
// user device, mirroring how browsers treat facing as a preference.
type Opener struct {
	UserDevice        int
	EnvironmentDevice int
	Logger            *zap.Logger
}

// Open starts capturing from the device matching the requested facing.
func (o *Opener) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	deviceID := o.UserDevice
	if c.Facing == camera.FacingEnvironment && o.EnvironmentDevice >= 0 {
		deviceID = o.EnvironmentDevice
	}

	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, camera.NewAcquireError(classifyOpenError(err),
			fmt.Errorf("device %d: %w", deviceID, err))
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, camera.NewAcquireError(camera.ErrorDeviceNotFound,
			fmt.Errorf("device %d could not be opened", deviceID))
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.IdealWidth))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.IdealHeight))

	if o.Logger != nil {
		o.Logger.Info("webcam opened",
			zap.Int("device", deviceID),
			zap.String("facing", string(c.Facing)))
	}

	mat := gocv.NewMat()
	s := &stream{capture: capture, mat: mat}
	s.track = &track{stream: s}
	return s, nil
}

func classifyOpenError(err error) camera.ErrorKind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "busy") || strings.Contains(msg, "in use"):
		return camera.ErrorDeviceBusy
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied"):
		return camera.ErrorPermissionDenied
	default:
		return camera.ErrorDeviceNotFound
	}
}

// stream wraps the capture handle with a reusable frame matrix.
type stream struct {
	track *track

	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	closed  bool
}

func (s *stream) ReadFrame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, camera.ErrReleased
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, fmt.Errorf("webcam returned no frame")
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("webcam frame conversion failed: %w", err)
	}
	return img, nil
}

func (s *stream) Tracks() []camera.Track {
	return []camera.Track{s.track}
}

func (s *stream) stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.capture.Close()
}

type track struct {
	stream *stream
}

func (t *track) Kind() string { return "video" }

func (t *track) Stop() error { return t.stream.stop() }

var _ camera.Opener = (*Opener)(nil)
