// Package mjpeg acquires camera streams from an MJPEG-over-HTTP endpoint,
// the kind served by IP cameras and phone camera apps.
package mjpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/snapcheck/internal/camera"
)

const contentTypeMJPEG = "multipart/x-mixed-replace"

// Opener connects to an MJPEG endpoint. The stream stays open until its
// track is stopped or the context passed to Open is cancelled, so callers
// should pass an application-lifetime context.
type Opener struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
}

// Open issues the streaming GET and validates the multipart response.
func (o *Opener) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	endpoint, err := o.buildURL(c)
	if err != nil {
		return nil, camera.NewAcquireError(camera.ErrorUnknown, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, camera.NewAcquireError(camera.ErrorUnknown, err)
	}
	req.Header.Set("Accept", contentTypeMJPEG)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, camera.NewAcquireError(camera.ErrorDeviceNotFound, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, camera.NewAcquireError(classifyStatus(resp.StatusCode),
			fmt.Errorf("stream endpoint returned status %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != contentTypeMJPEG || params["boundary"] == "" {
		resp.Body.Close()
		return nil, camera.NewAcquireError(camera.ErrorConstraintsUnsatisfiable,
			fmt.Errorf("unexpected content type %q", contentType))
	}

	if o.Logger != nil {
		o.Logger.Info("mjpeg stream connected",
			zap.String("url", o.URL),
			zap.String("facing", string(c.Facing)))
	}

	s := &stream{
		resp:   resp,
		reader: multipart.NewReader(resp.Body, params["boundary"]),
	}
	s.track = &track{stream: s}
	return s, nil
}

func (o *Opener) buildURL(c camera.Constraints) (string, error) {
	u, err := url.Parse(o.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("width", strconv.Itoa(c.IdealWidth))
	q.Set("height", strconv.Itoa(c.IdealHeight))
	q.Set("facing", string(c.Facing))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func classifyStatus(code int) camera.ErrorKind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return camera.ErrorPermissionDenied
	case http.StatusNotFound, http.StatusGone:
		return camera.ErrorDeviceNotFound
	case http.StatusConflict, http.StatusLocked, http.StatusServiceUnavailable:
		return camera.ErrorDeviceBusy
	default:
		return camera.ErrorUnknown
	}
}

// stream reads one JPEG frame per multipart part. Invalid parts are
// skipped; readers only see decodable frames. readMu serializes readers
// while stateMu guards the closed flag, so stop can interrupt a blocked
// read by closing the body.
type stream struct {
	resp   *http.Response
	reader *multipart.Reader
	track  *track

	readMu  sync.Mutex
	stateMu sync.Mutex
	closed  bool
}

// maxSkippedParts bounds how many undecodable parts a single ReadFrame
// call will tolerate before giving up on the stream.
const maxSkippedParts = 8

func (s *stream) ReadFrame(ctx context.Context) (image.Image, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.isClosed() {
		return nil, camera.ErrReleased
	}

	var buf bytes.Buffer
	for attempt := 0; attempt < maxSkippedParts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		part, err := s.reader.NextPart()
		if err == io.EOF {
			return nil, fmt.Errorf("mjpeg stream ended: %w", err)
		}
		if err != nil {
			if s.isClosed() {
				return nil, camera.ErrReleased
			}
			return nil, fmt.Errorf("mjpeg part read failed: %w", err)
		}

		buf.Reset()
		_, err = io.Copy(&buf, part)
		part.Close()
		if err != nil {
			continue
		}

		img, err := jpeg.Decode(bytes.NewReader(buf.Bytes()))
		if err != nil {
			continue
		}
		return img, nil
	}
	return nil, fmt.Errorf("mjpeg stream produced no decodable frame in %d parts", maxSkippedParts)
}

func (s *stream) Tracks() []camera.Track {
	return []camera.Track{s.track}
}

func (s *stream) isClosed() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.closed
}

func (s *stream) stop() error {
	s.stateMu.Lock()
	if s.closed {
		s.stateMu.Unlock()
		return nil
	}
	s.closed = true
	s.stateMu.Unlock()

	// Closing the body unblocks any in-flight part read.
	return s.resp.Body.Close()
}

type track struct {
	stream *stream
}

func (t *track) Kind() string { return "video" }

func (t *track) Stop() error { return t.stream.stop() }

var _ camera.Opener = (*Opener)(nil)

// Timeout applied by NewOpener's default client to the initial connection;
// the streaming body itself is not subject to it.
const connectTimeout = 10 * time.Second

// NewOpener builds an Opener with a client suitable for long-lived streams.
func NewOpener(rawURL string, logger *zap.Logger) *Opener {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = connectTimeout
	return &Opener{
		URL:    rawURL,
		Client: &http.Client{Transport: transport},
		Logger: logger,
	}
}
