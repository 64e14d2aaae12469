package camera

import (
	"context"
	"image"
	"sync"
)

// Session owns an acquired stream until released. All methods are safe for
// concurrent use; the preview loop and capture path share one session.
type Session struct {
	mu     sync.Mutex
	stream Stream
	facing Facing
	active bool
}

func newSession(stream Stream, facing Facing) *Session {
	return &Session{stream: stream, facing: facing, active: true}
}

// Facing reports which camera the session was opened with.
func (s *Session) Facing() Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.facing
}

// Active reports whether the session still owns a live stream.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Frame returns the next live frame, or ErrReleased after Release.
func (s *Session) Frame(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	stream := s.stream
	active := s.active
	s.mu.Unlock()

	if !active || stream == nil {
		return nil, ErrReleased
	}
	return stream.ReadFrame(ctx)
}

// Release stops every track on the stream, freeing the device. Calling it
// more than once is safe.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	for _, track := range s.stream.Tracks() {
		_ = track.Stop()
	}
	s.stream = nil
}
