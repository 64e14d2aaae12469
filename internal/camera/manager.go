package camera

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Manager serializes acquisition so that at most one session owns the
// camera. Acquiring again releases the previous session first.
type Manager struct {
	opener Opener
	hints  Constraints
	logger *zap.Logger

	mu         sync.Mutex
	current    *Session
	lastFacing Facing
}

// NewManager wires an opener with resolution hints. The facing carried in
// hints seeds the first Retry; each Acquire overrides it.
func NewManager(opener Opener, hints Constraints, logger *zap.Logger) *Manager {
	lastFacing := hints.Facing
	if lastFacing == "" {
		lastFacing = FacingUser
	}
	return &Manager{
		opener:     opener,
		hints:      hints,
		logger:     logger.Named("camera"),
		lastFacing: lastFacing,
	}
}

// Acquire opens a stream for the given facing. Any prior session is
// released before the new one is opened, so the device is never held twice.
func (m *Manager) Acquire(ctx context.Context, facing Facing) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Release()
		m.current = nil
	}

	c := Constraints{
		Facing:      facing,
		IdealWidth:  m.hints.IdealWidth,
		IdealHeight: m.hints.IdealHeight,
	}.withDefaults()
	m.lastFacing = c.Facing

	stream, err := m.opener.Open(ctx, c)
	if err != nil {
		var ae *AcquireError
		if !errors.As(err, &ae) {
			err = NewAcquireError(ErrorUnknown, err)
		}
		m.logger.Warn("camera acquisition failed",
			zap.String("facing", string(c.Facing)),
			zap.String("kind", KindOf(err).String()),
			zap.Error(err))
		return nil, err
	}

	session := newSession(stream, c.Facing)
	m.current = session
	m.logger.Info("camera acquired",
		zap.String("facing", string(c.Facing)),
		zap.Int("ideal_width", c.IdealWidth),
		zap.Int("ideal_height", c.IdealHeight))
	return session, nil
}

// Retry re-attempts acquisition with the most recently requested facing.
func (m *Manager) Retry(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	facing := m.lastFacing
	m.mu.Unlock()
	return m.Acquire(ctx, facing)
}

// Release drops the current session, if any.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.Release()
	m.current = nil
	m.logger.Info("camera released")
}

// Current returns the active session, or nil when none is held.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
