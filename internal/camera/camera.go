// Package camera manages exclusive access to a live video source. A Manager
// hands out at most one Session at a time; the Session owns the underlying
// stream until it is released.
package camera

import (
	"context"
	"image"
)

// Facing selects which camera to prefer on devices that expose more than one.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Default acquisition hints. Sources treat these as ideals and may deliver
// any resolution they support.
const (
	DefaultIdealWidth  = 1280
	DefaultIdealHeight = 720
)

// Constraints carries the acquisition hints passed to an Opener.
type Constraints struct {
	Facing      Facing
	IdealWidth  int
	IdealHeight int
}

func (c Constraints) withDefaults() Constraints {
	if c.Facing == "" {
		c.Facing = FacingUser
	}
	if c.IdealWidth <= 0 {
		c.IdealWidth = DefaultIdealWidth
	}
	if c.IdealHeight <= 0 {
		c.IdealHeight = DefaultIdealHeight
	}
	return c
}

// Track is a single stoppable constituent of a stream. Stopping every track
// releases the underlying device.
type Track interface {
	Kind() string
	Stop() error
}

// Stream delivers live frames from an acquired video source.
type Stream interface {
	// ReadFrame blocks until the next frame arrives or ctx is done.
	ReadFrame(ctx context.Context) (image.Image, error)
	Tracks() []Track
}

// Opener acquires a stream from a concrete video source. Implementations
// classify failures with AcquireError so callers can tell the user why the
// camera did not start.
type Opener interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}
