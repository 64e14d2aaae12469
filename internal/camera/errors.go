package camera

import (
	"errors"
	"fmt"
)

// ErrReleased is returned when a frame is requested from a released session.
var ErrReleased = errors.New("camera: session released")

// ErrorKind classifies acquisition failures into user-meaningful categories.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorPermissionDenied
	ErrorDeviceNotFound
	ErrorDeviceBusy
	ErrorConstraintsUnsatisfiable
)

// String returns the kind's identifier for logs.
func (k ErrorKind) String() string {
	switch k {
	case ErrorPermissionDenied:
		return "permission_denied"
	case ErrorDeviceNotFound:
		return "device_not_found"
	case ErrorDeviceBusy:
		return "device_busy"
	case ErrorConstraintsUnsatisfiable:
		return "constraints_unsatisfiable"
	default:
		return "unknown"
	}
}

// AcquireError reports why a camera could not be acquired.
type AcquireError struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *AcquireError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("camera acquisition failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("camera acquisition failed (%s)", e.Kind)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AcquireError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Message returns the single line shown to the user for this failure.
func (e *AcquireError) Message() string {
	switch e.Kind {
	case ErrorPermissionDenied:
		return "Camera access was denied. Allow camera access and try again."
	case ErrorDeviceNotFound:
		return "No camera was found on this device."
	case ErrorDeviceBusy:
		return "The camera is already in use by another application."
	case ErrorConstraintsUnsatisfiable:
		return "The camera does not support the requested settings."
	default:
		return "Could not start the camera."
	}
}

// NewAcquireError classifies an acquisition failure.
func NewAcquireError(kind ErrorKind, err error) *AcquireError {
	return &AcquireError{Kind: kind, Err: err}
}

// KindOf extracts the classification from an acquisition error, returning
// ErrorUnknown for anything that is not an AcquireError.
func KindOf(err error) ErrorKind {
	var ae *AcquireError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ErrorUnknown
}
