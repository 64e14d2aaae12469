// Package booth drives the capture pipeline: camera acquisition, capture,
// upload, and result presentation, one cycle at a time.
package booth

// State identifies where the capture cycle currently is. Transitions are
// owned by the Workflow; surfaces only observe them.
type State int

const (
	StateIdle State = iota
	StateAcquiringCamera
	StatePreviewActive
	StateCapturing
	StateUploading
	StateResultShown
	StateError
)

// String returns the state's identifier as pushed to surfaces.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiringCamera:
		return "acquiringCamera"
	case StatePreviewActive:
		return "previewActive"
	case StateCapturing:
		return "capturing"
	case StateUploading:
		return "uploading"
	case StateResultShown:
		return "resultShown"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
