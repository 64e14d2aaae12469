package booth

import (
	"errors"
	"fmt"

	"github.com/example/snapcheck/internal/camera"
	"github.com/example/snapcheck/internal/upload"
)

const processingCaption = "Analyzing your photo..."

const fallbackMessage = "Something went wrong. Please try again."

// UserMessage converts a pipeline error into the single line shown on the
// error banner. Every error lands here; none escapes to the process level.
func UserMessage(err error) string {
	var acquireErr *camera.AcquireError
	if errors.As(err, &acquireErr) {
		return acquireErr.Message()
	}

	var statusErr *upload.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("The analysis service is unavailable right now (status %d).", statusErr.Code)
	}

	var serviceErr *upload.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}

	var parseErr *upload.ParseError
	if errors.As(err, &parseErr) {
		return "The analysis service returned an unexpected response."
	}

	return fallbackMessage
}
