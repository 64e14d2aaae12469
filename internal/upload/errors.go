package upload

import "fmt"

// GenericServiceMessage is surfaced when the service reports failure
// without saying why.
const GenericServiceMessage = "The analysis service reported an unknown error."

// StatusError reports a non-2xx HTTP response from the analysis service.
type StatusError struct {
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis service returned status %d", e.Code)
}

// ServiceError reports a well-formed response whose success flag was
// false or missing. Message is ready to show to the user.
type ServiceError struct {
	Message string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return e.Message
}

// ParseError reports a response body that could not be decoded.
type ParseError struct {
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("analysis response could not be decoded: %v", e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
