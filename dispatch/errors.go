package dispatch

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidRequestError is returned when a request is missing its payload or
// the payload does not match what the operation accepts.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return e.Reason
}

func invalidf(format string, args ...interface{}) error {
	return errors.WithStack(&InvalidRequestError{Reason: fmt.Sprintf(format, args...)})
}

// UnknownOperationError is returned for an operation name that is not one of
// the supported operations.
type UnknownOperationError struct {
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("Unknown operation: %s", e.Operation)
}

// IsInvalidRequest reports whether err was caused by an invalid request.
func IsInvalidRequest(err error) bool {
	_, ok := errors.Cause(err).(*InvalidRequestError)
	return ok
}

// IsUnknownOperation reports whether err was caused by an unknown operation.
func IsUnknownOperation(err error) bool {
	_, ok := errors.Cause(err).(*UnknownOperationError)
	return ok
}
