// Package invoke calls the todo dispatcher function, either through its HTTP
// endpoint, directly through the Lambda API, or in process.
package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/prognoshealth/todolambda/dispatch"
)

// Invoker sends a request to the dispatcher and returns its raw JSON result.
type Invoker interface {
	Invoke(ctx context.Context, req dispatch.Request) (json.RawMessage, error)
}

// UpstreamError is an error reported by the dispatcher function itself, as
// opposed to a transport failure.
type UpstreamError struct {
	Type    string `json:"errorType"`
	Message string `json:"errorMessage"`
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return "Lambda function error"
	}

	return e.Message
}

// StatusError is returned when the endpoint answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// upstreamError returns an UpstreamError when body is a JSON object carrying
// an errorType marker, and nil otherwise.
func upstreamError(body []byte) *UpstreamError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	ue := &UpstreamError{}
	if err := json.Unmarshal(trimmed, ue); err != nil || ue.Type == "" {
		return nil
	}

	return ue
}

// errorType names err the way the Lambda runtime does: the bare type name
// without pointer or package.
func errorType(err error) string {
	t := reflect.TypeOf(err)
	if t.Kind() == reflect.Ptr {
		return t.Elem().Name()
	}

	return t.Name()
}
