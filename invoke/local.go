package invoke

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/prognoshealth/todolambda/dispatch"
)

// LocalInvoker runs a dispatcher in process. Requests and results still go
// through JSON so the behavior matches a remote function, including errors
// which come back as UpstreamError.
type LocalInvoker struct {
	Dispatcher *dispatch.Dispatcher
}

// Invoke dispatches req in process.
func (l *LocalInvoker) Invoke(ctx context.Context, req dispatch.Request) (json.RawMessage, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling dispatch request")
	}

	var event dispatch.Request
	if err := json.Unmarshal(b, &event); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling dispatch request")
	}

	result, err := l.Dispatcher.Handle(ctx, event)
	if err != nil {
		return nil, &UpstreamError{Type: errorType(err), Message: err.Error()}
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling dispatch result")
	}

	return out, nil
}
