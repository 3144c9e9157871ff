package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/prognoshealth/todolambda/dispatch"
)

// HTTPInvoker posts requests to the dispatcher's API Gateway endpoint.
type HTTPInvoker struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPInvoker returns an invoker for endpoint using a client with timeout.
// A zero timeout means no timeout.
func NewHTTPInvoker(endpoint string, timeout time.Duration) *HTTPInvoker {
	return &HTTPInvoker{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Invoke posts req as JSON and returns the response body.
func (h *HTTPInvoker) Invoke(ctx context.Context, req dispatch.Request) (json.RawMessage, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling dispatch request")
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(err, "failed building request for %s", h.Endpoint)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading dispatch response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if ue := upstreamError(body); ue != nil {
		return nil, ue
	}

	return body, nil
}
