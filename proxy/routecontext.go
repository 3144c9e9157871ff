package proxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// RouteContext contains all the request information for a route when matched.
type RouteContext struct {
	Context context.Context
	Request events.APIGatewayV2HTTPRequest
	Params  map[string]string
}

// Body returns a string representation of the request body
func (ctx *RouteContext) Body() (string, error) {
	if ctx.Request.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(ctx.Request.Body)
		if err != nil {
			return "", errors.Wrapf(err, "unable to decode request body for request %v", ctx.Request.RawPath)
		}

		return string(b), nil
	}

	return ctx.Request.Body, nil
}

// DecodeJSON unmarshals the request body into v. An empty body leaves v
// untouched.
func (ctx *RouteContext) DecodeJSON(v interface{}) error {
	body, err := ctx.Body()
	if err != nil {
		return err
	}

	if strings.TrimSpace(body) == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(body), v); err != nil {
		return errors.Wrap(err, "unable to parse request body as json")
	}

	return nil
}
