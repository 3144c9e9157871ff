package proxy

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteContext_Body(t *testing.T) {
	request := testRequest(POST, "/yolo")
	request.Body = "some content"

	ctx := &RouteContext{Request: request}

	actual, err := ctx.Body()

	assert.NoError(t, err)
	assert.Equal(t, "some content", actual)
}

func TestRouteContext_Body_encoded(t *testing.T) {
	request := testRequest(POST, "/yolo")
	request.Body = base64.StdEncoding.EncodeToString([]byte("hey dude!"))
	request.IsBase64Encoded = true

	ctx := &RouteContext{Request: request}

	actual, err := ctx.Body()

	assert.NoError(t, err)
	assert.Equal(t, "hey dude!", actual)
}

func TestRouteContext_Body_error(t *testing.T) {
	request := testRequest(POST, "/yolo")
	request.Body = "sefdfxsdf.d.dsd"
	request.IsBase64Encoded = true

	ctx := &RouteContext{Request: request}

	_, err := ctx.Body()

	assert.Error(t, err)
}

func TestRouteContext_DecodeJSON(t *testing.T) {
	request := testRequest(POST, "/yolo")
	request.Body = `{"text":"buy milk"}`

	ctx := &RouteContext{Request: request}

	var v struct {
		Text string `json:"text"`
	}

	assert.NoError(t, ctx.DecodeJSON(&v))
	assert.Equal(t, "buy milk", v.Text)
}

func TestRouteContext_DecodeJSON_empty(t *testing.T) {
	request := testRequest(POST, "/yolo")
	request.Body = "  "

	ctx := &RouteContext{Request: request}

	v := map[string]string{"untouched": "yes"}

	assert.NoError(t, ctx.DecodeJSON(&v))
	assert.Equal(t, map[string]string{"untouched": "yes"}, v)
}

func TestRouteContext_DecodeJSON_error(t *testing.T) {
	request := testRequest(POST, "/yolo")
	request.Body = `{"text":`

	ctx := &RouteContext{Request: request}

	var v map[string]interface{}
	err := ctx.DecodeJSON(&v)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unable to parse request body as json")
}
