package proxy

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// ErrorBody is the JSON body of every failed response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func jsonHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
	}
}

// JSONResponse returns a response with v encoded as the JSON body.
func JSONResponse(status int, v interface{}) (events.APIGatewayProxyResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(err, "failed encoding response body")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    jsonHeaders(),
		Body:       string(b),
	}, nil
}

// NoContent returns an empty 204 response.
func NoContent() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNoContent,
		Headers:    jsonHeaders(),
	}
}

// ErrorResponse returns a response carrying an ErrorBody.
func ErrorResponse(status int, message, details string) (events.APIGatewayProxyResponse, error) {
	return JSONResponse(status, ErrorBody{Error: message, Details: details})
}
