// Package proxy is the REST face of the todo service. It translates
// /api/todos requests into dispatcher calls and dispatcher results into HTTP
// responses.
//
// Requests are routed with a small regex router working on
// events.APIGatewayV2HTTPRequest and events.APIGatewayProxyResponse, so the
// same handlers run behind API Gateway as a lambda or inside a plain
// net/http server through Server.
package proxy
