package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prognoshealth/todolambda/dispatch"
	"github.com/prognoshealth/todolambda/invoke"
	"github.com/prognoshealth/todolambda/store"
	"github.com/prognoshealth/todolambda/todo"
)

const testTable = "todos"

type mockInvoker struct {
	requests []dispatch.Request
	result   json.RawMessage
	err      error
}

func (m *mockInvoker) Invoke(ctx context.Context, req dispatch.Request) (json.RawMessage, error) {
	m.requests = append(m.requests, req)
	return m.result, m.err
}

// operationInvoker replaces the operation of every request before passing it on.
type operationInvoker struct {
	invoke.Invoker
	operation string
}

func (o *operationInvoker) Invoke(ctx context.Context, req dispatch.Request) (json.RawMessage, error) {
	req.Operation = o.operation
	return o.Invoker.Invoke(ctx, req)
}

func localAPI(t *testing.T) (*TodoAPI, *store.MemoryStore) {
	t.Helper()

	s := store.NewMemoryStore(todo.IDAttribute)
	d := dispatch.New(testTable, s, nil)

	return NewTodoAPI(&invoke.LocalInvoker{Dispatcher: d}, nil), s
}

func serve(t *testing.T, api *TodoAPI, method HttpMethod, path, body string) events.APIGatewayProxyResponse {
	t.Helper()

	router, err := api.Router()
	require.NoError(t, err)

	request := testRequest(method, path)
	request.Body = body

	response, err := router.Route(context.Background(), request)
	require.NoError(t, err)

	return response
}

func decodeError(t *testing.T, response events.APIGatewayProxyResponse) ErrorBody {
	t.Helper()

	body := ErrorBody{}
	require.NoError(t, json.Unmarshal([]byte(response.Body), &body))

	return body
}

func listTodos(t *testing.T, api *TodoAPI) []todo.Todo {
	t.Helper()

	response := serve(t, api, GET, "/api/todos", "")
	require.Equal(t, http.StatusOK, response.StatusCode)

	var todos []todo.Todo
	require.NoError(t, json.Unmarshal([]byte(response.Body), &todos))

	return todos
}

func TestParseUpdateResponse(t *testing.T) {
	cases := []struct {
		name     string
		expected UpdateResponse
		err      bool
	}{
		{"", UpdateNoContent, false},
		{"no-content", UpdateNoContent, false},
		{"updated", UpdateRecord, false},
		{"UPDATED", "", true},
		{"full", "", true},
	}

	for _, c := range cases {
		actual, err := ParseUpdateResponse(c.name)
		if c.err {
			assert.Error(t, err, c.name)
			continue
		}

		assert.NoError(t, err, c.name)
		assert.Equal(t, c.expected, actual, c.name)
	}
}

func TestTodoAPI_list(t *testing.T) {
	m := &mockInvoker{result: json.RawMessage(`[{"id":"1","text":"a"},{"id":"2","text":"b"}]`)}
	api := NewTodoAPI(m, nil)

	response := serve(t, api, GET, "/api/todos", "")

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "application/json", response.Headers["Content-Type"])
	assert.JSONEq(t, `[{"id":"1","text":"a"},{"id":"2","text":"b"}]`, response.Body)
	assert.Equal(t, []dispatch.Request{dispatch.ScanTodos()}, m.requests)
}

func TestTodoAPI_list_notArray(t *testing.T) {
	for _, result := range []string{`null`, `{"Items":[]}`, `"nope"`, ``} {
		api := NewTodoAPI(&mockInvoker{result: json.RawMessage(result)}, nil)

		response := serve(t, api, GET, "/api/todos", "")

		assert.Equal(t, http.StatusOK, response.StatusCode, result)
		assert.Equal(t, `[]`, response.Body, result)
	}
}

func TestTodoAPI_list_notArrayLogsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	api := NewTodoAPI(&mockInvoker{result: json.RawMessage(`{"Items":[]}`)}, zap.New(core))

	router, err := api.Router()
	require.NoError(t, err)

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})
	response, err := router.Route(ctx, testRequest(GET, "/api/todos"))

	require.NoError(t, err)
	assert.Equal(t, `[]`, response.Body)

	entries := logs.FilterMessage("scan result is not a list").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, `{"Items":[]}`, entries[0].ContextMap()["result"])
}

func TestTodoAPI_list_error(t *testing.T) {
	api := NewTodoAPI(&mockInvoker{err: &invoke.UpstreamError{Type: "ResourceNotFoundException", Message: "Requested resource not found"}}, nil)

	response := serve(t, api, GET, "/api/todos", "")

	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.Equal(t, ErrorBody{Error: MsgFetchFailed, Details: "Requested resource not found"}, decodeError(t, response))
}

func TestTodoAPI_create(t *testing.T) {
	m := &mockInvoker{result: json.RawMessage(`{}`)}
	api := NewTodoAPI(m, nil)
	api.NewID = func() string { return "abc" }

	response := serve(t, api, POST, "/api/todos", `{"text":"buy milk"}`)

	assert.Equal(t, http.StatusCreated, response.StatusCode)
	assert.JSONEq(t, `{"id":"abc","text":"buy milk"}`, response.Body)

	require.Len(t, m.requests, 1)
	assert.Equal(t, dispatch.OpCreate, m.requests[0].Operation)
	assert.JSONEq(t, `{"Item":{"id":"abc","text":"buy milk"}}`, string(m.requests[0].Payload))
}

func TestTodoAPI_create_textRequired(t *testing.T) {
	for _, body := range []string{``, `{}`, `{"text":""}`, `{"text":null}`, `{"other":"x"}`} {
		m := &mockInvoker{}
		api := NewTodoAPI(m, nil)

		response := serve(t, api, POST, "/api/todos", body)

		assert.Equal(t, http.StatusBadRequest, response.StatusCode, body)
		assert.Equal(t, ErrorBody{Error: "Todo text is required"}, decodeError(t, response), body)
		assert.Empty(t, m.requests, body)
	}
}

func TestTodoAPI_create_whitespaceText(t *testing.T) {
	api, _ := localAPI(t)

	response := serve(t, api, POST, "/api/todos", `{"text":"   "}`)
	require.Equal(t, http.StatusCreated, response.StatusCode, response.Body)

	created := todo.Todo{}
	require.NoError(t, json.Unmarshal([]byte(response.Body), &created))
	assert.Equal(t, "   ", created.Text)

	response = serve(t, api, GET, "/api/todos", "")
	assert.JSONEq(t, `[{"id":"`+created.ID+`","text":"   "}]`, response.Body)
}

func TestTodoAPI_create_malformed(t *testing.T) {
	for _, body := range []string{`{"text":`, `{"text":5}`, `[]`} {
		m := &mockInvoker{}
		api := NewTodoAPI(m, nil)

		response := serve(t, api, POST, "/api/todos", body)

		assert.Equal(t, http.StatusBadRequest, response.StatusCode, body)
		assert.Equal(t, MsgInvalidBody, decodeError(t, response).Error, body)
		assert.Empty(t, m.requests, body)
	}
}

func TestTodoAPI_create_error(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	api := NewTodoAPI(&mockInvoker{err: &invoke.StatusError{StatusCode: 502}}, zap.New(core))
	api.NewID = func() string { return "abc" }

	response := serve(t, api, POST, "/api/todos", `{"text":"a"}`)

	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.Equal(t, ErrorBody{Error: MsgAddFailed, Details: "Request failed with status code 502"}, decodeError(t, response))

	entries := logs.FilterMessage(MsgAddFailed).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "create", entries[0].ContextMap()["operation"])
	assert.Equal(t, "abc", entries[0].ContextMap()["id"])
}

func TestTodoAPI_delete(t *testing.T) {
	m := &mockInvoker{result: json.RawMessage(`{}`)}
	api := NewTodoAPI(m, nil)

	response := serve(t, api, DELETE, "/api/todos/abc", "")

	assert.Equal(t, http.StatusNoContent, response.StatusCode)
	assert.Empty(t, response.Body)

	require.Len(t, m.requests, 1)
	assert.Equal(t, dispatch.OpDelete, m.requests[0].Operation)
	assert.JSONEq(t, `{"Key":{"id":"abc"}}`, string(m.requests[0].Payload))
}

func TestTodoAPI_delete_error(t *testing.T) {
	api := NewTodoAPI(&mockInvoker{err: errors.New("connection refused")}, nil)

	response := serve(t, api, DELETE, "/api/todos/abc", "")

	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.Equal(t, ErrorBody{Error: MsgDeleteFailed, Details: "connection refused"}, decodeError(t, response))
}

func TestTodoAPI_update(t *testing.T) {
	for _, method := range []HttpMethod{PATCH, PUT} {
		m := &mockInvoker{result: json.RawMessage(`{}`)}
		api := NewTodoAPI(m, nil)

		response := serve(t, api, method, "/api/todos/abc", `{"text":"b"}`)

		assert.Equal(t, http.StatusNoContent, response.StatusCode, method.String())

		require.Len(t, m.requests, 1)
		assert.Equal(t, dispatch.OpUpdate, m.requests[0].Operation)
		assert.JSONEq(t, `{
			"Key":{"id":"abc"},
			"UpdateExpression":"SET #text = :text",
			"ExpressionAttributeNames":{"#text":"text"},
			"ExpressionAttributeValues":{":text":"b"}
		}`, string(m.requests[0].Payload))
	}
}

func TestTodoAPI_update_record(t *testing.T) {
	m := &mockInvoker{result: json.RawMessage(`{"Attributes":{"id":"abc","text":"b"}}`)}
	api := NewTodoAPI(m, nil)
	api.UpdateResponse = UpdateRecord

	response := serve(t, api, PATCH, "/api/todos/abc", `{"text":"b"}`)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.JSONEq(t, `{"id":"abc","text":"b"}`, response.Body)

	require.Len(t, m.requests, 1)
	payload := dispatch.UpdatePayload{}
	require.NoError(t, json.Unmarshal(m.requests[0].Payload, &payload))
	assert.Equal(t, store.ReturnAllNew, payload.ReturnValues)
}

func TestTodoAPI_update_recordWithoutAttributes(t *testing.T) {
	api := NewTodoAPI(&mockInvoker{result: json.RawMessage(`{}`)}, nil)
	api.UpdateResponse = UpdateRecord

	response := serve(t, api, PATCH, "/api/todos/abc", `{"text":"b"}`)

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.JSONEq(t, `{"id":"abc","text":"b"}`, response.Body)
}

func TestTodoAPI_update_textRequired(t *testing.T) {
	m := &mockInvoker{}
	api := NewTodoAPI(m, nil)

	response := serve(t, api, PATCH, "/api/todos/abc", `{"text":""}`)

	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	assert.Equal(t, "Todo text is required", decodeError(t, response).Error)
	assert.Empty(t, m.requests)
}

func TestTodoAPI_update_error(t *testing.T) {
	api := NewTodoAPI(&mockInvoker{err: errors.New("boom")}, nil)

	response := serve(t, api, PUT, "/api/todos/abc", `{"text":"b"}`)

	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)
	assert.Equal(t, ErrorBody{Error: MsgUpdateFailed, Details: "boom"}, decodeError(t, response))
}

func TestTodoAPI_notFound(t *testing.T) {
	cases := []struct {
		method HttpMethod
		path   string
	}{
		{GET, "/"},
		{GET, "/api/todo"},
		{DELETE, "/api/todos/abc/more"},
		{GET, "/api/todos/abc/more"},
	}

	for _, c := range cases {
		api := NewTodoAPI(&mockInvoker{}, nil)

		response := serve(t, api, c.method, c.path, "")

		label := fmt.Sprintf("%s %s", c.method, c.path)
		assert.Equal(t, http.StatusNotFound, response.StatusCode, label)
		assert.Equal(t, ErrorBody{Error: MsgNotFound}, decodeError(t, response), label)
	}
}

func TestTodoAPI_methodNotAllowed(t *testing.T) {
	cases := []struct {
		method HttpMethod
		path   string
		allow  string
	}{
		{GET, "/api/todos/abc", "DELETE, PATCH, PUT"},
		{POST, "/api/todos/abc", "DELETE, PATCH, PUT"},
		{DELETE, "/api/todos", "GET, POST"},
		{PATCH, "/api/todos/", "GET, POST"},
	}

	for _, c := range cases {
		invoker := &mockInvoker{}
		api := NewTodoAPI(invoker, nil)

		response := serve(t, api, c.method, c.path, "")

		label := fmt.Sprintf("%s %s", c.method, c.path)
		assert.Equal(t, http.StatusMethodNotAllowed, response.StatusCode, label)
		assert.Equal(t, c.allow, response.Headers["Allow"], label)
		assert.Equal(t, ErrorBody{Error: MsgNotAllowed}, decodeError(t, response), label)
		assert.Empty(t, invoker.requests, label)
	}
}

func TestTodoAPI_createUniqueIDs(t *testing.T) {
	api, _ := localAPI(t)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		text := fmt.Sprintf("  item %d ", i)
		body, err := json.Marshal(map[string]string{"text": text})
		require.NoError(t, err)

		response := serve(t, api, POST, "/api/todos", string(body))
		require.Equal(t, http.StatusCreated, response.StatusCode)

		created := todo.Todo{}
		require.NoError(t, json.Unmarshal([]byte(response.Body), &created))

		assert.Equal(t, text, created.Text)
		assert.False(t, seen[created.ID], created.ID)
		seen[created.ID] = true
	}

	assert.Len(t, listTodos(t, api), 50)
}

func TestTodoAPI_textRequiredNeverReachesStore(t *testing.T) {
	api, s := localAPI(t)

	response := serve(t, api, POST, "/api/todos", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)

	items, err := s.Scan(context.Background(), testTable)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTodoAPI_deleteMissing(t *testing.T) {
	api, _ := localAPI(t)

	response := serve(t, api, DELETE, "/api/todos/missing", "")

	assert.Equal(t, http.StatusNoContent, response.StatusCode)
}

func TestTodoAPI_createUpdateList(t *testing.T) {
	api, _ := localAPI(t)
	api.NewID = func() string { return "x" }

	response := serve(t, api, POST, "/api/todos", `{"text":"a"}`)
	require.Equal(t, http.StatusCreated, response.StatusCode)

	response = serve(t, api, PATCH, "/api/todos/x", `{"text":"b"}`)
	require.Equal(t, http.StatusNoContent, response.StatusCode)

	assert.Equal(t, []todo.Todo{{ID: "x", Text: "b"}}, listTodos(t, api))

	api.UpdateResponse = UpdateRecord
	response = serve(t, api, PUT, "/api/todos/x", `{"text":"c"}`)
	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.JSONEq(t, `{"id":"x","text":"c"}`, response.Body)

	response = serve(t, api, DELETE, "/api/todos/x", "")
	require.Equal(t, http.StatusNoContent, response.StatusCode)

	assert.Empty(t, listTodos(t, api))
}

func TestTodoAPI_emptyList(t *testing.T) {
	api, _ := localAPI(t)

	response := serve(t, api, GET, "/api/todos", "")

	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, `[]`, response.Body)
}

func TestTodoAPI_unknownOperation(t *testing.T) {
	api, _ := localAPI(t)
	api.Invoker = &operationInvoker{Invoker: api.Invoker, operation: "frobnicate"}

	response := serve(t, api, POST, "/api/todos", `{"text":"a"}`)

	assert.Equal(t, http.StatusInternalServerError, response.StatusCode)

	body := decodeError(t, response)
	assert.Equal(t, MsgAddFailed, body.Error)
	assert.Contains(t, body.Details, "frobnicate")
}

func TestTodoAPI_Handler(t *testing.T) {
	api, _ := localAPI(t)

	handler, err := api.Handler()
	require.NoError(t, err)

	response, err := handler(context.Background(), testRequest(GET, "/api/todos/"))

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, `[]`, response.Body)
}
