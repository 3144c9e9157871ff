package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/prognoshealth/todolambda/dispatch"
	"github.com/prognoshealth/todolambda/invoke"
	"github.com/prognoshealth/todolambda/lambdautils"
	"github.com/prognoshealth/todolambda/logging"
	"github.com/prognoshealth/todolambda/store"
	"github.com/prognoshealth/todolambda/todo"
)

// Route patterns served by the todo API.
const (
	TodosPattern = "/api/todos"
	TodoPattern  = "/api/todos/(?P<id>[^/]+)"
)

// UpdateResponse selects what a successful update returns.
type UpdateResponse string

const (
	// UpdateNoContent answers updates with an empty 204.
	UpdateNoContent UpdateResponse = "no-content"

	// UpdateRecord answers updates with 200 and the updated todo.
	UpdateRecord UpdateResponse = "updated"
)

// ParseUpdateResponse validates name as an UpdateResponse. An empty name is
// UpdateNoContent.
func ParseUpdateResponse(name string) (UpdateResponse, error) {
	switch UpdateResponse(name) {
	case "", UpdateNoContent:
		return UpdateNoContent, nil
	case UpdateRecord:
		return UpdateRecord, nil
	}

	return "", errors.Errorf("unknown update response '%s', expected '%s' or '%s'", name, UpdateNoContent, UpdateRecord)
}

// Messages returned in the error field of failed responses.
const (
	MsgFetchFailed  = "Failed to fetch todos"
	MsgAddFailed    = "Failed to add todo"
	MsgDeleteFailed = "Failed to delete todo"
	MsgUpdateFailed = "Failed to update todo"
	MsgInvalidBody  = "Invalid request body"
	MsgNotFound     = "Not found"
	MsgNotAllowed   = "Method not allowed"
	MsgInternal     = "Internal server error"
)

// TodoAPI translates the REST todo routes into dispatcher requests.
type TodoAPI struct {
	Invoker        invoke.Invoker
	NewID          todo.IDFunc
	UpdateResponse UpdateResponse

	logger *zap.Logger
}

// NewTodoAPI returns a TodoAPI sending its requests through invoker. Ids are
// minted with todo.NewID and updates answer with 204 unless changed.
func NewTodoAPI(invoker invoke.Invoker, logger *zap.Logger) *TodoAPI {
	return &TodoAPI{
		Invoker:        invoker,
		NewID:          todo.NewID,
		UpdateResponse: UpdateNoContent,
		logger:         logging.OrNop(logger),
	}
}

type textBody struct {
	Text string `json:"text"`
}

// Router returns a router serving the todo routes. Unmatched paths get a 404,
// known paths with another method a 405 and handler errors a 500.
func (api *TodoAPI) Router() (*Router, error) {
	router := &Router{}
	router.GET(TodosPattern, api.list)
	router.POST(TodosPattern, api.create)
	router.DELETE(TodoPattern, api.delete)
	router.PATCH(TodoPattern, api.update)
	router.PUT(TodoPattern, api.update)

	router.AddCatchAllHandler(func(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error) {
		return ErrorResponse(http.StatusNotFound, MsgNotFound, "")
	})

	router.AddMethodNotAllowedHandler(func(ctx context.Context, request events.APIGatewayV2HTTPRequest, allowed []HttpMethod) (events.APIGatewayProxyResponse, error) {
		resp, err := ErrorResponse(http.StatusMethodNotAllowed, MsgNotAllowed, "")
		if err != nil {
			return resp, err
		}

		names := make([]string, 0, len(allowed))
		for _, m := range allowed {
			names = append(names, m.String())
		}
		resp.Headers["Allow"] = strings.Join(names, ", ")

		return resp, nil
	})

	router.AddErrorHandler(func(ctx context.Context, request events.APIGatewayV2HTTPRequest, err error) (events.APIGatewayProxyResponse, error) {
		lambdautils.Logger(ctx, api.logger).Error("request failed",
			zap.String("method", request.RequestContext.HTTP.Method),
			zap.String("path", request.RawPath),
			zap.Error(err))

		return ErrorResponse(http.StatusInternalServerError, MsgInternal, err.Error())
	})

	if !router.Valid() {
		return nil, router.BuildErrors()
	}

	return router, nil
}

// Handler returns a function suitable for lambda.Start serving the todo
// routes behind an API Gateway v2 HTTP API.
func (api *TodoAPI) Handler() (func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error), error) {
	router, err := api.Router()
	if err != nil {
		return nil, err
	}

	return router.Route, nil
}

func (api *TodoAPI) fail(ctx context.Context, op, id string, status int, message string, err error) (events.APIGatewayProxyResponse, error) {
	fields := []zap.Field{zap.String("operation", op), zap.Error(err)}
	if id != "" {
		fields = append(fields, zap.String("id", id))
	}
	lambdautils.Logger(ctx, api.logger).Error(message, fields...)

	return ErrorResponse(status, message, err.Error())
}

// reject answers a validation failure with 400 and the error as message.
func (api *TodoAPI) reject(ctx context.Context, op, id string, err error) (events.APIGatewayProxyResponse, error) {
	lambdautils.Logger(ctx, api.logger).Info("rejected request",
		zap.String("operation", op),
		zap.String("id", id),
		zap.String("reason", err.Error()))

	return ErrorResponse(http.StatusBadRequest, err.Error(), "")
}

// send builds a dispatcher request with build and invokes it.
func (api *TodoAPI) send(ctx context.Context, build func() (dispatch.Request, error)) (json.RawMessage, error) {
	req, err := build()
	if err != nil {
		return nil, errors.Wrap(err, "failed building dispatch request")
	}

	return api.Invoker.Invoke(ctx, req)
}

func (api *TodoAPI) list(rctx *RouteContext) (events.APIGatewayProxyResponse, error) {
	raw, err := api.Invoker.Invoke(rctx.Context, dispatch.ScanTodos())
	if err != nil {
		return api.fail(rctx.Context, "scan", "", http.StatusInternalServerError, MsgFetchFailed, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		if err != nil {
			lambdautils.Logger(rctx.Context, api.logger).Warn("scan result is not a list", zap.ByteString("result", raw))
		}
		items = []json.RawMessage{}
	}

	return JSONResponse(http.StatusOK, items)
}

func (api *TodoAPI) create(rctx *RouteContext) (events.APIGatewayProxyResponse, error) {
	body := textBody{}
	if err := rctx.DecodeJSON(&body); err != nil {
		return api.fail(rctx.Context, dispatch.OpCreate, "", http.StatusBadRequest, MsgInvalidBody, err)
	}

	t, err := todo.New(body.Text, api.NewID)
	if err != nil {
		return api.reject(rctx.Context, dispatch.OpCreate, "", err)
	}

	if _, err := api.send(rctx.Context, func() (dispatch.Request, error) {
		return dispatch.CreateTodo(t)
	}); err != nil {
		return api.fail(rctx.Context, dispatch.OpCreate, t.ID, http.StatusInternalServerError, MsgAddFailed, err)
	}

	return JSONResponse(http.StatusCreated, t)
}

func (api *TodoAPI) delete(rctx *RouteContext) (events.APIGatewayProxyResponse, error) {
	id := rctx.Params["id"]

	if _, err := api.send(rctx.Context, func() (dispatch.Request, error) {
		return dispatch.DeleteTodo(id)
	}); err != nil {
		return api.fail(rctx.Context, dispatch.OpDelete, id, http.StatusInternalServerError, MsgDeleteFailed, err)
	}

	return NoContent(), nil
}

func (api *TodoAPI) update(rctx *RouteContext) (events.APIGatewayProxyResponse, error) {
	id := rctx.Params["id"]

	body := textBody{}
	if err := rctx.DecodeJSON(&body); err != nil {
		return api.fail(rctx.Context, dispatch.OpUpdate, id, http.StatusBadRequest, MsgInvalidBody, err)
	}

	if err := todo.ValidateText(body.Text); err != nil {
		return api.reject(rctx.Context, dispatch.OpUpdate, id, err)
	}

	returnValues := ""
	if api.UpdateResponse == UpdateRecord {
		returnValues = store.ReturnAllNew
	}

	raw, err := api.send(rctx.Context, func() (dispatch.Request, error) {
		return dispatch.UpdateTodoText(id, body.Text, returnValues)
	})
	if err != nil {
		return api.fail(rctx.Context, dispatch.OpUpdate, id, http.StatusInternalServerError, MsgUpdateFailed, err)
	}

	if api.UpdateResponse != UpdateRecord {
		return NoContent(), nil
	}

	out := store.Output{}
	if err := json.Unmarshal(raw, &out); err != nil || len(out.Attributes) == 0 {
		return JSONResponse(http.StatusOK, todo.Todo{ID: id, Text: body.Text})
	}

	return JSONResponse(http.StatusOK, todo.FromItem(out.Attributes))
}
