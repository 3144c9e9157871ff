package dispatch

import (
	"bytes"
	"encoding/json"

	"github.com/prognoshealth/todolambda/store"
	"github.com/prognoshealth/todolambda/todo"
)

// Supported operation names.
const (
	OpScan   = ""
	OpEcho   = "echo"
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Request is the event the function receives.
type Request struct {
	Operation string          `json:"operation,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// HasPayload reports whether the request carries a non-null payload.
func (r Request) HasPayload() bool {
	p := bytes.TrimSpace(r.Payload)
	return len(p) > 0 && !bytes.Equal(p, []byte("null"))
}

// NewRequest builds a request with payload encoded as JSON.
func NewRequest(operation string, payload interface{}) (Request, error) {
	req := Request{Operation: operation}
	if payload == nil {
		return req, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return req, err
	}
	req.Payload = b

	return req, nil
}

// CreatePayload is the payload of a create operation.
type CreatePayload struct {
	TableName string     `json:"TableName,omitempty"`
	Item      store.Item `json:"Item"`
}

// ReadPayload is the payload of a read operation.
type ReadPayload struct {
	TableName string     `json:"TableName,omitempty"`
	Key       store.Item `json:"Key"`
}

// DeletePayload is the payload of a delete operation.
type DeletePayload struct {
	TableName    string     `json:"TableName,omitempty"`
	Key          store.Item `json:"Key"`
	ReturnValues string     `json:"ReturnValues,omitempty"`
}

// UpdatePayload is the payload of an update operation.
type UpdatePayload struct {
	TableName                 string            `json:"TableName,omitempty"`
	Key                       store.Item        `json:"Key"`
	UpdateExpression          string            `json:"UpdateExpression"`
	ExpressionAttributeNames  map[string]string `json:"ExpressionAttributeNames,omitempty"`
	ExpressionAttributeValues store.Item        `json:"ExpressionAttributeValues,omitempty"`
	ReturnValues              string            `json:"ReturnValues,omitempty"`
}

// CreateTodo returns the create request for t.
func CreateTodo(t todo.Todo) (Request, error) {
	return NewRequest(OpCreate, CreatePayload{Item: t.Item()})
}

// ReadTodo returns the read request for id.
func ReadTodo(id string) (Request, error) {
	return NewRequest(OpRead, ReadPayload{Key: todo.Key(id)})
}

// DeleteTodo returns the delete request for id.
func DeleteTodo(id string) (Request, error) {
	return NewRequest(OpDelete, DeletePayload{Key: todo.Key(id)})
}

// UpdateTodoText returns the update request setting the text of id.
// returnValues may be empty.
func UpdateTodoText(id, text, returnValues string) (Request, error) {
	return NewRequest(OpUpdate, UpdatePayload{
		Key:                       todo.Key(id),
		UpdateExpression:          "SET #text = :text",
		ExpressionAttributeNames:  map[string]string{"#text": todo.TextAttribute},
		ExpressionAttributeValues: store.Item{":text": text},
		ReturnValues:              returnValues,
	})
}

// ScanTodos returns the request listing every todo.
func ScanTodos() Request {
	return Request{}
}

// decodeStrict unmarshals payload into v rejecting unknown fields.
func decodeStrict(payload json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return invalidf("malformed payload: %s", err.Error())
	}

	if dec.More() {
		return invalidf("malformed payload: trailing data")
	}

	return nil
}
