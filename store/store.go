// Package store provides the key-value table contract used by the dispatcher
// along with a DynamoDB implementation and an in-memory one for local runs.
//
// Results are shaped like the DynamoDB document client output so they can be
// handed back to callers without translation.
package store

import (
	"context"
)

// Item is a table item or key in plain (document) form.
type Item = map[string]interface{}

// Return value options supported by Update and Delete.
const (
	ReturnNone       = "NONE"
	ReturnAllOld     = "ALL_OLD"
	ReturnAllNew     = "ALL_NEW"
	ReturnUpdatedOld = "UPDATED_OLD"
	ReturnUpdatedNew = "UPDATED_NEW"
)

// Store is the table contract. The table name is supplied per call.
type Store interface {
	Put(ctx context.Context, table string, item Item, options ...PutOption) (*Output, error)
	Get(ctx context.Context, table string, key Item) (*Output, error)
	Update(ctx context.Context, table string, input UpdateInput) (*Output, error)
	Delete(ctx context.Context, table string, key Item, returnValues string) (*Output, error)
	Scan(ctx context.Context, table string) ([]Item, error)
}

// Output is the result of a single item operation.
type Output struct {
	Item       Item `json:"Item,omitempty"`
	Attributes Item `json:"Attributes,omitempty"`
}

// UpdateInput describes an update-item call.
type UpdateInput struct {
	Key                       Item
	UpdateExpression          string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues Item
	ReturnValues              string
}

// PutOptions holds the optional settings of a put.
type PutOptions struct {
	// UniqueAttribute makes the put fail when an item with the same value for
	// this attribute already exists.
	UniqueAttribute string
}

// PutOption configures a put.
type PutOption func(*PutOptions)

// Unique makes the put conditional on attribute_not_exists(attr).
func Unique(attr string) PutOption {
	return func(o *PutOptions) {
		o.UniqueAttribute = attr
	}
}

func putOptions(options []PutOption) PutOptions {
	o := PutOptions{}
	for _, opt := range options {
		opt(&o)
	}

	return o
}

// ValidReturnValues reports whether v is an accepted return values option.
// The empty string is accepted and means ReturnNone.
func ValidReturnValues(v string) bool {
	switch v {
	case "", ReturnNone, ReturnAllOld, ReturnAllNew, ReturnUpdatedOld, ReturnUpdatedNew:
		return true
	}

	return false
}
