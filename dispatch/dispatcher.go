package dispatch

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/prognoshealth/todolambda/lambdautils"
	"github.com/prognoshealth/todolambda/logging"
	"github.com/prognoshealth/todolambda/store"
	"github.com/prognoshealth/todolambda/todo"
)

// Dispatcher routes requests to a Store. It holds no per-request state and is
// safe for concurrent use.
type Dispatcher struct {
	table  string
	store  store.Store
	logger *zap.Logger
}

// New returns a Dispatcher operating on table through s. A nil logger
// discards log output.
func New(table string, s store.Store, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		table:  table,
		store:  s,
		logger: logging.OrNop(logger).With(zap.String("table", table)),
	}
}

// Table returns the configured table name.
func (d *Dispatcher) Table() string {
	return d.table
}

// Handle performs the operation named by req and returns the store result as
// is. Store failures are returned unchanged.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (interface{}, error) {
	logger := lambdautils.Logger(ctx, d.logger).With(zap.String("operation", req.Operation))

	result, id, err := d.dispatch(ctx, req)
	if err != nil {
		if id != "" {
			logger = logger.With(zap.String("id", id))
		}
		logger.Error("dispatch failed", zap.Error(err))
		return nil, errors.Cause(err)
	}

	logger.Debug("dispatched", zap.String("id", id))
	return result, nil
}

// dispatch returns the result along with the todo id involved, when known.
func (d *Dispatcher) dispatch(ctx context.Context, req Request) (interface{}, string, error) {
	switch req.Operation {
	case OpScan:
		items, err := d.store.Scan(ctx, d.table)
		if err != nil {
			return nil, "", err
		}
		if items == nil {
			items = []store.Item{}
		}
		return items, "", nil
	case OpEcho:
		return req.Payload, "", nil
	}

	if !req.HasPayload() {
		return nil, "", invalidf("Payload is required for CRUD operations")
	}

	switch req.Operation {
	case OpCreate:
		return d.create(ctx, req)
	case OpRead:
		return d.read(ctx, req)
	case OpUpdate:
		return d.update(ctx, req)
	case OpDelete:
		return d.delete(ctx, req)
	}

	return nil, "", errors.WithStack(&UnknownOperationError{Operation: req.Operation})
}

func (d *Dispatcher) create(ctx context.Context, req Request) (interface{}, string, error) {
	var p CreatePayload
	if err := decodeStrict(req.Payload, &p); err != nil {
		return nil, "", err
	}
	p.TableName = d.table

	t, err := validateItem(p.Item)
	if err != nil {
		return nil, t.ID, err
	}

	out, err := d.store.Put(ctx, p.TableName, t.Item(), store.Unique(todo.IDAttribute))
	return out, t.ID, err
}

func (d *Dispatcher) read(ctx context.Context, req Request) (interface{}, string, error) {
	var p ReadPayload
	if err := decodeStrict(req.Payload, &p); err != nil {
		return nil, "", err
	}
	p.TableName = d.table

	id, err := validateKey(p.Key)
	if err != nil {
		return nil, "", err
	}

	out, err := d.store.Get(ctx, p.TableName, p.Key)
	return out, id, err
}

func (d *Dispatcher) update(ctx context.Context, req Request) (interface{}, string, error) {
	var p UpdatePayload
	if err := decodeStrict(req.Payload, &p); err != nil {
		return nil, "", err
	}
	p.TableName = d.table

	id, err := validateKey(p.Key)
	if err != nil {
		return nil, "", err
	}

	if err := validateUpdate(p); err != nil {
		return nil, id, err
	}

	out, err := d.store.Update(ctx, p.TableName, store.UpdateInput{
		Key:                       p.Key,
		UpdateExpression:          p.UpdateExpression,
		ExpressionAttributeNames:  p.ExpressionAttributeNames,
		ExpressionAttributeValues: p.ExpressionAttributeValues,
		ReturnValues:              p.ReturnValues,
	})
	return out, id, err
}

func (d *Dispatcher) delete(ctx context.Context, req Request) (interface{}, string, error) {
	var p DeletePayload
	if err := decodeStrict(req.Payload, &p); err != nil {
		return nil, "", err
	}
	p.TableName = d.table

	id, err := validateKey(p.Key)
	if err != nil {
		return nil, "", err
	}

	switch p.ReturnValues {
	case "", store.ReturnNone, store.ReturnAllOld:
	default:
		return nil, id, invalidf("ReturnValues %s is not supported for delete", p.ReturnValues)
	}

	out, err := d.store.Delete(ctx, p.TableName, p.Key, p.ReturnValues)
	return out, id, err
}
