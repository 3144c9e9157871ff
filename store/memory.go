package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/pkg/errors"
)

// MemoryStore is an in-process Store with the same observable behavior as
// DynamoStore for single hash key tables. Tables are created on first write.
type MemoryStore struct {
	KeyAttribute string

	mu     sync.RWMutex
	tables map[string]map[string]Item
}

// NewMemoryStore returns an empty store whose tables are keyed by
// keyAttribute.
func NewMemoryStore(keyAttribute string) *MemoryStore {
	return &MemoryStore{
		KeyAttribute: keyAttribute,
		tables:       map[string]map[string]Item{},
	}
}

func validationError(msg string) error {
	return awserr.New("ValidationException", msg, nil)
}

// keyOf returns the canonical string form of key after checking it names
// exactly the key attribute.
func (m *MemoryStore) keyOf(key Item) (string, error) {
	v, ok := key[m.KeyAttribute]
	if !ok || len(key) != 1 {
		return "", validationError("The provided key element does not match the schema")
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed encoding key")
	}

	return string(b), nil
}

func (m *MemoryStore) table(name string) map[string]Item {
	t, ok := m.tables[name]
	if !ok {
		t = map[string]Item{}
		m.tables[name] = t
	}

	return t
}

func copyItem(item Item) Item {
	if item == nil {
		return nil
	}

	out := make(Item, len(item))
	for k, v := range item {
		out[k] = v
	}

	return out
}

// Put stores a copy of item.
func (m *MemoryStore) Put(ctx context.Context, table string, item Item, options ...PutOption) (*Output, error) {
	v, ok := item[m.KeyAttribute]
	if !ok || v == nil {
		return nil, validationError("One of the required keys was not given a value")
	}

	k, err := m.keyOf(Item{m.KeyAttribute: v})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	o := putOptions(options)
	if existing, ok := t[k]; ok && o.UniqueAttribute != "" {
		if _, has := existing[o.UniqueAttribute]; has {
			return nil, awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "The conditional request failed", nil)
		}
	}

	t[k] = copyItem(item)
	return &Output{}, nil
}

// Get returns a copy of the item addressed by key.
func (m *MemoryStore) Get(ctx context.Context, table string, key Item) (*Output, error) {
	k, err := m.keyOf(key)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return &Output{Item: copyItem(m.tables[table][k])}, nil
}

// Update applies a SET expression. Like DynamoDB, updating a missing item
// creates it from the key and the assigned attributes.
func (m *MemoryStore) Update(ctx context.Context, table string, input UpdateInput) (*Output, error) {
	k, err := m.keyOf(input.Key)
	if err != nil {
		return nil, err
	}

	assignments, err := ParseSetExpression(input.UpdateExpression, input.ExpressionAttributeNames, input.ExpressionAttributeValues)
	if err != nil {
		return nil, validationError(err.Error())
	}

	for _, a := range assignments {
		if a.Attribute == m.KeyAttribute {
			return nil, validationError("Cannot update attribute " + a.Attribute + ". This attribute is part of the key")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	old, existed := t[k]

	next := copyItem(old)
	if !existed {
		next = copyItem(input.Key)
	}

	for _, a := range assignments {
		next[a.Attribute] = a.Value
	}
	t[k] = next

	return &Output{Attributes: returnedAttributes(input.ReturnValues, old, next, assignments)}, nil
}

func returnedAttributes(returnValues string, old, next Item, assignments []Assignment) Item {
	pick := func(src Item) Item {
		if src == nil {
			return nil
		}
		out := Item{}
		for _, a := range assignments {
			if v, ok := src[a.Attribute]; ok {
				out[a.Attribute] = v
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}

	switch returnValues {
	case ReturnAllOld:
		return copyItem(old)
	case ReturnAllNew:
		return copyItem(next)
	case ReturnUpdatedOld:
		return pick(old)
	case ReturnUpdatedNew:
		return pick(next)
	}

	return nil
}

// Delete removes the item addressed by key. Missing items are not an error.
func (m *MemoryStore) Delete(ctx context.Context, table string, key Item, returnValues string) (*Output, error) {
	k, err := m.keyOf(key)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.table(table)
	old := t[k]
	delete(t, k)

	if returnValues == ReturnAllOld {
		return &Output{Attributes: old}, nil
	}

	return &Output{}, nil
}

// Scan returns copies of every item in table ordered by key.
func (m *MemoryStore) Scan(ctx context.Context, table string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.tables[table]
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, copyItem(t[k]))
	}

	return items, nil
}
