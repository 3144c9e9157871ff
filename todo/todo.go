// Package todo defines the single persisted entity of the system.
package todo

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrTextRequired is returned when a todo is created or updated without text.
var ErrTextRequired = errors.New("Todo text is required")

// Attribute names used for a todo in the table.
const (
	IDAttribute   = "id"
	TextAttribute = "text"
)

// Todo is an (id, text) pair. The id is minted once and never changes.
type Todo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// IDFunc mints a new todo id.
type IDFunc func() string

// NewID returns a random UUID (v4) string.
func NewID() string {
	return uuid.NewString()
}

// ValidateText returns ErrTextRequired if text is empty. Whitespace counts as
// text.
func ValidateText(text string) error {
	if text == "" {
		return ErrTextRequired
	}

	return nil
}

// New validates text and returns a todo with an id from idFunc. If idFunc is
// nil NewID is used.
func New(text string, idFunc IDFunc) (Todo, error) {
	if err := ValidateText(text); err != nil {
		return Todo{}, err
	}

	if idFunc == nil {
		idFunc = NewID
	}

	return Todo{ID: idFunc(), Text: text}, nil
}

// Item returns the todo as a table item.
func (t Todo) Item() map[string]interface{} {
	return map[string]interface{}{
		IDAttribute:   t.ID,
		TextAttribute: t.Text,
	}
}

// Key returns the table key addressing the todo with the given id.
func Key(id string) map[string]interface{} {
	return map[string]interface{}{IDAttribute: id}
}

// FromItem converts a table item into a Todo. Non-string attributes are
// ignored.
func FromItem(item map[string]interface{}) Todo {
	t := Todo{}
	if id, ok := item[IDAttribute].(string); ok {
		t.ID = id
	}
	if text, ok := item[TextAttribute].(string); ok {
		t.Text = text
	}

	return t
}
