package dispatch

import (
	"github.com/prognoshealth/todolambda/store"
	"github.com/prognoshealth/todolambda/todo"
)

// validateKey checks key addresses a todo and returns its id.
func validateKey(key store.Item) (string, error) {
	if len(key) != 1 {
		return "", invalidf("Key must contain only %s", todo.IDAttribute)
	}

	id, ok := key[todo.IDAttribute].(string)
	if !ok || id == "" {
		return "", invalidf("Key %s must be a non-empty string", todo.IDAttribute)
	}

	return id, nil
}

// validateItem checks item is a complete todo with no extra attributes.
func validateItem(item store.Item) (todo.Todo, error) {
	t := todo.FromItem(item)

	for attr := range item {
		if attr != todo.IDAttribute && attr != todo.TextAttribute {
			return t, invalidf("Item attribute %s is not allowed", attr)
		}
	}

	if t.ID == "" {
		return t, invalidf("Item %s must be a non-empty string", todo.IDAttribute)
	}

	if _, ok := item[todo.TextAttribute].(string); !ok {
		return t, invalidf("Item %s must be a string", todo.TextAttribute)
	}

	if err := todo.ValidateText(t.Text); err != nil {
		return t, invalidf("%s", err.Error())
	}

	return t, nil
}

// validateUpdate only lets an update SET the text attribute to a non-empty
// string.
func validateUpdate(p UpdatePayload) error {
	if !store.ValidReturnValues(p.ReturnValues) {
		return invalidf("ReturnValues %s is not supported", p.ReturnValues)
	}

	assignments, err := store.ParseSetExpression(p.UpdateExpression, p.ExpressionAttributeNames, p.ExpressionAttributeValues)
	if err != nil {
		return invalidf("%s", err.Error())
	}

	for _, a := range assignments {
		if a.Attribute != todo.TextAttribute {
			return invalidf("attribute %s may not be updated", a.Attribute)
		}

		text, ok := a.Value.(string)
		if !ok {
			return invalidf("%s must be a string", todo.TextAttribute)
		}

		if err := todo.ValidateText(text); err != nil {
			return invalidf("%s", err.Error())
		}
	}

	return nil
}
