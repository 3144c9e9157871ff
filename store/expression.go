package store

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Assignment is a single `path = :value` clause of a SET update expression
// with placeholders resolved.
type Assignment struct {
	Attribute string
	Value     interface{}
}

var (
	setPrefix      = regexp.MustCompile(`(?i)^\s*SET\s+`)
	assignmentExpr = regexp.MustCompile(`^\s*(#?[A-Za-z0-9_]+)\s*=\s*(:[A-Za-z0-9_]+)\s*$`)
)

// ParseSetExpression parses an update expression made only of a SET clause
// with simple assignments, e.g. "SET #text = :text, done = :d". Name
// placeholders are resolved through names and value placeholders through
// values. Every placeholder must resolve and no attribute may be assigned
// twice.
func ParseSetExpression(expr string, names map[string]string, values map[string]interface{}) ([]Assignment, error) {
	loc := setPrefix.FindStringIndex(expr)
	if loc == nil {
		return nil, errors.Errorf("update expression must be a SET clause: %q", expr)
	}

	body := expr[loc[1]:]
	if strings.TrimSpace(body) == "" {
		return nil, errors.Errorf("update expression has no assignments: %q", expr)
	}

	var out []Assignment
	seen := map[string]bool{}

	for _, part := range strings.Split(body, ",") {
		groups := assignmentExpr.FindStringSubmatch(part)
		if groups == nil {
			return nil, errors.Errorf("unsupported assignment %q", strings.TrimSpace(part))
		}

		attr := groups[1]
		if strings.HasPrefix(attr, "#") {
			resolved, ok := names[attr]
			if !ok {
				return nil, errors.Errorf("expression attribute name %s is not defined", attr)
			}
			attr = resolved
		}

		value, ok := values[groups[2]]
		if !ok {
			return nil, errors.Errorf("expression attribute value %s is not defined", groups[2])
		}

		if seen[attr] {
			return nil, errors.Errorf("attribute %s is assigned more than once", attr)
		}
		seen[attr] = true

		out = append(out, Assignment{Attribute: attr, Value: value})
	}

	return out, nil
}
