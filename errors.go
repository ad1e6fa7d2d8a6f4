package lamina

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a view could not be resolved in any source and
// no default value applies. Name is the canonical path of the view.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Name)
}

// TypeError reports that a resolved value, or an intermediate container
// encountered while navigating, has the wrong coarse type. It is always
// distinct from NotFoundError so callers can treat "absent" and "wrong
// shape" differently.
type TypeError struct {
	Name     string // canonical path of the offending view
	Expected string // coarse kind that was required (e.g. "a dict")
	Actual   string // kind actually found (e.g. "string"); may be empty
}

func (e *TypeError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("%s must be %s", e.Name, e.Expected)
	}
	return fmt.Sprintf("%s must be %s, not %s", e.Name, e.Expected, e.Actual)
}

// ValueError reports that a value has the right coarse type but fails a
// finer constraint: a pattern mismatch, a value outside a choice set, or no
// matching candidate in a union template.
type ValueError struct {
	Name    string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// TemplateError reports a structural impossibility in a template itself,
// such as a sibling-relative path referencing its own key or a cycle among
// sibling templates. It indicates a programming error by the template
// author, never a data problem, and is never swallowed by union templates.
type TemplateError struct {
	Message string
}

func (e *TemplateError) Error() string {
	return "template error: " + e.Message
}

// ReadError reports a failure to read or parse a configuration file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// isConfigError reports whether err belongs to the data-error taxonomy
// (not found, type mismatch, refinement failure, read failure). Template
// misconfiguration errors are deliberately excluded: they always propagate.
func isConfigError(err error) bool {
	var (
		nf *NotFoundError
		te *TypeError
		ve *ValueError
		re *ReadError
	)
	return errors.As(err, &nf) || errors.As(err, &te) ||
		errors.As(err, &ve) || errors.As(err, &re)
}

// typeName renders the coarse kind of a configuration value for use in
// error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "dict"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float64, float32:
		return "float"
	default:
		return fmt.Sprintf("%T", v)
	}
}
