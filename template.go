package lamina

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Template is a composable description of the shape a configuration value
// should have. Given a resolved view, a template determines the canonical
// value: enforcing type and refinement constraints, recursing into
// sub-templates, and supplying defaults for missing values.
//
// enclosing is the template that contains this one, passed by structural
// templates when they recurse; top-level callers pass nil. It carries the
// mapping context needed for sibling-relative filename resolution and for
// union re-dispatch.
//
// Templates are immutable once built and validation never mutates them.
type Template interface {
	Value(view *View, enclosing Template) (any, error)
}

// defaults holds the required-or-default policy shared by leaf templates.
// Templates are required until a default is supplied.
type defaults struct {
	def      any
	required bool
}

// fallback returns the configured default, or a NotFoundError naming the
// view when the template is required.
func (d defaults) fallback(name string) (any, error) {
	if d.required {
		return nil, &NotFoundError{Name: name}
	}
	return d.def, nil
}

// defaultInfo exposes the default policy to wrappers (Optional borrows the
// subtemplate's default at construction time).
func (d defaults) defaultInfo() (any, bool) {
	return d.def, !d.required
}

type defaulted interface {
	defaultInfo() (any, bool)
}

// AsTemplate converts a shorthand value to a Template. The accepted kinds
// form a closed set:
//
//	Template        used as-is
//	map[string]any  a Map of sub-templates
//	[]any           a OneOf over the listed candidates
//	int, int64      an Integer with that default
//	float64         a Number with that default
//	string          a String with that default
//	bool            a Bool with that default
//	nil             a required Any
//
// Anything else is a TemplateError.
func AsTemplate(value any) (Template, error) {
	switch v := value.(type) {
	case nil:
		return Any(), nil
	case Template:
		return v, nil
	case map[string]any:
		return Map(v), nil
	case []any:
		return OneOf(v...), nil
	case int:
		return Integer().WithDefault(v), nil
	case int64:
		return Integer().WithDefault(int(v)), nil
	case float64:
		return Number().WithDefault(v), nil
	case string:
		return String().WithDefault(v), nil
	case bool:
		return Bool().WithDefault(v), nil
	default:
		return nil, &TemplateError{
			Message: fmt.Sprintf("cannot convert to a template: %#v", value),
		}
	}
}

// mustTemplate coerces a sub-template argument, deferring any coercion
// failure to validation time via the owner's stored error.
func mustTemplate(value any, errp *error) Template {
	t, err := AsTemplate(value)
	if err != nil && *errp == nil {
		*errp = err
	}
	return t
}

// AnyTemplate accepts any resolved value unchanged. It exists to express
// the bare required-or-default policy with no type constraint.
type AnyTemplate struct {
	defaults
}

// Any creates a template that accepts any present value and treats a
// missing one as an error.
func Any() *AnyTemplate {
	return &AnyTemplate{defaults{required: true}}
}

// WithDefault makes the template return def when the view is missing.
func (t *AnyTemplate) WithDefault(def any) *AnyTemplate {
	t.def = def
	t.required = false
	return t
}

func (t *AnyTemplate) Value(view *View, _ Template) (any, error) {
	val, _, err := view.First()
	if err != nil {
		if IsNotFound(err) {
			return t.fallback(view.Name())
		}
		return nil, err
	}
	return val, nil
}

// IntegerTemplate validates integer values. Floats are truncated.
type IntegerTemplate struct {
	defaults
}

// Integer creates a required integer template.
func Integer() *IntegerTemplate {
	return &IntegerTemplate{defaults{required: true}}
}

func (t *IntegerTemplate) WithDefault(def int) *IntegerTemplate {
	t.def = def
	t.required = false
	return t
}

func (t *IntegerTemplate) Value(view *View, _ Template) (any, error) {
	val, _, err := view.First()
	if err != nil {
		if IsNotFound(err) {
			return t.fallback(view.Name())
		}
		return nil, err
	}
	switch n := val.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return nil, &TypeError{Name: view.Name(), Expected: "a number", Actual: typeName(val)}
}

// NumberTemplate validates numeric values: integers or floats, returned
// unchanged.
type NumberTemplate struct {
	defaults
}

// Number creates a required numeric template.
func Number() *NumberTemplate {
	return &NumberTemplate{defaults{required: true}}
}

func (t *NumberTemplate) WithDefault(def float64) *NumberTemplate {
	t.def = def
	t.required = false
	return t
}

func (t *NumberTemplate) Value(view *View, _ Template) (any, error) {
	val, _, err := view.First()
	if err != nil {
		if IsNotFound(err) {
			return t.fallback(view.Name())
		}
		return nil, err
	}
	switch val.(type) {
	case int, int64, float64:
		return val, nil
	}
	return nil, &TypeError{Name: view.Name(), Expected: "numeric", Actual: typeName(val)}
}

// StringTemplate validates string values, optionally against a pattern
// anchored at the beginning of the value, and optionally expanding
// environment variable references.
type StringTemplate struct {
	defaults
	pattern    string
	regex      *regexp.Regexp
	expandVars bool
	err        error
}

// String creates a required string template.
func String() *StringTemplate {
	return &StringTemplate{defaults: defaults{required: true}}
}

func (t *StringTemplate) WithDefault(def string) *StringTemplate {
	t.def = def
	t.required = false
	return t
}

// WithPattern requires the value to match pattern, anchored at the start.
func (t *StringTemplate) WithPattern(pattern string) *StringTemplate {
	t.pattern = pattern
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		t.err = &TemplateError{Message: fmt.Sprintf("invalid pattern %q: %v", pattern, err)}
		return t
	}
	t.regex = re
	return t
}

// ExpandVars expands ${var} and $var environment references in the value.
func (t *StringTemplate) ExpandVars() *StringTemplate {
	t.expandVars = true
	return t
}

func (t *StringTemplate) Value(view *View, _ Template) (any, error) {
	if t.err != nil {
		return nil, t.err
	}
	val, _, err := view.First()
	if err != nil {
		if IsNotFound(err) {
			return t.fallback(view.Name())
		}
		return nil, err
	}
	s, ok := val.(string)
	if !ok {
		return nil, &TypeError{Name: view.Name(), Expected: "a string", Actual: typeName(val)}
	}
	if t.regex != nil && !t.regex.MatchString(s) {
		return nil, &ValueError{
			Name:    view.Name(),
			Message: fmt.Sprintf("must match the pattern %s", t.pattern),
		}
	}
	if t.expandVars {
		return os.ExpandEnv(s), nil
	}
	return s, nil
}

// BoolTemplate validates boolean values.
type BoolTemplate struct {
	defaults
}

// Bool creates a required boolean template.
func Bool() *BoolTemplate {
	return &BoolTemplate{defaults{required: true}}
}

func (t *BoolTemplate) WithDefault(def bool) *BoolTemplate {
	t.def = def
	t.required = false
	return t
}

func (t *BoolTemplate) Value(view *View, _ Template) (any, error) {
	val, _, err := view.First()
	if err != nil {
		if IsNotFound(err) {
			return t.fallback(view.Name())
		}
		return nil, err
	}
	if b, ok := val.(bool); ok {
		return b, nil
	}
	return nil, &TypeError{Name: view.Name(), Expected: "a bool", Actual: typeName(val)}
}

// StrSeqTemplate validates lists of strings. A single string value is
// accepted and, by default, split on whitespace.
type StrSeqTemplate struct {
	defaults
	split bool
}

// StrSeq creates a required string-list template that splits single
// strings on whitespace.
func StrSeq() *StrSeqTemplate {
	return &StrSeqTemplate{defaults: defaults{required: true}, split: true}
}

func (t *StrSeqTemplate) WithDefault(def []string) *StrSeqTemplate {
	t.def = def
	t.required = false
	return t
}

// NoSplit makes a single string value yield a one-element list instead of
// splitting on whitespace.
func (t *StrSeqTemplate) NoSplit() *StrSeqTemplate {
	t.split = false
	return t
}

func (t *StrSeqTemplate) Value(view *View, _ Template) (any, error) {
	val, _, err := view.First()
	if err != nil {
		if IsNotFound(err) {
			return t.fallback(view.Name())
		}
		return nil, err
	}
	switch v := val.(type) {
	case string:
		if t.split {
			return strings.Fields(v), nil
		}
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Name: view.Name(), Expected: "a list of strings", Actual: typeName(item)}
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, &TypeError{
		Name:     view.Name(),
		Expected: "a whitespace-separated string or a list",
		Actual:   typeName(val),
	}
}

// StringPair is one ordered key-value entry produced by the Pairs template.
type StringPair struct {
	Key   string
	Value any
}

// PairsTemplate validates ordered key-value pairs given either as a
// whitespace-separated string (keys only) or as a list whose elements are
// strings, single-element mappings, or two-element lists.
type PairsTemplate struct {
	defaults
	valueDefault any
}

// Pairs creates a required pairs template. Entries given without a value
// receive nil.
func Pairs() *PairsTemplate {
	return &PairsTemplate{defaults: defaults{required: true}}
}

// WithValueDefault sets the value assigned to entries that carry only a key.
func (t *PairsTemplate) WithValueDefault(def any) *PairsTemplate {
	t.valueDefault = def
	return t
}

func (t *PairsTemplate) WithDefault(def []StringPair) *PairsTemplate {
	t.def = def
	t.required = false
	return t
}

func (t *PairsTemplate) Value(view *View, _ Template) (any, error) {
	val, _, err := view.First()
	if err != nil {
		if IsNotFound(err) {
			return t.fallback(view.Name())
		}
		return nil, err
	}
	var elems []any
	switch v := val.(type) {
	case string:
		for _, f := range strings.Fields(v) {
			elems = append(elems, f)
		}
	case []any:
		elems = v
	default:
		return nil, &TypeError{Name: view.Name(), Expected: "a list", Actual: typeName(val)}
	}
	out := make([]StringPair, 0, len(elems))
	for _, e := range elems {
		pair, err := t.convertPair(e, view)
		if err != nil {
			return nil, err
		}
		out = append(out, pair)
	}
	return out, nil
}

func (t *PairsTemplate) convertPair(e any, view *View) (StringPair, error) {
	switch item := e.(type) {
	case string:
		return StringPair{Key: item, Value: t.valueDefault}, nil
	case map[string]any:
		if len(item) != 1 {
			return StringPair{}, &TypeError{Name: view.Name(), Expected: "a single-element mapping"}
		}
		for k, v := range item {
			return StringPair{Key: k, Value: v}, nil
		}
	case []any:
		if len(item) != 2 {
			return StringPair{}, &TypeError{Name: view.Name(), Expected: "a two-element list"}
		}
		k, ok := item[0].(string)
		if !ok {
			return StringPair{}, &TypeError{Name: view.Name(), Expected: "a string key", Actual: typeName(item[0])}
		}
		return StringPair{Key: k, Value: item[1]}, nil
	}
	return StringPair{}, &TypeError{
		Name:     view.Name(),
		Expected: "a single string, mapping, or list",
		Actual:   typeName(e),
	}
}
