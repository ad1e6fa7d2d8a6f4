package lamina

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Record is the read-only result of a mapping template: its keys are
// exactly the template's declared keys, never more, never fewer.
type Record struct {
	keys []string
	vals map[string]any
}

// Get returns the value for a declared key. An undeclared key is a
// NotFoundError.
func (r *Record) Get(key string) (any, error) {
	v, ok := r.vals[key]
	if !ok {
		return nil, &NotFoundError{Name: key}
	}
	return v, nil
}

// Has reports whether key was declared by the template.
func (r *Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Keys returns the declared keys in sorted order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Map returns the record's contents as a plain map copy.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.vals))
	for k, v := range r.vals {
		out[k] = v
	}
	return out
}

// MappingTemplate validates a mapping by applying named sub-templates to
// the corresponding subviews. Undeclared input keys are silently dropped;
// each declared key falls back to its own sub-template's default policy
// independently.
type MappingTemplate struct {
	keys []string
	subs map[string]Template
	err  error
}

// Map creates a mapping template from a specification whose values are
// templates or template shorthands (see AsTemplate).
func Map(spec map[string]any) *MappingTemplate {
	t := &MappingTemplate{subs: make(map[string]Template, len(spec))}
	for _, k := range sortedKeys(spec) {
		t.keys = append(t.keys, k)
		t.subs[k] = mustTemplate(spec[k], &t.err)
	}
	return t
}

// mappingOf builds a mapping template directly from coerced sub-templates.
func mappingOf(subs map[string]Template) *MappingTemplate {
	t := &MappingTemplate{subs: subs}
	for k := range subs {
		t.keys = append(t.keys, k)
	}
	sort.Strings(t.keys)
	return t
}

func (t *MappingTemplate) Value(view *View, _ Template) (any, error) {
	if t.err != nil {
		return nil, t.err
	}
	rec := &Record{keys: t.keys, vals: make(map[string]any, len(t.keys))}
	for _, k := range t.keys {
		v, err := t.subs[k].Value(view.Key(k), t)
		if err != nil {
			return nil, err
		}
		rec.vals[k] = v
	}
	return rec, nil
}

// SequenceTemplate validates homogeneous lists by applying one sub-template
// to every element of the winning source's list. A missing view yields an
// empty list, never an error.
type SequenceTemplate struct {
	sub Template
	err error
}

// Seq creates a sequence template from a sub-template or shorthand.
func Seq(subtemplate any) *SequenceTemplate {
	t := &SequenceTemplate{}
	t.sub = mustTemplate(subtemplate, &t.err)
	return t
}

func (t *SequenceTemplate) Value(view *View, _ Template) (any, error) {
	if t.err != nil {
		return nil, t.err
	}
	views, err := view.Sequence()
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(views))
	for _, sub := range views {
		v, err := t.sub.Value(sub, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MappingValuesTemplate validates homogeneous mappings: every key visible
// across all sources is accepted, and each value is validated against one
// sub-template. A missing view yields an empty mapping.
type MappingValuesTemplate struct {
	sub Template
	err error
}

// MapValues creates a homogeneous-value mapping template from a
// sub-template or shorthand.
func MapValues(subtemplate any) *MappingValuesTemplate {
	t := &MappingValuesTemplate{}
	t.sub = mustTemplate(subtemplate, &t.err)
	return t
}

func (t *MappingValuesTemplate) Value(view *View, _ Template) (any, error) {
	if t.err != nil {
		return nil, t.err
	}
	items, err := view.Items()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(items))
	for _, it := range items {
		v, err := t.sub.Value(it.View, t)
		if err != nil {
			return nil, err
		}
		out[it.Key] = v
	}
	return out, nil
}

// ChoiceTemplate permits values from an enumerated set. With a list of
// choices, membership is checked and the matching element returned
// unchanged; with a name-to-value table, the input is the name and the
// looked-up value is returned.
type ChoiceTemplate struct {
	defaults
	list  []any
	table map[string]any
	err   error
}

// Choice creates a template over an enumerated set of choices: either a
// []any of permitted values or a map[string]any remapping names to values.
func Choice(choices any) *ChoiceTemplate {
	t := &ChoiceTemplate{defaults: defaults{required: true}}
	switch c := choices.(type) {
	case []any:
		t.list = c
	case []string:
		for _, s := range c {
			t.list = append(t.list, s)
		}
	case map[string]any:
		t.table = c
	default:
		t.err = &TemplateError{
			Message: fmt.Sprintf("choices must be a list or a mapping, not %s", typeName(choices)),
		}
	}
	return t
}

func (t *ChoiceTemplate) WithDefault(def any) *ChoiceTemplate {
	t.def = def
	t.required = false
	return t
}

func (t *ChoiceTemplate) Value(view *View, _ Template) (any, error) {
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
	if t.table != nil {
		if name, ok := val.(string); ok {
			if mapped, ok := t.table[name]; ok {
				return mapped, nil
			}
		}
		return nil, t.choiceError(view, val, sortedKeys(t.table))
	}
	for _, c := range t.list {
		if reflect.DeepEqual(c, val) {
			return c, nil
		}
	}
	rendered := make([]string, 0, len(t.list))
	for _, c := range t.list {
		rendered = append(rendered, fmt.Sprintf("%v", c))
	}
	return nil, t.choiceError(view, val, rendered)
}

func (t *ChoiceTemplate) choiceError(view *View, val any, choices []string) error {
	return &ValueError{
		Name:    view.Name(),
		Message: fmt.Sprintf("must be one of %v, not %v", choices, val),
	}
}

// OneOfTemplate permits values complying with any of an ordered list of
// candidate templates. Candidates are tried in order against the same view
// and the first success wins; order is a caller contract, so more specific
// candidates must precede more permissive ones. A candidate's own
// not-found, type, or value error means "no match"; a TemplateError always
// propagates.
type OneOfTemplate struct {
	defaults
	allowed []Template
	err     error
}

// OneOf creates a first-match union template over candidate templates or
// shorthands.
func OneOf(candidates ...any) *OneOfTemplate {
	t := &OneOfTemplate{defaults: defaults{required: true}}
	for _, c := range candidates {
		t.allowed = append(t.allowed, mustTemplate(c, &t.err))
	}
	return t
}

func (t *OneOfTemplate) WithDefault(def any) *OneOfTemplate {
	t.def = def
	t.required = false
	return t
}

func (t *OneOfTemplate) Value(view *View, enclosing Template) (any, error) {
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

	_, inMapping := enclosing.(*MappingTemplate)
	for _, candidate := range t.allowed {
		res, cerr := t.tryCandidate(candidate, view, inMapping)
		if cerr == nil {
			return res, nil
		}
		var te *TemplateError
		if errors.As(cerr, &te) {
			return nil, cerr
		}
		if isConfigError(cerr) {
			continue
		}
		return nil, cerr
	}
	names := make([]string, 0, len(t.allowed))
	for _, c := range t.allowed {
		names = append(names, strings.TrimPrefix(fmt.Sprintf("%T", c), "*lamina."))
	}
	return nil, &ValueError{
		Name:    view.Name(),
		Message: fmt.Sprintf("must match one of %v, not %v", names, val),
	}
}

// tryCandidate evaluates one candidate. Inside a mapping template the
// candidate is re-dispatched through the parent view wrapped in a
// single-key mapping template, so that sibling-relative filename templates
// keep their mapping context.
func (t *OneOfTemplate) tryCandidate(candidate Template, view *View, inMapping bool) (any, error) {
	if !inMapping {
		return candidate.Value(view, t)
	}
	key, ok := view.key.(string)
	if !ok || view.parent == nil {
		return nil, &ValueError{
			Name:    view.Name(),
			Message: "a mapping union requires a string-keyed subview",
		}
	}
	next := mappingOf(map[string]Template{key: candidate})
	res, err := next.Value(view.parent, nil)
	if err != nil {
		return nil, err
	}
	return res.(*Record).Get(key)
}

// OptionalTemplate tolerates explicit nulls and, independently, missing
// values around a sub-template. A present non-null value delegates entirely
// to the sub-template; a null returns the wrapper's default without
// invoking the sub-template at all.
type OptionalTemplate struct {
	sub          Template
	def          any
	allowMissing bool
	err          error
}

// Optional wraps a sub-template (or shorthand), making null and missing
// values yield a default instead of an error. The default is borrowed from
// the sub-template's own default when it has one.
func Optional(subtemplate any) *OptionalTemplate {
	t := &OptionalTemplate{allowMissing: true}
	t.sub = mustTemplate(subtemplate, &t.err)
	if d, ok := t.sub.(defaulted); ok {
		if def, has := d.defaultInfo(); has {
			t.def = def
		}
	}
	return t
}

// WithDefault overrides the value returned for null or missing values.
func (t *OptionalTemplate) WithDefault(def any) *OptionalTemplate {
	t.def = def
	return t
}

// DisallowMissing keeps explicit nulls valid but makes a missing value a
// NotFoundError again.
func (t *OptionalTemplate) DisallowMissing() *OptionalTemplate {
	t.allowMissing = false
	return t
}

func (t *OptionalTemplate) Value(view *View, _ Template) (any, error) {
	if t.err != nil {
		return nil, t.err
	}
	val, _, err := view.First()
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		if t.allowMissing {
			return t.def, nil
		}
		return nil, &NotFoundError{Name: view.Name()}
	}
	if val == nil {
		return t.def, nil
	}
	return t.sub.Value(view, t)
}
