package lamina

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// RedactedTombstone replaces sensitive values in redacted output.
const RedactedTombstone = "REDACTED"

// Resolution couples a resolved value with the source that provided it.
type Resolution struct {
	Value  any
	Source *Source
}

// Item couples a mapping key with its subview.
type Item struct {
	Key  string
	View *View
}

// View is a navigable position in the configuration hierarchy: a path of
// keys and indices descending from a Root. Views are cheap and stateless;
// two views built with the same parent chain and key are interchangeable.
//
// A view does not hold data. Resolving it walks the path through every
// source and collects the values present there, in priority order.
type View struct {
	root   *Root
	parent *View // nil for the root view
	key    any   // string or int
	name   string
}

// Name returns the canonical, human-readable path of the view, used in
// diagnostics: "root" for the root view, then ".key" per string key (no
// leading dot directly under root) and "#N" per index.
func (v *View) Name() string {
	return v.name
}

// Key returns the subview for a string key under this view.
func (v *View) Key(key string) *View {
	return v.child(key)
}

// Index returns the subview for a sequence index under this view.
func (v *View) Index(i int) *View {
	return v.child(i)
}

func (v *View) child(key any) *View {
	name := ""
	if v.parent != nil || v.name != RootName {
		name = v.name
	}
	switch k := key.(type) {
	case int:
		name += fmt.Sprintf("#%d", k)
	case string:
		if name != "" {
			name += "."
		}
		name += k
	default:
		if name != "" {
			name += "."
		}
		name += fmt.Sprintf("%v", k)
	}
	return &View{root: v.root, parent: v, key: key, name: name}
}

// Resolve walks the view's path through every source and returns the
// (value, source) pairs present there, highest priority first. A source
// where the path is absent is silently skipped; a source where an
// intermediate container is not subscriptable at all is a TypeError.
func (v *View) Resolve() ([]Resolution, error) {
	if v.parent == nil {
		out := make([]Resolution, 0, len(v.root.sources))
		for _, s := range v.root.sources {
			tree, err := s.Tree()
			if err != nil {
				return nil, err
			}
			out = append(out, Resolution{Value: tree, Source: s})
		}
		return out, nil
	}

	parents, err := v.parent.Resolve()
	if err != nil {
		return nil, err
	}
	var out []Resolution
	for _, res := range parents {
		switch c := res.Value.(type) {
		case map[string]any:
			key, ok := v.key.(string)
			if !ok {
				// An index into a mapping can never match a key.
				continue
			}
			if val, present := c[key]; present {
				out = append(out, Resolution{Value: val, Source: res.Source})
			}
		case []any:
			i, ok := v.key.(int)
			if !ok {
				return nil, &TypeError{
					Name:     v.parent.name,
					Expected: "a collection",
					Actual:   "list",
				}
			}
			if i >= 0 && i < len(c) {
				out = append(out, Resolution{Value: c[i], Source: res.Source})
			}
		default:
			return nil, &TypeError{
				Name:     v.parent.name,
				Expected: "a collection",
				Actual:   typeName(res.Value),
			}
		}
	}
	return out, nil
}

// First returns the value and source of the highest-priority source that
// resolves the view. If nothing resolves, it returns a NotFoundError naming
// the view.
func (v *View) First() (any, *Source, error) {
	pairs, err := v.Resolve()
	if err != nil {
		return nil, nil, err
	}
	if len(pairs) == 0 {
		return nil, nil, &NotFoundError{Name: v.name}
	}
	return pairs[0].Value, pairs[0].Source, nil
}

// Exists reports whether the view resolves in any source. An error is
// returned only for structural problems encountered while navigating;
// plain absence is (false, nil).
func (v *View) Exists() (bool, error) {
	_, _, err := v.First()
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Keys returns the union of mapping keys across every source's value at
// this view, preserving first-seen order across sources (keys within one
// source are visited in sorted order). A source whose value here is present
// but not a mapping is a TypeError.
func (v *View) Keys() ([]string, error) {
	pairs, err := v.Resolve()
	if err != nil {
		return nil, err
	}
	var keys []string
	seen := map[string]bool{}
	for _, res := range pairs {
		dict, ok := res.Value.(map[string]any)
		if !ok {
			return nil, &TypeError{
				Name:     v.name,
				Expected: "a dict",
				Actual:   typeName(res.Value),
			}
		}
		for _, k := range sortedKeys(dict) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

// Items returns (key, subview) pairs for every key visible at this view
// across all sources. Consumers must resolve each subview themselves.
func (v *View) Items() ([]Item, error) {
	keys, err := v.Keys()
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, Item{Key: k, View: v.Key(k)})
	}
	return items, nil
}

// Values returns the subviews for every key visible at this view across all
// sources.
func (v *View) Values() ([]*View, error) {
	keys, err := v.Keys()
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(keys))
	for _, k := range keys {
		views = append(views, v.Key(k))
	}
	return views, nil
}

// Sequence returns index subviews spanning the list in the *first* source
// that resolves the view. Lower-priority sources do not extend or merge the
// sequence: the winning source's length governs. An unresolvable view
// yields no subviews; a resolved non-list value is a TypeError.
func (v *View) Sequence() ([]*View, error) {
	val, _, err := v.First()
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	list, ok := val.([]any)
	if !ok {
		return nil, &TypeError{Name: v.name, Expected: "a list", Actual: typeName(val)}
	}
	views := make([]*View, 0, len(list))
	for i := range list {
		views = append(views, v.Index(i))
	}
	return views, nil
}

// AllContents returns the concatenated contents of the collections at this
// view from *every* source, in priority order. Lists contribute their
// elements and mappings their keys. A non-iterable value in any source is a
// TypeError, even in sources below the one that would win plain resolution.
func (v *View) AllContents() ([]any, error) {
	pairs, err := v.Resolve()
	if err != nil {
		return nil, err
	}
	var out []any
	for _, res := range pairs {
		switch c := res.Value.(type) {
		case []any:
			out = append(out, c...)
		case map[string]any:
			for _, k := range sortedKeys(c) {
				out = append(out, k)
			}
		default:
			return nil, &TypeError{
				Name:     v.name,
				Expected: "an iterable",
				Actual:   typeName(res.Value),
			}
		}
	}
	return out, nil
}

// Set overrides the value at this view by installing a new highest-priority
// overlay source on the root, built by wrapping value in nested single-key
// mappings along the parent chain.
func (v *View) Set(value any) error {
	if v.parent == nil {
		return v.root.Set(value)
	}
	wrapped, err := v.wrap(value)
	if err != nil {
		return err
	}
	return v.parent.Set(wrapped)
}

// Add installs a default for this view: the analogous lowest-priority
// overlay, consulted only when all other sources miss.
func (v *View) Add(value any) error {
	if v.parent == nil {
		return v.root.Add(value)
	}
	wrapped, err := v.wrap(value)
	if err != nil {
		return err
	}
	return v.parent.Add(wrapped)
}

func (v *View) wrap(value any) (map[string]any, error) {
	key, ok := v.key.(string)
	if !ok {
		return nil, &TypeError{
			Name:     v.name,
			Expected: "a string-keyed path for overlays",
			Actual:   typeName(v.key),
		}
	}
	return map[string]any{key: value}, nil
}

// SetKey assigns a value under a single key of this view. Shorthand for
// Set(map[string]any{key: value}).
func (v *View) SetKey(key string, value any) error {
	return v.Set(map[string]any{key: value})
}

// SetArgs overlays a flat map of parsed command-line values onto this view
// at the highest priority. When splitDots is true, keys containing dots are
// broken down into nested mappings ("foo.bar" becomes {"foo": {"bar": ...}}).
func (v *View) SetArgs(args map[string]any, splitDots bool) error {
	sep := ""
	if splitDots {
		sep = "."
	}
	return v.Set(buildDict(args, sep))
}

// buildDict converts a flat map into a nested tree, splitting keys on sep
// when it is non-empty. Later segments descend into child mappings; an
// existing scalar in the way is replaced.
func buildDict(args map[string]any, sep string) map[string]any {
	out := map[string]any{}
	for _, key := range sortedKeys(args) {
		value := args[key]
		segments := []string{key}
		if sep != "" {
			segments = strings.Split(key, sep)
		}
		node := out
		for i, seg := range segments {
			if i == len(segments)-1 {
				node[seg] = value
				break
			}
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[seg] = child
			}
			node = child
		}
	}
	return out
}

// Root returns the Root this view descends from.
func (v *View) Root() *Root {
	return v.root
}

// Redacted reports whether this view is flagged as sensitive.
func (v *View) Redacted() bool {
	return v.root.redactions[v.name]
}

// SetRedact flags or unflags this view as sensitive. Redaction affects
// Flatten and Dump output only; resolution is unchanged.
func (v *View) SetRedact(flag bool) {
	if flag {
		v.root.redactions[v.name] = true
	} else {
		delete(v.root.redactions, v.name)
	}
}

// Flatten recursively reifies the merged tree below this view into plain
// nested mappings, resolving every leaf through all sources.
func (v *View) Flatten() (map[string]any, error) {
	return v.flatten(false)
}

func (v *View) flatten(redact bool) (map[string]any, error) {
	items, err := v.Items()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for _, it := range items {
		if redact && it.View.Redacted() {
			out[it.Key] = RedactedTombstone
			continue
		}
		sub, err := it.View.flatten(redact)
		if err == nil {
			out[it.Key] = sub
			continue
		}
		var te *TypeError
		if !errors.As(err, &te) {
			return nil, err
		}
		// Not a mapping below this point: take the winning value as-is.
		val, _, err := it.View.First()
		if err != nil {
			return nil, err
		}
		out[it.Key] = val
	}
	return out, nil
}

// Get resolves the view against a template and returns the converted,
// validated value. The template may be anything AsTemplate accepts: a
// Template, a mapping of templates, a list of OneOf candidates, or a
// literal default value. Passing nil requires the value to be present.
func (v *View) Get(template any) (any, error) {
	t, err := AsTemplate(template)
	if err != nil {
		return nil, err
	}
	return t.Value(v, nil)
}

// Get resolves a view against a template and asserts the result to T.
func Get[T any](v *View, template any) (T, error) {
	var zero T
	val, err := v.Get(template)
	if err != nil {
		return zero, err
	}
	typed, ok := val.(T)
	if !ok {
		return zero, &TypeError{
			Name:     v.name,
			Expected: fmt.Sprintf("a %T", zero),
			Actual:   typeName(val),
		}
	}
	return typed, nil
}

// Shortcuts for common templates.

// AsString returns the value as a string. Equivalent to Get(String()).
func (v *View) AsString() (string, error) {
	return Get[string](v, String())
}

// AsInt returns the value as an integer (floats are truncated).
func (v *View) AsInt() (int, error) {
	return Get[int](v, Integer())
}

// AsNumber returns the value as a number, unchanged: int, int64, or
// float64. Equivalent to Get(Number()).
func (v *View) AsNumber() (any, error) {
	return v.Get(Number())
}

// AsFloat returns the value as a float64, accepting any numeric value.
func (v *View) AsFloat() (float64, error) {
	val, err := v.Get(Number())
	if err != nil {
		return 0, err
	}
	switch n := val.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, &TypeError{Name: v.name, Expected: "numeric", Actual: typeName(val)}
}

// AsBool returns the value as a bool.
func (v *View) AsBool() (bool, error) {
	return Get[bool](v, Bool())
}

// AsStringSlice returns the value as a list of strings; a single string
// splits on whitespace. Equivalent to Get(StrSeq()).
func (v *View) AsStringSlice() ([]string, error) {
	return Get[[]string](v, StrSeq())
}

// AsChoice returns the value checked against a set of choices. Equivalent
// to Get(Choice(choices)).
func (v *View) AsChoice(choices any) (any, error) {
	return v.Get(Choice(choices))
}

// AsFilename returns the value as an absolute, tilde-free path. Equivalent
// to Get(Filename()).
func (v *View) AsFilename() (string, error) {
	return Get[string](v, Filename())
}

// AsPath returns the value as a Filepath. Equivalent to Get(Path()).
func (v *View) AsPath() (Filepath, error) {
	return Get[Filepath](v, Path())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
