package sourceenv

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/layerkit/lamina"
)

// Options configures environment variable ingestion.
type Options struct {
	// Prefix filters variables starting with prefix (stripped before
	// normalization). Empty loads all variables.
	// Prefix matching behavior is controlled by CaseSensitive.
	Prefix string

	// Sep is the separator within variable names that defines nested keys
	// (default: "__").
	Sep string

	// CaseSensitive controls prefix matching (default: false).
	// Keys are always normalized to lowercase after prefix stripping.
	CaseSensitive bool

	// Raw disables YAML scalar coercion: all values stay strings.
	Raw bool

	// NoLists keeps integer-keyed levels as mappings instead of converting
	// them to lists.
	NoLists bool

	// Environ overrides the process environment; each entry is "KEY=value".
	// Nil means os.Environ().
	Environ []string
}

// New creates a source holding a nested tree built from environment
// variables.
func New(opts Options) *lamina.Source {
	if opts.Sep == "" {
		opts.Sep = "__"
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	flat := map[string]any{}
	var order []string
	for _, env := range environ {
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		if opts.Prefix != "" {
			var hasPrefix bool
			if opts.CaseSensitive {
				hasPrefix = strings.HasPrefix(name, opts.Prefix)
			} else {
				hasPrefix = strings.HasPrefix(strings.ToUpper(name), strings.ToUpper(opts.Prefix))
			}
			if !hasPrefix {
				continue
			}
			name = name[len(opts.Prefix):]
		}
		if name == "" {
			continue
		}

		key := strings.ToLower(name)
		if _, dup := flat[key]; !dup {
			order = append(order, key)
		}
		if opts.Raw {
			flat[key] = value
		} else {
			flat[key] = parseScalar(value)
		}
	}

	tree := map[string]any{}
	for _, key := range order {
		insert(tree, strings.Split(key, opts.Sep), flat[key])
	}
	if !opts.NoLists {
		convertLists(tree)
	}
	return lamina.NewSource(tree)
}

// insert places a value at a nested key path, creating intermediate
// mappings. A scalar in the way is replaced.
func insert(tree map[string]any, path []string, value any) {
	node := tree
	for i, seg := range path {
		if i == len(path)-1 {
			node[seg] = value
			return
		}
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
}

// convertLists rewrites mappings whose keys are all decimal integers into
// lists ordered by index, recursively.
func convertLists(tree map[string]any) {
	for key, value := range tree {
		child, ok := value.(map[string]any)
		if !ok {
			continue
		}
		convertLists(child)
		if list, ok := asList(child); ok {
			tree[key] = list
		}
	}
}

func asList(m map[string]any) ([]any, bool) {
	if len(m) == 0 {
		return nil, false
	}
	indices := make([]int, 0, len(m))
	byIndex := make(map[int]any, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, false
		}
		indices = append(indices, i)
		byIndex[i] = v
	}
	sort.Ints(indices)
	out := make([]any, 0, len(indices))
	for _, i := range indices {
		out = append(out, byIndex[i])
	}
	return out, true
}

// parseScalar coerces a string the way a YAML scalar would parse, so that
// environment values get the same types as file values. Values that would
// parse as collections are kept as raw strings.
func parseScalar(value string) any {
	if value == "" {
		return ""
	}
	var out any
	if err := yaml.Unmarshal([]byte(value), &out); err != nil {
		return value
	}
	switch out.(type) {
	case map[string]any, []any:
		return value
	}
	return out
}
