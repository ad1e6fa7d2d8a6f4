package lamina

// RootName is the canonical name of the base of a view hierarchy.
const RootName = "root"

// Root anchors a view hierarchy: an ordered list of sources, highest
// priority first, plus the set of view paths flagged as sensitive.
//
// Roots are not safe for concurrent mutation; callers that share a Root
// across goroutines must synchronize Add/Set/Clear themselves.
type Root struct {
	sources    []*Source
	redactions map[string]bool
	configDir  string
}

// NewRoot creates a view hierarchy over the given source-convertible values
// (see Of). The first value has the highest priority. Zero values is valid
// and means nothing resolves.
func NewRoot(values ...any) (*Root, error) {
	r := &Root{redactions: map[string]bool{}}
	for _, v := range values {
		src, err := Of(v)
		if err != nil {
			return nil, err
		}
		r.sources = append(r.sources, src)
	}
	return r, nil
}

// Add installs value as the lowest-priority source: a fallback consulted
// only when every existing source misses.
func (r *Root) Add(value any) error {
	src, err := Of(value)
	if err != nil {
		return err
	}
	r.sources = append(r.sources, src)
	return nil
}

// Set installs value as the highest-priority source, overriding every
// existing source.
func (r *Root) Set(value any) error {
	src, err := Of(value)
	if err != nil {
		return err
	}
	r.sources = append([]*Source{src}, r.sources...)
	return nil
}

// Sources returns the source list, highest priority first. The returned
// slice is a copy; the sources themselves are shared.
func (r *Root) Sources() []*Source {
	out := make([]*Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Clear removes all sources and redactions.
func (r *Root) Clear() {
	r.sources = nil
	r.redactions = map[string]bool{}
}

// View returns the root view of the hierarchy.
func (r *Root) View() *View {
	return &View{root: r, name: RootName}
}

// Key returns the subview for a top-level key. Shorthand for View().Key(key).
func (r *Root) Key(key string) *View {
	return r.View().Key(key)
}

// Get resolves the whole configuration against a template. Shorthand for
// View().Get(template).
func (r *Root) Get(template any) (any, error) {
	return r.View().Get(template)
}

// ConfigDir returns the application config directory used to anchor
// relative filename values, or "" when none was configured.
func (r *Root) ConfigDir() string {
	return r.configDir
}

// SetConfigDir sets the directory against which Filename templates resolve
// relative values that come from files (or that request app-dir anchoring).
func (r *Root) SetConfigDir(dir string) {
	r.configDir = dir
}
