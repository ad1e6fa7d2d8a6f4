package lamina

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// loadState tracks the lazy materialization of a backed source.
type loadState int

const (
	stateUnloaded loadState = iota
	stateLoaded
	stateFailed
)

// LoadFunc produces the data tree for a lazily-backed source. It is invoked
// at most once per (re)load.
type LoadFunc func() (map[string]any, error)

// FileOptions configures a file-backed source.
type FileOptions struct {
	// Format: "yaml", "json", or "toml". Auto-detected from extension if empty.
	Format string

	// Optional: if true, a missing file loads as an empty mapping instead of
	// failing with a ReadError.
	Optional bool

	// Default marks the source as providing package-bundled fallback values.
	// Default sources are excluded from "only changed" dumps.
	Default bool

	// BaseForPaths makes relative filename values inside this source resolve
	// against the directory containing the file rather than the application's
	// config directory.
	BaseForPaths bool
}

// Source is one prioritized, read-only provider of configuration data: a
// tree of nested mappings, sequences, and scalars, plus provenance metadata.
//
// A Source is immutable once constructed, aside from lazy on-demand loading
// which populates it exactly once before first read. Sources are not safe
// for concurrent lazy loading without external synchronization.
type Source struct {
	data         map[string]any
	filename     string
	isDefault    bool
	baseForPaths bool

	state loadState
	load  LoadFunc
	err   error
}

// NewSource creates an in-memory source from a data tree. The tree is used
// as-is; callers must not mutate it afterwards.
func NewSource(data map[string]any) *Source {
	if data == nil {
		data = map[string]any{}
	}
	return &Source{data: data, state: stateLoaded}
}

// NewFileSource creates a lazily-parsed source backed by a configuration
// file. The file is not read until the source is first consulted; parse and
// read failures surface at that point as a ReadError (unless Optional).
func NewFileSource(path string, opts FileOptions) *Source {
	s := &Source{
		filename:     path,
		isDefault:    opts.Default,
		baseForPaths: opts.BaseForPaths,
	}
	format := opts.Format
	if format == "" {
		format = inferFormat(path)
	}
	optional := opts.Optional
	s.load = func() (map[string]any, error) {
		return loadFile(path, format, optional)
	}
	return s
}

// NewLazySource creates a source backed by an arbitrary producer function.
// path may be empty for producers with no originating file; when set, it is
// used for provenance and relative-path anchoring exactly like a file
// source's own path.
func NewLazySource(path string, load LoadFunc, opts FileOptions) *Source {
	return &Source{
		filename:     path,
		isDefault:    opts.Default,
		baseForPaths: opts.BaseForPaths,
		load:         load,
	}
}

// Of normalizes a value into a Source. It accepts an existing *Source, a
// plain map[string]any tree, or a file path string with a recognized
// extension (.yaml, .yml, .json, .toml). Anything else is a TypeError.
func Of(value any) (*Source, error) {
	switch v := value.(type) {
	case *Source:
		return v, nil
	case map[string]any:
		return NewSource(v), nil
	case string:
		if inferFormat(v) == "" {
			return nil, &TypeError{
				Name:     "source",
				Expected: "a file path with a recognized extension",
				Actual:   fmt.Sprintf("%q", v),
			}
		}
		return NewFileSource(v, FileOptions{}), nil
	default:
		return nil, &TypeError{
			Name:     "source",
			Expected: "a dict, a file path, or a Source",
			Actual:   typeName(value),
		}
	}
}

// ensureLoaded drives the load state machine: Unloaded sources load exactly
// once; Failed sources keep returning the original error.
func (s *Source) ensureLoaded() error {
	switch s.state {
	case stateLoaded:
		return nil
	case stateFailed:
		return s.err
	}
	data, err := s.load()
	if err != nil {
		s.state = stateFailed
		s.err = err
		return err
	}
	if data == nil {
		data = map[string]any{}
	}
	s.data = data
	s.state = stateLoaded
	return nil
}

// Load ensures the source's data is populated from its backing store. It is
// idempotent: an in-memory source is always loaded, and a backed source
// loads at most once. A failed load is sticky until Reload.
func (s *Source) Load() error {
	return s.ensureLoaded()
}

// Reload resets a backed source and loads it again from its producer.
// In-memory sources are unaffected.
func (s *Source) Reload() error {
	if s.load == nil {
		return nil
	}
	s.state = stateUnloaded
	s.err = nil
	s.data = nil
	return s.ensureLoaded()
}

// Exists reports whether the source has data available: true if already
// loaded, or if it is file-backed and the file is present on disk.
func (s *Source) Exists() bool {
	if s.state == stateLoaded {
		return true
	}
	if s.filename == "" {
		return false
	}
	_, err := os.Stat(s.filename)
	return err == nil
}

// Tree returns the source's top-level data mapping, loading it first if
// necessary.
func (s *Source) Tree() (map[string]any, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return s.data, nil
}

// Get returns the top-level value for key, loading the source first if
// necessary. A missing key is a NotFoundError.
func (s *Source) Get(key string) (any, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	v, ok := s.data[key]
	if !ok {
		return nil, &NotFoundError{Name: key}
	}
	return v, nil
}

// Keys returns the source's top-level keys in sorted order, loading the
// source first if necessary.
func (s *Source) Keys() ([]string, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Filename returns the originating file path, or "" for in-memory sources.
func (s *Source) Filename() string {
	return s.filename
}

// IsDefault reports whether the source carries package-bundled fallback
// values.
func (s *Source) IsDefault() bool {
	return s.isDefault
}

// BaseForPaths reports whether relative filename values in this source
// resolve against the source file's own directory.
func (s *Source) BaseForPaths() bool {
	return s.baseForPaths
}

// fileBacked reports whether the source reloads from a producer.
func (s *Source) fileBacked() bool {
	return s.load != nil
}

// loadFile reads and parses a configuration file into a mapping tree.
func loadFile(path, format string, optional bool) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && optional {
			return map[string]any{}, nil
		}
		return nil, &ReadError{Path: path, Err: err}
	}
	data, err := parseTree(raw, format)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return data, nil
}

// parseTree decodes a document in the given format into a mapping tree.
func parseTree(raw []byte, format string) (map[string]any, error) {
	var tree map[string]any
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, err
		}
	case "json":
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &tree); err != nil {
				return nil, err
			}
		}
	case "toml":
		if err := toml.Unmarshal(raw, &tree); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %q (supported: yaml, json, toml)", format)
	}
	if tree == nil {
		tree = map[string]any{}
	}
	return tree, nil
}

func inferFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}
