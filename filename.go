package lamina

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Filepath is a resolved filesystem path value produced by the Path
// template.
type Filepath string

func (p Filepath) String() string { return string(p) }

// Dir returns the path with its last element removed.
func (p Filepath) Dir() Filepath { return Filepath(filepath.Dir(string(p))) }

// Base returns the last element of the path.
func (p Filepath) Base() string { return filepath.Base(string(p)) }

// Ext returns the file extension of the path.
func (p Filepath) Ext() string { return filepath.Ext(string(p)) }

// Join appends elements to the path.
func (p Filepath) Join(elem ...string) Filepath {
	parts := append([]string{string(p)}, elem...)
	return Filepath(filepath.Join(parts...))
}

// FilenameTemplate validates strings as filenames, returned as absolute,
// tilde-free paths.
//
// A relative value is anchored against, in strict precedence order: the
// template's explicit directory, a sibling value named by RelativeTo, the
// winning source file's directory (when the source is flagged as the anchor
// for its paths, or InSourceDir was requested), the application's config
// directory (when the value came from a file, or InAppDir was requested),
// and finally the current working directory.
type FilenameTemplate struct {
	defaults
	dir         string
	relativeTo  string
	inAppDir    bool
	inSourceDir bool
}

// Filename creates a required filename template.
func Filename() *FilenameTemplate {
	return &FilenameTemplate{defaults: defaults{required: true}}
}

func (t *FilenameTemplate) WithDefault(def string) *FilenameTemplate {
	t.def = def
	t.required = false
	return t
}

// InDir anchors relative values against an explicit directory, taking
// precedence over every other anchor.
func (t *FilenameTemplate) InDir(dir string) *FilenameTemplate {
	t.dir = dir
	return t
}

// RelativeTo anchors relative values against the resolved value of a
// sibling key validated by the same mapping template. Siblings may
// themselves be relative to further siblings; self-reference and cycles are
// rejected with a TemplateError.
func (t *FilenameTemplate) RelativeTo(sibling string) *FilenameTemplate {
	t.relativeTo = sibling
	return t
}

// InAppDir anchors relative values against the application's config
// directory even when the value does not come from a file.
func (t *FilenameTemplate) InAppDir() *FilenameTemplate {
	t.inAppDir = true
	return t
}

// InSourceDir anchors relative values against the directory containing the
// winning source's file, taking precedence over the config directory.
func (t *FilenameTemplate) InSourceDir() *FilenameTemplate {
	t.inSourceDir = true
	return t
}

func (t *FilenameTemplate) relativeSibling() string {
	return t.relativeTo
}

func (t *FilenameTemplate) Value(view *View, enclosing Template) (any, error) {
	return t.resolve(view, enclosing)
}

func (t *FilenameTemplate) resolve(view *View, enclosing Template) (any, error) {
	val, src, err := view.First()
	if err != nil {
		if IsNotFound(err) {
			return t.fallback(view.Name())
		}
		return nil, err
	}
	s, ok := val.(string)
	if !ok {
		return nil, &TypeError{
			Name:     view.Name(),
			Expected: "a filename",
			Actual:   typeName(val),
		}
	}

	s = expandUser(s)

	if !filepath.IsAbs(s) {
		switch {
		case t.dir != "":
			s = filepath.Join(t.dir, s)

		case t.relativeTo != "":
			base, err := t.resolveRelativeTo(view, enclosing)
			if err != nil {
				return nil, err
			}
			s = filepath.Join(base, s)

		case (src.Filename() != "" && t.inSourceDir) ||
			(src.BaseForPaths() && !t.inAppDir):
			s = filepath.Join(filepath.Dir(src.Filename()), s)

		case src.Filename() != "" || t.inAppDir:
			if dir := view.root.configDir; dir != "" {
				s = filepath.Join(dir, s)
			}
		}
	}

	return filepath.Abs(s)
}

// resolveRelativeTo computes the sibling anchor for a relative value. It
// synthesizes a mapping template restricted to the transitive chain of
// sibling dependencies, rejecting self-reference and cycles before any
// resolution takes place.
func (t *FilenameTemplate) resolveRelativeTo(view *View, enclosing Template) (string, error) {
	mt, ok := enclosing.(*MappingTemplate)
	if !ok {
		return "", &TemplateError{
			Message: "a sibling-relative filename may only be used inside a mapping template",
		}
	}
	if view.parent == nil {
		return "", &TemplateError{
			Message: "a sibling-relative filename requires a surrounding mapping",
		}
	}
	if key, ok := view.key.(string); ok && key == t.relativeTo {
		return "", &TemplateError{
			Message: fmt.Sprintf("%s is relative to itself", view.Name()),
		}
	}

	// Gather the transitive chain of sibling templates, and nothing else.
	// Each visited key is removed from the remaining set; revisiting a
	// declared key means the chain loops.
	remaining := make(map[string]Template, len(mt.subs))
	for k, sub := range mt.subs {
		remaining[k] = sub
	}
	chain := map[string]Template{}
	next := t.relativeTo
	for next != "" {
		sub, ok := remaining[next]
		if !ok {
			if _, declared := mt.subs[next]; declared {
				return "", &TemplateError{
					Message: fmt.Sprintf("%s and %s are recursively relative",
						view.Name(), t.relativeTo),
				}
			}
			return "", &TemplateError{
				Message: fmt.Sprintf("missing template for %s, needed to expand %s's relative path",
					t.relativeTo, view.Name()),
			}
		}
		delete(remaining, next)
		chain[next] = sub
		if rs, ok := sub.(interface{ relativeSibling() string }); ok {
			next = rs.relativeSibling()
		} else {
			next = ""
		}
	}

	keys, err := view.parent.Keys()
	if err != nil {
		return "", err
	}
	found := false
	for _, k := range keys {
		if k == t.relativeTo {
			found = true
			break
		}
	}
	if !found {
		return "", &ValueError{
			Name:    view.Name(),
			Message: fmt.Sprintf("needs sibling value %q to expand relative path", t.relativeTo),
		}
	}

	res, err := mappingOf(chain).Value(view.parent, nil)
	if err != nil {
		return "", err
	}
	base, err := res.(*Record).Get(t.relativeTo)
	if err != nil {
		return "", err
	}
	switch b := base.(type) {
	case string:
		return b, nil
	case Filepath:
		return string(b), nil
	}
	return "", &TypeError{
		Name:     view.parent.Key(t.relativeTo).Name(),
		Expected: "a filename",
		Actual:   typeName(base),
	}
}

// PathTemplate resolves filenames exactly like FilenameTemplate and wraps
// the result in a Filepath value.
type PathTemplate struct {
	fn FilenameTemplate
}

// Path creates a required path template.
func Path() *PathTemplate {
	return &PathTemplate{fn: FilenameTemplate{defaults: defaults{required: true}}}
}

func (t *PathTemplate) WithDefault(def Filepath) *PathTemplate {
	t.fn.def = def
	t.fn.required = false
	return t
}

// InDir anchors relative values against an explicit directory.
func (t *PathTemplate) InDir(dir string) *PathTemplate {
	t.fn.dir = dir
	return t
}

// RelativeTo anchors relative values against a sibling value.
func (t *PathTemplate) RelativeTo(sibling string) *PathTemplate {
	t.fn.relativeTo = sibling
	return t
}

// InAppDir anchors relative values against the application's config
// directory.
func (t *PathTemplate) InAppDir() *PathTemplate {
	t.fn.inAppDir = true
	return t
}

// InSourceDir anchors relative values against the winning source file's
// directory.
func (t *PathTemplate) InSourceDir() *PathTemplate {
	t.fn.inSourceDir = true
	return t
}

func (t *PathTemplate) relativeSibling() string {
	return t.fn.relativeTo
}

func (t *PathTemplate) defaultInfo() (any, bool) {
	return t.fn.defaultInfo()
}

func (t *PathTemplate) Value(view *View, enclosing Template) (any, error) {
	val, err := t.fn.resolve(view, enclosing)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case nil:
		return nil, nil
	case string:
		return Filepath(v), nil
	case Filepath:
		return v, nil
	}
	return val, nil
}

// expandUser replaces a leading tilde with the user's home directory.
// "~user" forms are left untouched.
func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
