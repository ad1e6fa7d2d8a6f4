package lamina

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilenameAbsolute(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": "/var/log/app.log"})

	got, err := root.Key("f").Get(Filename())
	if err != nil || got != "/var/log/app.log" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestFilenameTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	root := newTestRoot(t, map[string]any{"f": "~/notes.txt"})

	got, err := root.Key("f").Get(Filename())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != filepath.Join(home, "notes.txt") {
		t.Errorf("got %v", got)
	}
}

func TestFilenameRelativeToCwd(t *testing.T) {
	// A relative value from an in-memory source anchors at the working
	// directory.
	root := newTestRoot(t, map[string]any{"f": "data/x.bin"})

	got, err := root.Key("f").Get(Filename())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(cwd, "data", "x.bin") {
		t.Errorf("got %v", got)
	}
}

func TestFilenameInDir(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": "x.bin"})

	got, err := root.Key("f").Get(Filename().InDir("/srv/data"))
	if err != nil || got != "/srv/data/x.bin" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestFilenameNonString(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": 42})

	_, err := root.Key("f").Get(Filename())
	var te *TypeError
	if !errors.As(err, &te) {
		t.Fatalf("expected TypeError, got %v", err)
	}
}

func TestFilenameInAppDir(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": "cache.db"})
	root.SetConfigDir("/etc/myapp")

	// Values from in-memory sources are anchored at the config directory
	// only when asked.
	got, err := root.Key("f").Get(Filename().InAppDir())
	if err != nil || got != "/etc/myapp/cache.db" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestFilenameFromFileSourceUsesAppDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("f: cache.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := NewRoot(NewFileSource(path, FileOptions{}))
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	root.SetConfigDir("/etc/myapp")

	got, err := root.Key("f").Get(Filename())
	if err != nil || got != "/etc/myapp/cache.db" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestFilenameInSourceDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("f: cache.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := NewRoot(NewFileSource(path, FileOptions{}))
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	root.SetConfigDir("/etc/myapp")

	got, err := root.Key("f").Get(Filename().InSourceDir())
	if err != nil || got != filepath.Join(dir, "cache.db") {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestFilenameBaseForPathsSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	if err := os.WriteFile(path, []byte("f: assets/icon.png\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path, FileOptions{Default: true, BaseForPaths: true})
	root, err := NewRoot(src)
	if err != nil {
		t.Fatalf("NewRoot: %v", err)
	}
	root.SetConfigDir("/etc/myapp")

	// A source flagged as the anchor for its paths beats the config
	// directory without any template opt-in.
	got, err := root.Key("f").Get(Filename())
	if err != nil || got != filepath.Join(dir, "assets", "icon.png") {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestFilenameRelativeToSibling(t *testing.T) {
	root := newTestRoot(t, map[string]any{
		"workdir": "/work",
		"logfile": "logs/app.log",
	})

	got, err := root.View().Get(Map(map[string]any{
		"workdir": Filename(),
		"logfile": Filename().RelativeTo("workdir"),
	}))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	lf, err := got.(*Record).Get("logfile")
	if err != nil || lf != "/work/logs/app.log" {
		t.Errorf("logfile = %v, %v", lf, err)
	}
}

func TestFilenameRelativeToChain(t *testing.T) {
	root := newTestRoot(t, map[string]any{
		"base": "/base",
		"mid":  "sub",
		"leaf": "x.txt",
	})

	got, err := root.View().Get(Map(map[string]any{
		"base": Filename(),
		"mid":  Filename().RelativeTo("base"),
		"leaf": Filename().RelativeTo("mid"),
	}))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	rec := got.(*Record)
	leaf, err := rec.Get("leaf")
	if err != nil || leaf != "/base/sub/x.txt" {
		t.Errorf("leaf = %v, %v", leaf, err)
	}
}

func TestFilenameRelativeToSelf(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": "x"})

	_, err := root.View().Get(Map(map[string]any{
		"f": Filename().RelativeTo("f"),
	}))
	var tpe *TemplateError
	if !errors.As(err, &tpe) {
		t.Fatalf("expected TemplateError, got %v", err)
	}
}

func TestFilenameRelativeToCycle(t *testing.T) {
	root := newTestRoot(t, map[string]any{
		"foo": "a", "bar": "b", "baz": "c",
	})

	_, err := root.View().Get(Map(map[string]any{
		"foo": Filename().RelativeTo("bar"),
		"bar": Filename().RelativeTo("baz"),
		"baz": Filename().RelativeTo("foo"),
	}))
	var tpe *TemplateError
	if !errors.As(err, &tpe) {
		t.Fatalf("expected TemplateError, got %v", err)
	}
}

func TestFilenameRelativeToUndeclared(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": "x", "anchor": "/a"})

	_, err := root.View().Get(Map(map[string]any{
		"f": Filename().RelativeTo("anchor"),
	}))
	var tpe *TemplateError
	if !errors.As(err, &tpe) {
		t.Fatalf("undeclared sibling should be a TemplateError, got %v", err)
	}
}

func TestFilenameRelativeToMissingValue(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": "x"})

	_, err := root.View().Get(Map(map[string]any{
		"f":      Filename().RelativeTo("anchor"),
		"anchor": Filename().WithDefault("/a"),
	}))
	var ve *ValueError
	if !errors.As(err, &ve) {
		t.Fatalf("absent sibling value should be a ValueError, got %v", err)
	}
}

func TestFilenameRelativeToOutsideMapping(t *testing.T) {
	root := newTestRoot(t, map[string]any{"f": "x"})

	_, err := root.Key("f").Get(Filename().RelativeTo("anchor"))
	var tpe *TemplateError
	if !errors.As(err, &tpe) {
		t.Fatalf("expected TemplateError, got %v", err)
	}
}

func TestPathTemplate(t *testing.T) {
	root := newTestRoot(t, map[string]any{"p": "/opt/app/data.db"})

	got, err := root.Key("p").Get(Path())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	p, ok := got.(Filepath)
	if !ok {
		t.Fatalf("expected Filepath, got %T", got)
	}
	if p.Dir() != "/opt/app" || p.Base() != "data.db" || p.Ext() != ".db" {
		t.Errorf("path accessors: dir=%v base=%v ext=%v", p.Dir(), p.Base(), p.Ext())
	}
	if p.Join("..", "other") != "/opt/app/other" {
		t.Errorf("Join = %v", p.Join("..", "other"))
	}
}

func TestPathDefault(t *testing.T) {
	root := newTestRoot(t)

	got, err := root.Key("missing").Get(Path().WithDefault(""))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != Filepath("") {
		t.Errorf("got %v", got)
	}
}
