package lamina

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/layerkit/lamina/internal/appdirs"
)

const (
	// ConfigFilename is the name of the user configuration file searched
	// for inside the application's config directory.
	ConfigFilename = "config.yaml"

	// DefaultFilename is the conventional name for an application's bundled
	// defaults file.
	DefaultFilename = "config_default.yaml"
)

// Option configures a Config.
type Option func(*configOptions)

type configOptions struct {
	configDir    string
	defaultsFile string
	skipRead     bool
}

// WithConfigDir overrides config-directory discovery with an explicit
// directory.
func WithConfigDir(dir string) Option {
	return func(o *configOptions) { o.configDir = dir }
}

// WithDefaults adds a bundled defaults file, read as an optional
// default-flagged source at the lowest priority.
func WithDefaults(path string) Option {
	return func(o *configOptions) { o.defaultsFile = path }
}

// SkipRead disables the automatic reading of discovered configuration
// files. Call Read later to pick them up.
func SkipRead() Option {
	return func(o *configOptions) { o.skipRead = true }
}

// Config is the application-facing entry point: a Root whose sources are
// discovered from the application's configuration directory, plus thin
// persistence helpers around the serializer.
type Config struct {
	*Root
	appName   string
	dirEnvVar string
	defaults  string
}

// New creates a configuration for an application name. The config
// directory is discovered from the <APPNAME>DIR environment variable or
// platform-specific locations and created if absent; the user config file
// and the optional defaults file are then installed as sources unless
// SkipRead was given.
func New(appName string, opts ...Option) (*Config, error) {
	var o configOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &Config{
		appName:   appName,
		dirEnvVar: strings.ToUpper(appName) + "DIR",
		defaults:  o.defaultsFile,
	}
	root, err := NewRoot()
	if err != nil {
		return nil, err
	}
	cfg.Root = root

	dir := o.configDir
	if dir == "" {
		dir, err = cfg.discoverConfigDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &ReadError{Path: dir, Err: err}
	}
	cfg.SetConfigDir(dir)

	if !o.skipRead {
		cfg.Read()
	}
	return cfg, nil
}

// discoverConfigDir resolves the application's config directory: the
// <APPNAME>DIR environment variable when set, otherwise the first
// platform-specific candidate containing a config file, otherwise the
// highest-priority candidate.
func (c *Config) discoverConfigDir() (string, error) {
	if dir := os.Getenv(c.dirEnvVar); dir != "" {
		dir = appdirs.Expand(dir)
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			return "", &ReadError{
				Path: dir,
				Err:  fmt.Errorf("%s must be a directory", c.dirEnvVar),
			}
		}
		return dir, nil
	}

	candidates := appdirs.ConfigDirs()
	for _, base := range candidates {
		dir := filepath.Join(base, c.appName)
		if _, err := os.Stat(filepath.Join(dir, ConfigFilename)); err == nil {
			return dir, nil
		}
	}
	return filepath.Join(candidates[0], c.appName), nil
}

// Read installs the discovered configuration files as sources: the user
// config file (optional) and, when configured, the bundled defaults file
// (optional, default-flagged, anchoring its relative paths).
func (c *Config) Read() {
	_ = c.Add(NewFileSource(c.UserConfigPath(), FileOptions{Optional: true}))
	if c.defaults != "" {
		_ = c.Add(NewFileSource(c.defaults, FileOptions{
			Optional:     true,
			Default:      true,
			BaseForPaths: true,
		}))
	}
}

// UserConfigPath returns the location of the user configuration file. The
// file may not exist.
func (c *Config) UserConfigPath() string {
	return filepath.Join(c.ConfigDir(), ConfigFilename)
}

// SetFile parses a file and installs it as the highest-priority source.
// baseForPaths makes relative filename values in the file resolve against
// the file's own directory instead of the config directory. Read and parse
// failures surface immediately.
func (c *Config) SetFile(path string, baseForPaths bool) error {
	src := NewFileSource(path, FileOptions{BaseForPaths: baseForPaths})
	if err := src.Load(); err != nil {
		return err
	}
	return c.Set(src)
}

// Reload re-reads every file-backed source from disk. In-memory sources
// installed with Add or Set are unchanged.
func (c *Config) Reload() error {
	for _, src := range c.Root.sources {
		if !src.fileBacked() {
			continue
		}
		if err := src.Reload(); err != nil {
			return err
		}
	}
	return nil
}

// DumpOption configures Dump behavior.
type DumpOption func(*dumpConfig)

type dumpConfig struct {
	onlyChanged bool
	redact      bool
}

// OnlyChanged excludes default-flagged sources from the dump, so only
// values differing from the bundled defaults appear.
func OnlyChanged() DumpOption {
	return func(cfg *dumpConfig) { cfg.onlyChanged = true }
}

// Redacted replaces values of views flagged as sensitive with a tombstone.
func Redacted() DumpOption {
	return func(cfg *dumpConfig) { cfg.redact = true }
}

// Dump serializes the flattened configuration to YAML.
func (c *Config) Dump(opts ...DumpOption) (string, error) {
	var cfg dumpConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	root := c.Root
	if cfg.onlyChanged {
		trimmed := &Root{
			redactions: c.Root.redactions,
			configDir:  c.Root.configDir,
		}
		for _, src := range c.Root.sources {
			if !src.IsDefault() {
				trimmed.sources = append(trimmed.sources, src)
			}
		}
		root = trimmed
	}

	tree, err := root.View().flatten(cfg.redact)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
