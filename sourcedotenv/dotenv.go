package sourcedotenv

import (
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/layerkit/lamina"
	"github.com/layerkit/lamina/sourceenv"
)

// Options configures dotenv file ingestion.
type Options struct {
	// Prefix filters entries starting with prefix (stripped before
	// normalization). Empty loads all entries.
	Prefix string

	// Sep is the separator within entry names that defines nested keys
	// (default: "__").
	Sep string

	// Required: if true, a missing file causes a read error. Default:
	// false (loads as an empty mapping).
	Required bool

	// Raw disables YAML scalar coercion: all values stay strings.
	Raw bool
}

// New creates a lazily-read source backed by a dotenv file. The file is
// parsed on first access; entries are normalized through the same rules as
// environment variables.
func New(path string, opts Options) *lamina.Source {
	return lamina.NewLazySource(path, func() (map[string]any, error) {
		entries, err := godotenv.Read(path)
		if err != nil {
			if os.IsNotExist(err) && !opts.Required {
				return map[string]any{}, nil
			}
			return nil, &lamina.ReadError{Path: path, Err: err}
		}

		environ := make([]string, 0, len(entries))
		for name, value := range entries {
			environ = append(environ, name+"="+value)
		}
		sort.Strings(environ)

		src := sourceenv.New(sourceenv.Options{
			Prefix:        opts.Prefix,
			Sep:           opts.Sep,
			CaseSensitive: true,
			Raw:           opts.Raw,
			Environ:       environ,
		})
		return src.Tree()
	}, lamina.FileOptions{Optional: !opts.Required})
}
