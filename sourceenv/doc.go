// Package sourceenv loads configuration overlays from environment
// variables.
//
// Variable names are filtered by prefix, lowercased, and split on a
// separator ("__" by default) into nested keys. Values are coerced as YAML
// scalars so their types match file-based sources.
//
// Example:
//
//	src := sourceenv.New(sourceenv.Options{Prefix: "APP_"})
//	root.Set(src) // APP_DB__HOST=x becomes {"db": {"host": "x"}}
package sourceenv
