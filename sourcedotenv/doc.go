// Package sourcedotenv loads configuration overlays from dotenv (.env)
// files.
//
// Entries are normalized exactly like environment variables: names are
// lowercased and split on a separator into nested keys, and values are
// coerced as YAML scalars.
//
// Example:
//
//	src := sourcedotenv.New(".env", sourcedotenv.Options{Prefix: "APP_"})
//	root.Set(src)
package sourcedotenv
