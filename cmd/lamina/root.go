package main

import (
	"github.com/spf13/cobra"

	"github.com/layerkit/lamina"
	"github.com/layerkit/lamina/sourcedotenv"
	"github.com/layerkit/lamina/sourceenv"
)

var (
	envPrefix  string
	dotenvFile string
)

var rootCmd = &cobra.Command{
	Use:   "lamina",
	Short: "Inspect layered configuration files",
	Long: `lamina merges configuration files, environment variables, and dotenv
files into a single hierarchy and resolves values through it.

Files are listed highest priority first; an environment or dotenv overlay,
when requested, takes priority over all files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envPrefix, "env-prefix", "",
		"overlay environment variables with this prefix at the highest priority")
	rootCmd.PersistentFlags().StringVar(&dotenvFile, "dotenv", "",
		"overlay a dotenv file at the highest priority")
}

// buildRoot assembles the hierarchy from the positional file arguments and
// the overlay flags.
func buildRoot(files []string) (*lamina.Root, error) {
	root, err := lamina.NewRoot()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		src := lamina.NewFileSource(f, lamina.FileOptions{})
		if err := src.Load(); err != nil {
			return nil, err
		}
		if err := root.Add(src); err != nil {
			return nil, err
		}
	}
	if dotenvFile != "" {
		if err := root.Set(sourcedotenv.New(dotenvFile, sourcedotenv.Options{Required: true})); err != nil {
			return nil, err
		}
	}
	if envPrefix != "" {
		if err := root.Set(sourceenv.New(sourceenv.Options{Prefix: envPrefix})); err != nil {
			return nil, err
		}
	}
	return root, nil
}
