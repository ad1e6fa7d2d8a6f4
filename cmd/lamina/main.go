// Command lamina inspects layered configuration files: it merges the given
// sources in priority order and prints the resolved tree or a single value.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
