package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var getCmd = &cobra.Command{
	Use:   "get <key> <file> [file...]",
	Short: "Resolve one dotted key path and print its value",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := buildRoot(args[1:])
		if err != nil {
			return err
		}
		view := root.View()
		for _, seg := range strings.Split(args[0], ".") {
			view = view.Key(seg)
		}
		val, err := view.Get(nil)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(val)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
