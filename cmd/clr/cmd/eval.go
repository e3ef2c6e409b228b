package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-clr/clerr"
	"github.com/cwbudde/go-clr/clparser"
	"github.com/cwbudde/go-clr/clr"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval [file]",
	Short: "Parse and evaluate a configuration-language document, printing its exported tree",
	Long: `Eval reads a configuration-language document (from a file argument, or
stdin if none is given), parses it, forces evaluation of every exported
field, and prints the result in the format selected by --format
(json, the default, or yaml).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	source, err := readInput(args)
	if err != nil {
		return err
	}

	root, err := clparser.Parse(source)
	if err != nil {
		if e, ok := err.(*clerr.Error); ok {
			fmt.Fprintln(os.Stderr, clerr.Format(e, source, flagColor))
			os.Exit(1)
		}
		return err
	}

	var out string
	switch flagFormat {
	case "json":
		out, err = clr.ToJSON(root)
	case "yaml":
		out, err = clr.ToYAML(root)
	default:
		return fmt.Errorf("unknown --format %q (want json or yaml)", flagFormat)
	}
	if err != nil {
		if e, ok := err.(*clerr.Error); ok {
			fmt.Fprintln(os.Stderr, clerr.Format(e, source, flagColor))
			os.Exit(1)
		}
		return err
	}

	fmt.Println(out)
	return nil
}
