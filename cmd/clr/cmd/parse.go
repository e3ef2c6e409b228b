package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-clr/clerr"
	"github.com/cwbudde/go-clr/clparser"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a configuration-language document and report success or the failure position",
	Long: `Parse reads a configuration-language document (from a file argument,
or stdin if none is given) and reports whether it parses, without
evaluating any fields. Use "clr eval" to force evaluation and see
values.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	source, err := readInput(args)
	if err != nil {
		return err
	}

	if _, err := clparser.Parse(source); err != nil {
		if e, ok := err.(*clerr.Error); ok {
			fmt.Fprintln(os.Stderr, clerr.Format(e, source, flagColor))
			os.Exit(1)
		}
		return err
	}

	fmt.Println("OK")
	return nil
}
