package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagColor  bool
	flagFormat string
)

var rootCmd = &cobra.Command{
	Use:   "clr",
	Short: "Configuration-language runtime driver",
	Long: `clr parses and evaluates configuration-language documents.

It is a thin driver over the go-clr library: parse a document with
"clr parse", evaluate and export it with "clr eval", or resolve an
Avro schema with "clr avro". All parsing and evaluation semantics live
in the library; this command only wires flags to library calls and
renders the result.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagColor, "color", false, "colorize error output")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "export format: json or yaml")
}
