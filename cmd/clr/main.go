// Command clr is a thin demonstration CLI over clparser/clr/avro. It is
// explicitly outside the core library's scope (spec §1 Out of scope
// names "CLI entry points") -- it owns no parsing or evaluation logic
// of its own, only flag handling and rendering.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-clr/cmd/clr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
