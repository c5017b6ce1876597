// Command cellflowd runs the cellflow spreadsheet server.
package main

import (
	"fmt"
	"os"

	"github.com/rlayton/cellflow/cmd/cellflowd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
