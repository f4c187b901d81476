// Command perfmodel merges execution traces into a performance model.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/perfmodel/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
