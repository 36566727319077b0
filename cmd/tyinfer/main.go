// Command tyinfer solves, validates and traces type-inference problems.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tyinfer/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
