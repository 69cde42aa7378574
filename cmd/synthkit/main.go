// Command synthkit compiles transition systems and GR(1) requirements and
// hands them to a reactive synthesis engine.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/synthkit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
