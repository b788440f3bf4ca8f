// Command planetzero is the carbon footprint tracker CLI and HTTP server.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rshade/planetzero/internal/cli"
	"github.com/rshade/planetzero/pkg/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and maps its error to a process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := cli.NewRootCmd(version.GetVersion())
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}
