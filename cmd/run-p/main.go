// run-p runs the given npm-scripts in parallel.
package main

import (
	"os"

	"github.com/mysticatea/npm-run-all-sub000/internal/cli"
)

func main() {
	os.Exit(cli.Main(cli.CommandRunP, os.Args[1:]))
}
