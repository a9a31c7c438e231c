// npm-run-all runs multiple npm-scripts in parallel or sequentially.
package main

import (
	"os"

	"github.com/mysticatea/npm-run-all-sub000/internal/cli"
)

func main() {
	os.Exit(cli.Main(cli.CommandRunAll, os.Args[1:]))
}
