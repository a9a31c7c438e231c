// run-s runs the given npm-scripts sequentially.
package main

import (
	"os"

	"github.com/mysticatea/npm-run-all-sub000/internal/cli"
)

func main() {
	os.Exit(cli.Main(cli.CommandRunS, os.Args[1:]))
}
