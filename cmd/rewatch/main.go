// rewatch re-runs a build command whenever a watched source file changes.
package main

import (
	"os"

	"github.com/hupe1980/rewatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
