// logslice - streaming log slicer
//
// logslice filters text and JSON log lines by substring, regex, field value
// and time range, keeps the first or last N matches, and reports simple
// statistics.
package main

import (
	"os"

	"github.com/ccollicutt/logslice/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
