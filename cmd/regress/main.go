// regress — golden-file regression harness.
// Runs a binary once per numbered case directory and compares what it
// writes against the reference files stored with each case.
package main

import "github.com/ppiankov/regress/internal/cli"

func main() {
	cli.Execute()
}
