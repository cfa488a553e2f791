// Command ntsseq sequentializes a bounded multi-threaded Numerical
// Transition System into an equivalent single-threaded one.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ntsseq/sequentializer/cmd/ntsseq/cmd"
	"github.com/ntsseq/sequentializer/internal/ir"
)

func main() {
	os.Exit(run())
}

// run maps the command tree's error into an exit code per spec.md §6/§7: 0
// success, 1 conversion failure (*ir.ConversionError), 2 everything else
// (including cmd.ErrUsage, since the 3-way split distinguishes "input
// rejected" from "anything else", not usage from internal failure).
func run() int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var convErr *ir.ConversionError
	if errors.As(err, &convErr) {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Fprintln(os.Stderr, err)
	return 2
}
