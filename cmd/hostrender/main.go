// Command hostrender renders audio and MIDI files offline through a single
// processing unit or a FILTERGRAPH document.
//
// Usage:
//
//	hostrender audio --plugin gain --in in.wav --out out.wav [--state gain.state]
//	hostrender midi --plugin sine-synth --in song.mid --out out.wav
//	hostrender graph --graph chain.filtergraph --in in.wav --out out.wav
//	hostrender graph --graph synth.filtergraph --midi song.mid --out out.wav
//	hostrender units
//
// Render settings come from --config (YAML) and are overridden by flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitError carries the process exit code for a failed run.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error { return e.Err }

func usageError(err error) *ExitError {
	return &ExitError{Code: 2, Message: err.Error(), Err: err}
}

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command line in args, writing reports to out and logs
// to errOut.
func run(ctx context.Context, out, errOut io.Writer, args []string) error {
	cmd := newRootCmd(out, errOut)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
