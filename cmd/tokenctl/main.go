// Command tokenctl encrypts and decrypts stored OAuth tokens and signs or
// checks webhook requests from the command line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var failure *exitError
	if errors.As(err, &failure) {
		if failure.msg != "" {
			fmt.Fprintln(root.ErrOrStderr(), failure.msg)
		}
		return 1
	}

	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return 1
}

// exitError ends the process with status 1 after printing msg verbatim.
type exitError struct {
	msg string
}

func (e *exitError) Error() string {
	return e.msg
}
