package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/matsen/slack-cli/internal/credential"
	"github.com/matsen/slack-cli/internal/resolve"
)

// reportError writes err to w and returns the exit code for it.
func reportError(w io.Writer, err error) int {
	var usage *usageError
	var notFound *resolve.SourceNotFoundError
	var invalid *credential.InvalidCredentialError

	switch {
	case errors.As(err, &usage):
		fmt.Fprintln(w, usage.msg)
		return ExitError
	case errors.As(err, &notFound):
		fmt.Fprintln(w, notFound.Error())
		return ExitError
	case errors.As(err, &invalid):
		fmt.Fprintln(w, invalid.Error())
		return ExitError
	case errors.Is(err, credential.ErrNoCredentials):
		fmt.Fprintf(w, "Error: %s\n", err)
		return ExitError
	default:
		fmt.Fprintf(w, "Error: %s\n", err)
		return ExitFailure
	}
}
