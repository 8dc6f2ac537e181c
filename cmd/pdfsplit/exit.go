package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/pdfsplit/pkg/pdfsplit"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailure     = 1 // unclassified error, or a batch with failed files
	exitUsage       = 2
	exitNotFound    = 3
	exitMalformed   = 4
	exitAuth        = 5
	exitTemplate    = 6
	exitIO          = 7
	exitExists      = 8
	exitInterrupted = 130
)

// batchError is returned by the batch command when some files failed.
type batchError struct {
	Failed int
	Total  int
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d of %d files failed", e.Failed, e.Total)
}

func usageError(err error) error {
	return &pdfsplit.Error{Kind: pdfsplit.KindInvalidArgument, Op: "usage", Err: err}
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var be *batchError
	if errors.As(err, &be) {
		return exitFailure
	}
	switch pdfsplit.KindOf(err) {
	case pdfsplit.KindInvalidArgument:
		return exitUsage
	case pdfsplit.KindNotFound:
		return exitNotFound
	case pdfsplit.KindMalformed:
		return exitMalformed
	case pdfsplit.KindAuth:
		return exitAuth
	case pdfsplit.KindTemplate:
		return exitTemplate
	case pdfsplit.KindIO:
		return exitIO
	case pdfsplit.KindExists:
		return exitExists
	case pdfsplit.KindCanceled:
		return exitInterrupted
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	return exitFailure
}
