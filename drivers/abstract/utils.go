package abstract

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/datazip-inc/tap-apparel-magic/destination"
)

// handleWriterCleanup returns the deferred cleanup of a stream sync: it closes the writer,
// recovers a panic into *err and runs postProcess (the checkpoint) only when nothing failed.
// cancel is called on failure so requests still in flight for the stream are dropped.
func handleWriterCleanup(ctx context.Context, cancel context.CancelFunc, err *error, writer *destination.WriterThread, postProcess func(ctx context.Context) error) func() {
	return func() {
		var result error
		if r := recover(); r != nil {
			result = multierror.Append(result, fmt.Errorf("panic recovered: %v", r))
		}
		if *err != nil {
			result = multierror.Append(result, *err)
		}

		// Cancel context if there's an error, so other readers of this context can detect the failure
		if result != nil {
			cancel()
		}

		if closeErr := writer.Close(ctx); closeErr != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close writer: %s", closeErr))
		}

		if result == nil {
			if postErr := postProcess(ctx); postErr != nil {
				result = multierror.Append(result, postErr)
			}
		}

		if merr, ok := result.(*multierror.Error); ok && merr.Len() == 1 {
			result = merr.Errors[0]
		}
		*err = result
	}
}
