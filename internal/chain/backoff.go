// Package chain holds support code shared by coin adapter implementations.
package chain

import (
	"context"
	"time"

	"walletbridge/pkg/apperror"
)

// Retry runs fn until it succeeds, returns a terminal classified error, or
// the attempt budget is exhausted. Delays double per attempt starting at
// base. Terminal errors (anything already wrapped as *apperror.AppError)
// stop the loop immediately: only transient backend failures are retried
// inside adapter boundaries.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(base << (i - 1)):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if apperror.IsTerminal(err) {
			return err
		}
	}
	return err
}
