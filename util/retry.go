// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"context"
	"time"
)

// Retry calls function f until it has been called attempts times, or succeeds.
// Retry delays for delay between calls of f. If f does not succeed after
// attempts calls, the error from the last call is returned.
func Retry(attempts int, delay time.Duration, f func() error) error {
	return RetryConditional(attempts, delay, func(_ error) bool { return true }, f)
}

// RetryConditional calls function f until it has been called attempts times, or succeeds.
// Retry delays for delay between calls of f. If f does not succeed after
// attempts calls, the error from the last call is returned.
// If shouldRetry returns false on the error generated, RetryConditional stops immediately
// and returns the error.
func RetryConditional(attempts int, delay time.Duration, shouldRetry func(err error) bool, f func() error) error {
	var err error

	for i := 0; i < attempts; i++ {
		err = f()
		if err == nil || !shouldRetry(err) {
			break
		}

		if i < attempts-1 {
			time.Sleep(delay)
		}
	}

	return err
}

// WaitUntilReady polls checkFunction every delay until it reports done or
// returns an error, or until ctx is cancelled or its deadline passes, in
// which case the context error is returned. The first check happens after
// one full delay.
func WaitUntilReady(ctx context.Context, delay time.Duration, checkFunction func(context.Context) (bool, error)) error {
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		done, err := checkFunction(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
