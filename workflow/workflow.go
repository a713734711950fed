// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow runs a sequence of mutating steps where each step
// carries its own compensating action. When a step fails, the undo of
// every previously completed step runs in reverse order, so a partially
// executed sequence is unwound rather than left half-applied.
package workflow

import (
	"context"
	"fmt"

	"github.com/coreos/pkg/capnslog"
	"github.com/coreos/pkg/multierror"
)

var plog = capnslog.NewPackageLogger("github.com/opsforge/vhdpatch", "workflow")

// Step pairs a mutation with its inverse. Undo may be nil for steps
// that need no compensation, or whose effect is covered by an earlier
// step's undo.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Run executes steps in order. On the first failure it reverts the
// completed steps in reverse order and returns the failing step's
// error; revert failures are attached to it rather than masking it.
// Undo is best effort: one failed undo does not stop the others.
func Run(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		plog.Debugf("Running step %q", step.Name)
		err := step.Do(ctx)
		if err == nil {
			continue
		}

		if revertErr := revert(ctx, steps[:i]); revertErr != nil {
			return fmt.Errorf("step %q: %w (revert also failed: %v)", step.Name, err, revertErr)
		}
		return fmt.Errorf("step %q: %w", step.Name, err)
	}
	return nil
}

func revert(ctx context.Context, completed []Step) error {
	var errs multierror.Error

	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Undo == nil {
			continue
		}
		plog.Infof("Reverting step %q", step.Name)
		if err := step.Undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("reverting %q: %w", step.Name, err))
		}
	}

	return errs.AsError()
}
