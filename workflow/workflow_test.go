// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllStepsSucceed(t *testing.T) {
	var trace []string
	step := func(name string) Step {
		return Step{
			Name: name,
			Do:   func(context.Context) error { trace = append(trace, "do:"+name); return nil },
			Undo: func(context.Context) error { trace = append(trace, "undo:"+name); return nil },
		}
	}

	require.NoError(t, Run(context.Background(), []Step{step("a"), step("b"), step("c")}))
	assert.Equal(t, []string{"do:a", "do:b", "do:c"}, trace, "no undo on success")
}

func TestRunRevertsInReverseOrder(t *testing.T) {
	var trace []string
	boom := errors.New("boom")

	steps := []Step{
		{
			Name: "a",
			Do:   func(context.Context) error { trace = append(trace, "do:a"); return nil },
			Undo: func(context.Context) error { trace = append(trace, "undo:a"); return nil },
		},
		{
			Name: "b",
			Do:   func(context.Context) error { trace = append(trace, "do:b"); return nil },
			Undo: func(context.Context) error { trace = append(trace, "undo:b"); return nil },
		},
		{
			Name: "c",
			Do:   func(context.Context) error { return boom },
			Undo: func(context.Context) error { t.Error("undo of the failing step must not run"); return nil },
		},
	}

	err := Run(context.Background(), steps)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `step "c"`)
	assert.Equal(t, []string{"do:a", "do:b", "undo:b", "undo:a"}, trace)
}

func TestRunSkipsNilUndo(t *testing.T) {
	var trace []string
	steps := []Step{
		{
			Name: "a",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { trace = append(trace, "undo:a"); return nil },
		},
		{
			Name: "b",
			Do:   func(context.Context) error { return nil },
		},
		{
			Name: "c",
			Do:   func(context.Context) error { return errors.New("boom") },
		},
	}

	require.Error(t, Run(context.Background(), steps))
	assert.Equal(t, []string{"undo:a"}, trace)
}

func TestRunReportsRevertFailures(t *testing.T) {
	boom := errors.New("boom")
	steps := []Step{
		{
			Name: "a",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { return errors.New("undo broke") },
		},
		{
			Name: "b",
			Do:   func(context.Context) error { return boom },
		},
	}

	err := Run(context.Background(), steps)
	require.ErrorIs(t, err, boom, "the primary failure is not masked")
	assert.Contains(t, err.Error(), "undo broke")
}
