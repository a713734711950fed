// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsforge/vhdpatch/image"
	"github.com/opsforge/vhdpatch/image/azure"
	"github.com/opsforge/vhdpatch/workflow"
)

var (
	cmdFinalize = &cobra.Command{
		Use:   "finalize",
		Short: "Copy resized disk data and graft the reference footer in one go",
		Long: `Run the full finishing sequence of a disk resize: copy the already
truncated disk data from --source-url into the target blob, wait for
the copy to complete, transplant the reference blob's footer, and
discard the reference. If a step fails, completed steps are reverted in
reverse order, which deletes the partially written target; pass
--keep-on-failure to leave it in place for inspection instead.`,
		Run: runFinalize,
	}

	// finalize options
	fzo struct {
		sourceURL     string
		targetURL     string
		referenceURL  string
		interval      time.Duration
		timeout       time.Duration
		keepReference bool
		keepOnFailure bool
	}
)

func init() {
	fs := cmdFinalize.Flags()

	fs.StringVar(&fzo.sourceURL, "source-url", "", "SAS URL of the truncated source data blob")
	fs.StringVar(&fzo.targetURL, "target-url", "", "SAS URL of the target page blob")
	fs.StringVar(&fzo.referenceURL, "reference-url", "", "SAS URL of the reference page blob")
	fs.DurationVar(&fzo.interval, "interval", azure.DefaultCopyPollInterval, "copy poll interval")
	fs.DurationVar(&fzo.timeout, "timeout", 2*time.Hour, "overall deadline")
	fs.BoolVar(&fzo.keepReference, "keep-reference", false, "do not delete the reference blob")
	fs.BoolVar(&fzo.keepOnFailure, "keep-on-failure", false, "do not revert completed steps on failure")

	root.AddCommand(cmdFinalize)
}

func runFinalize(cmd *cobra.Command, args []string) {
	if fzo.sourceURL == "" || fzo.targetURL == "" || fzo.referenceURL == "" {
		plog.Fatalf("--source-url, --target-url and --reference-url are required")
	}

	target, err := azure.NewImageFromURL(fzo.targetURL)
	if err != nil {
		plog.Fatalf("target: %v", err)
	}
	reference, err := azure.NewImageFromURL(fzo.referenceURL)
	if err != nil {
		plog.Fatalf("reference: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), fzo.timeout)
	defer cancel()

	steps := []workflow.Step{
		{
			Name: "copy disk data",
			Do: func(ctx context.Context) error {
				if _, err := target.StartCopy(ctx, fzo.sourceURL); err != nil {
					return err
				}
				_, err := target.WaitForCopy(ctx, fzo.interval)
				return err
			},
			// An unfootered or partially copied target is invalid
			// either way, so the inverse is deletion.
			Undo: func(ctx context.Context) error {
				return target.Delete(ctx)
			},
		},
		{
			Name: "transplant footer",
			Do: func(ctx context.Context) error {
				return image.TransplantFooter(ctx, target, reference)
			},
		},
		{
			Name: "discard reference",
			Do: func(ctx context.Context) error {
				if fzo.keepReference {
					return nil
				}
				return reference.Delete(ctx)
			},
		},
	}
	if fzo.keepOnFailure {
		for i := range steps {
			steps[i].Undo = nil
		}
	}

	if err := workflow.Run(ctx, steps); err != nil {
		plog.Fatalf("Finalize failed: %v", err)
	}
	plog.Printf("Disk finalized")
}
