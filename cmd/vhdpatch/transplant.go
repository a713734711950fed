// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsforge/vhdpatch/image"
	"github.com/opsforge/vhdpatch/image/azure"
	"github.com/opsforge/vhdpatch/util"
)

var (
	cmdTransplant = &cobra.Command{
		Use:   "transplant",
		Short: "Graft the reference blob's footer onto the target blob",
		Long: `Copy the trailing 512-byte footer of a correctly sized reference page
blob onto a resized target page blob, making the target a valid fixed
VHD of the reference's length. The reference is deleted after success
unless --keep-reference is given; on failure it always survives so the
operation can be retried.`,
		Run: runTransplant,
	}

	// transplant options
	tpo struct {
		targetURL     string
		referenceURL  string
		keepReference bool
		retries       int
		retryDelay    time.Duration
	}
)

func init() {
	sv := cmdTransplant.Flags().StringVar

	sv(&tpo.targetURL, "target-url", "", "SAS URL of the target page blob")
	sv(&tpo.referenceURL, "reference-url", "", "SAS URL of the reference page blob")
	cmdTransplant.Flags().BoolVar(&tpo.keepReference, "keep-reference", false,
		"do not delete the reference blob after a successful transplant")
	cmdTransplant.Flags().IntVar(&tpo.retries, "retries", 0,
		"times to retry the whole operation on failure")
	cmdTransplant.Flags().DurationVar(&tpo.retryDelay, "retry-delay", 10*time.Second,
		"delay between retries")

	root.AddCommand(cmdTransplant)
}

func runTransplant(cmd *cobra.Command, args []string) {
	if tpo.targetURL == "" || tpo.referenceURL == "" {
		plog.Fatalf("--target-url and --reference-url are required")
	}

	target, err := azure.NewImageFromURL(tpo.targetURL)
	if err != nil {
		plog.Fatalf("target: %v", err)
	}
	reference, err := azure.NewImageFromURL(tpo.referenceURL)
	if err != nil {
		plog.Fatalf("reference: %v", err)
	}

	ctx := context.Background()
	transplant := func() error {
		if tpo.keepReference {
			return image.TransplantFooter(ctx, target, reference)
		}
		return image.TransplantAndDiscard(ctx, target, reference)
	}

	if err := util.Retry(tpo.retries+1, tpo.retryDelay, transplant); err != nil {
		plog.Fatalf("Transplant failed: %v", err)
	}
	plog.Printf("Footer transplanted")
}
