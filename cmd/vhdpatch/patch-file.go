// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/opsforge/vhdpatch/image"
)

var (
	cmdPatchFile = &cobra.Command{
		Use:   "patch-file",
		Short: "Fix up the footer of a local image file",
		Long: `Finalize a resized local VHD. With --reference the reference file's
footer is transplanted onto the target; with --size-bytes the target is
resized to that length and a freshly built footer is stamped in place.`,
		Run: runPatchFile,
	}

	// patch-file options
	pfo struct {
		target          string
		reference       string
		sizeBytes       int64
		deleteReference bool
	}
)

func init() {
	fs := cmdPatchFile.Flags()

	fs.StringVar(&pfo.target, "target", "", "image file to fix up")
	fs.StringVar(&pfo.reference, "reference", "", "reference image file")
	fs.Int64Var(&pfo.sizeBytes, "size-bytes", 0, "total length to stamp, footer included")
	fs.BoolVar(&pfo.deleteReference, "delete-reference", false,
		"remove the reference file after a successful transplant")

	root.AddCommand(cmdPatchFile)
}

func runPatchFile(cmd *cobra.Command, args []string) {
	if pfo.target == "" {
		plog.Fatalf("--target is required")
	}
	if (pfo.reference == "") == (pfo.sizeBytes == 0) {
		plog.Fatalf("exactly one of --reference and --size-bytes is required")
	}

	target, err := image.OpenFile(pfo.target)
	if err != nil {
		plog.Fatalf("target: %v", err)
	}
	defer target.Close()

	ctx := context.Background()

	if pfo.reference == "" {
		if err := image.StampFooter(ctx, target, pfo.sizeBytes); err != nil {
			plog.Fatalf("stamping footer: %v", err)
		}
		plog.Printf("Stamped footer for %d bytes onto %s", pfo.sizeBytes, pfo.target)
		return
	}

	reference, err := image.OpenFile(pfo.reference)
	if err != nil {
		plog.Fatalf("reference: %v", err)
	}

	if pfo.deleteReference {
		err = image.TransplantAndDiscard(ctx, target, reference)
	} else {
		err = image.TransplantFooter(ctx, target, reference)
		reference.Close()
	}
	if err != nil {
		plog.Fatalf("Transplant failed: %v", err)
	}
	plog.Printf("Footer transplanted onto %s", pfo.target)
}
