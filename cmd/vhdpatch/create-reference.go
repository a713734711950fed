// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/opsforge/vhdpatch/image"
	"github.com/opsforge/vhdpatch/image/azure"
	"github.com/opsforge/vhdpatch/vhd"
)

var (
	cmdCreateReference = &cobra.Command{
		Use:   "create-reference",
		Short: "Create an empty image with a valid footer at an exact length",
		Long: `Provision a zero-filled image of the exact requested length whose
trailing 512 bytes are a valid fixed-VHD footer. Such an image serves
as the reference for a later transplant. The length includes the
footer, so a 64 GiB disk needs --size-bytes 68719477248.`,
		Run: runCreateReference,
	}

	// create-reference options
	cro struct {
		url       string
		file      string
		sizeBytes int64
		overwrite bool
	}
)

func init() {
	fs := cmdCreateReference.Flags()

	fs.StringVar(&cro.url, "url", "", "SAS URL of the page blob to create")
	fs.StringVar(&cro.file, "file", "", "local file to create instead of a blob")
	fs.Int64Var(&cro.sizeBytes, "size-bytes", 0, "total image length in bytes, footer included")
	fs.BoolVar(&cro.overwrite, "overwrite", false, "overwrite an existing blob")

	root.AddCommand(cmdCreateReference)
}

func runCreateReference(cmd *cobra.Command, args []string) {
	if (cro.url == "") == (cro.file == "") {
		plog.Fatalf("exactly one of --url and --file is required")
	}
	if cro.sizeBytes < vhd.FooterSize {
		plog.Fatalf("--size-bytes must be at least %d", vhd.FooterSize)
	}

	ctx := context.Background()

	if cro.file != "" {
		img, err := image.CreateFile(cro.file, 0)
		if err != nil {
			plog.Fatalf("creating %q: %v", cro.file, err)
		}
		defer img.Close()
		if err := image.StampFooter(ctx, img, cro.sizeBytes); err != nil {
			plog.Fatalf("stamping footer: %v", err)
		}
		plog.Printf("Reference image of %d bytes ready at %s", cro.sizeBytes, cro.file)
		return
	}

	img, err := azure.NewImageFromURL(cro.url)
	if err != nil {
		plog.Fatalf("reference: %v", err)
	}
	if !cro.overwrite {
		exists, err := img.Exists(ctx)
		if err != nil {
			plog.Fatalf("checking blob: %v", err)
		}
		if exists {
			plog.Fatalf("blob already exists, pass --overwrite to replace it")
		}
	}
	if err := img.Provision(ctx, cro.sizeBytes); err != nil {
		plog.Fatalf("provisioning blob: %v", err)
	}
	plog.Printf("Reference blob of %d bytes ready", cro.sizeBytes)
}
