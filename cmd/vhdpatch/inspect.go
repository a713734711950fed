// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/opsforge/vhdpatch/image"
	"github.com/opsforge/vhdpatch/image/azure"
	"github.com/opsforge/vhdpatch/vhd"
)

var (
	cmdInspect = &cobra.Command{
		Use:   "inspect",
		Short: "Print the parsed footer of an image",
		Run:   runInspect,
	}

	// inspect options
	iso struct {
		url  string
		file string
	}
)

// addSourceFlags registers the flags selecting a local file or a blob
// as the image to operate on.
func addSourceFlags(fs *pflag.FlagSet, url, file *string) {
	fs.StringVar(url, "url", "", "SAS URL of the page blob")
	fs.StringVar(file, "file", "", "local image file")
}

// openImage opens whichever image source the flags selected. The
// returned closer is nil for remote images.
func openImage(url, file string) (image.Image, func() error, error) {
	switch {
	case (url == "") == (file == ""):
		return nil, nil, fmt.Errorf("exactly one of --url and --file is required")
	case file != "":
		img, err := image.OpenFile(file)
		if err != nil {
			return nil, nil, err
		}
		return img, img.Close, nil
	default:
		img, err := azure.NewImageFromURL(url)
		if err != nil {
			return nil, nil, err
		}
		return img, nil, nil
	}
}

func init() {
	addSourceFlags(cmdInspect.Flags(), &iso.url, &iso.file)
	root.AddCommand(cmdInspect)
}

func runInspect(cmd *cobra.Command, args []string) {
	img, closer, err := openImage(iso.url, iso.file)
	if err != nil {
		plog.Fatalf("%v", err)
	}
	if closer != nil {
		defer closer()
	}

	ctx := context.Background()
	length, err := img.Length(ctx)
	if err != nil {
		plog.Fatalf("reading image length: %v", err)
	}
	if length < vhd.FooterSize {
		plog.Fatalf("image is %d bytes, too short to hold a footer", length)
	}

	block, err := img.ReadRange(ctx, length-vhd.FooterSize, vhd.FooterSize)
	if err != nil {
		plog.Fatalf("reading footer block: %v", err)
	}
	footer, err := vhd.Parse(block)
	if err != nil {
		plog.Fatalf("image has no valid footer: %v", err)
	}

	err = json.NewEncoder(os.Stdout).Encode(&struct {
		DiskType    string
		ImageLength int64
		VirtualSize uint64
		Geometry    string
		UUID        string
		Creator     string
		Created     time.Time
		Valid       bool
	}{
		DiskType:    footer.DiskType.String(),
		ImageLength: length,
		VirtualSize: footer.CurrentSize,
		Geometry:    fmt.Sprintf("%d/%d/%d", footer.Cylinders, footer.Heads, footer.SectorsPerTrack),
		UUID:        footer.UUID().String(),
		Creator:     strings.TrimRight(string(footer.CreatorApplication[:]), "\x00"),
		Created:     footer.CreatedAt(),
		Valid:       footer.Validate(length) == nil,
	})
	if err != nil {
		plog.Fatalf("encoding output: %v", err)
	}
}
