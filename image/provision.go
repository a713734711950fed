// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"context"
	"fmt"

	"github.com/opsforge/vhdpatch/vhd"
)

// StampFooter resizes img to length bytes and writes a freshly built
// fixed-disk footer into its trailing block. Stamping an empty image
// yields a reference image for TransplantFooter; stamping a resized
// data image finalizes it in place.
func StampFooter(ctx context.Context, img Image, length int64) error {
	if length < vhd.FooterSize {
		return &PreconditionError{Reason: fmt.Sprintf("image length %d is shorter than a %d-byte footer", length, vhd.FooterSize)}
	}
	if length%vhd.SectorSize != 0 {
		return &PreconditionError{Reason: fmt.Sprintf("image length %d is not a multiple of the %d-byte sector size", length, vhd.SectorSize)}
	}

	if err := img.Resize(ctx, length); err != nil {
		return &ResizeError{Err: err}
	}

	footer := vhd.New(length - vhd.FooterSize)
	plog.Debugf("Stamping footer %s at %d bytes", footer.UUID(), length)
	if err := img.WriteRange(ctx, length-vhd.FooterSize, footer.Serialize()); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}
