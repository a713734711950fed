// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"context"
	"fmt"

	"github.com/opsforge/vhdpatch/vhd"
)

// TransplantFooter grafts the trailing footer block of reference onto
// target. The reference must already be the exact desired final length;
// the target's data is assumed to have been copied or truncated to
// approximately that length upstream. On success the target is
// reference's length and its trailing 512 bytes equal the reference's.
//
// The operation does not retry and does not roll back: on failure the
// target may be resized but unfootered and must be treated as invalid.
// Re-running from the top is safe as long as the reference still
// exists, and the reference is never deleted here.
func TransplantFooter(ctx context.Context, target, reference Image) error {
	refLen, err := reference.Length(ctx)
	if err != nil {
		return &ReadError{Err: err}
	}
	if refLen < vhd.FooterSize {
		return &PreconditionError{Reason: fmt.Sprintf("reference image is %d bytes, shorter than a %d-byte footer", refLen, vhd.FooterSize)}
	}

	block, err := reference.ReadRange(ctx, refLen-vhd.FooterSize, vhd.FooterSize)
	if err != nil {
		return &ReadError{Err: err}
	}
	footer, err := vhd.Parse(block)
	if err != nil {
		return &PreconditionError{Reason: fmt.Sprintf("reference footer: %v", err)}
	}
	if err := footer.Validate(refLen); err != nil {
		return &PreconditionError{Reason: fmt.Sprintf("reference footer: %v", err)}
	}

	plog.Debugf("Transplanting footer %s at %d bytes", footer.UUID(), refLen)

	if err := target.Resize(ctx, refLen); err != nil {
		return &ResizeError{Err: err}
	}
	if err := target.WriteRange(ctx, refLen-vhd.FooterSize, block); err != nil {
		return &WriteError{Err: err}
	}

	return nil
}

// TransplantAndDiscard runs TransplantFooter and deletes the reference
// image afterwards. The reference is kept on any failure so the caller
// can retry the transplant without provisioning a new one.
func TransplantAndDiscard(ctx context.Context, target, reference Image) error {
	if err := TransplantFooter(ctx, target, reference); err != nil {
		return err
	}
	if err := reference.Delete(ctx); err != nil {
		return fmt.Errorf("discarding reference image: %w", err)
	}
	return nil
}
