// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package image defines the disk image contract the footer transplant
// operates on, and implements the transplant itself. An image is a
// remote or local byte sequence addressed through ranged reads and
// writes; the package never holds a full image in memory.
package image

import (
	"context"

	"github.com/coreos/pkg/capnslog"
)

var plog = capnslog.NewPackageLogger("github.com/opsforge/vhdpatch", "image")

// Image is a randomly addressable disk image. Implementations wrap a
// local file or a remote object exposing ranged I/O; exclusive access
// is assumed, callers serialize mutating operations per image.
type Image interface {
	// Length returns the current total length in bytes.
	Length(ctx context.Context) (int64, error)

	// ReadRange returns exactly count bytes starting at offset.
	ReadRange(ctx context.Context, offset, count int64) ([]byte, error)

	// WriteRange writes data at offset as a single ranged write.
	WriteRange(ctx context.Context, offset int64, data []byte) error

	// Resize sets the image length, zero-padding on growth and
	// truncating on shrink.
	Resize(ctx context.Context, length int64) error

	// Delete discards the image and its backing object.
	Delete(ctx context.Context) error
}
