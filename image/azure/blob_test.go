// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(t *testing.T) *Image {
	t.Helper()
	img, err := NewImageFromURL("https://example.blob.core.windows.net/vhds/disk.vhd")
	require.NoError(t, err)
	return img
}

func TestURL(t *testing.T) {
	img := testImage(t)
	assert.Equal(t, "https://example.blob.core.windows.net/vhds/disk.vhd", img.URL())
}

// The alignment checks reject bad ranges before any request is made,
// so they are testable without a storage account.

func TestWriteRangeRejectsUnalignedRanges(t *testing.T) {
	ctx := context.Background()
	img := testImage(t)

	assert.Error(t, img.WriteRange(ctx, 100, make([]byte, PageSize)))
	assert.Error(t, img.WriteRange(ctx, 0, make([]byte, PageSize-1)))
	assert.Error(t, img.WriteRange(ctx, PageSize, make([]byte, 2*PageSize+7)))
}

func TestWriteRangeRejectsOversizedWrites(t *testing.T) {
	img := testImage(t)
	err := img.WriteRange(context.Background(), 0, make([]byte, maxUploadPagesBytes+PageSize))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page upload limit")
}

func TestResizeRejectsUnalignedLength(t *testing.T) {
	img := testImage(t)
	assert.Error(t, img.Resize(context.Background(), PageSize+1))
}

func TestCreateRejectsUnalignedLength(t *testing.T) {
	img := testImage(t)
	assert.Error(t, img.Create(context.Background(), PageSize*3+5))
}
