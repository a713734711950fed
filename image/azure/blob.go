// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package azure backs the image contract with Azure page blobs, the
// storage Azure requires for VHD disk blobs. All I/O goes through the
// blob data plane; callers supply pre-authorized (SAS) URLs or an
// authenticated service client, so no credential handling lives here.
package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/pageblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"
	"github.com/coreos/pkg/capnslog"

	"github.com/opsforge/vhdpatch/image"
)

var plog = capnslog.NewPackageLogger("github.com/opsforge/vhdpatch", "image/azure")

// PageSize is the page-blob write granularity. Ranged writes and blob
// lengths must be multiples of it.
const PageSize = pageblob.PageBytes

// maxUploadPagesBytes is the service limit on a single Upload Pages
// request, 4 MiB.
const maxUploadPagesBytes = 4 * 1024 * 1024

// Image is a page blob exposed through the image contract.
type Image struct {
	pageClient *pageblob.Client
	blobClient *blob.Client
}

var _ image.Image = (*Image)(nil)

// NewImage addresses a page blob through an existing blob service
// client.
func NewImage(client *service.Client, containerName, blobName string) *Image {
	pageClient := client.NewContainerClient(containerName).NewPageBlobClient(blobName)
	return &Image{
		pageClient: pageClient,
		blobClient: pageClient.BlobClient(),
	}
}

// NewImageFromURL addresses a page blob by URL. The URL must carry its
// own authorization, typically a SAS token.
func NewImageFromURL(blobURL string) (*Image, error) {
	pageClient, err := pageblob.NewClientWithNoCredential(blobURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating page blob client: %w", err)
	}
	return &Image{
		pageClient: pageClient,
		blobClient: pageClient.BlobClient(),
	}, nil
}

// URL returns the blob URL, including any SAS token it was built with.
func (i *Image) URL() string {
	return i.blobClient.URL()
}

// Exists reports whether the blob is present.
func (i *Image) Exists(ctx context.Context) (bool, error) {
	if _, err := i.blobClient.GetProperties(ctx, nil); err != nil {
		if !bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ResourceNotFound) {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Create allocates the page blob at the given length, zero-filled.
func (i *Image) Create(ctx context.Context, length int64) error {
	if length%PageSize != 0 {
		return fmt.Errorf("blob length %d is not a multiple of the %d-byte page size", length, PageSize)
	}
	_, err := i.pageClient.Create(ctx, length, nil)
	return err
}

// Provision creates the blob at the given total length and stamps a
// valid trailing footer, yielding a zero-filled reference image.
func (i *Image) Provision(ctx context.Context, length int64) error {
	if err := i.Create(ctx, length); err != nil {
		return fmt.Errorf("creating blob: %w", err)
	}
	return image.StampFooter(ctx, i, length)
}

func (i *Image) Length(ctx context.Context) (int64, error) {
	props, err := i.blobClient.GetProperties(ctx, nil)
	if err != nil {
		return 0, err
	}
	if props.ContentLength == nil {
		return 0, fmt.Errorf("blob properties carry no content length")
	}
	return *props.ContentLength, nil
}

func (i *Image) ReadRange(ctx context.Context, offset, count int64) ([]byte, error) {
	opts := blob.DownloadStreamOptions{
		Range: blob.HTTPRange{Offset: offset, Count: count},
	}
	resp, err := i.blobClient.DownloadStream(ctx, &opts)
	if err != nil {
		return nil, err
	}
	body := resp.NewRetryReader(ctx, nil)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != count {
		return nil, fmt.Errorf("short read: got %d bytes at %d, want %d", len(data), offset, count)
	}
	return data, nil
}

func (i *Image) WriteRange(ctx context.Context, offset int64, data []byte) error {
	count := int64(len(data))
	if offset%PageSize != 0 || count%PageSize != 0 {
		return fmt.Errorf("write range %d+%d is not aligned to the %d-byte page size", offset, count, PageSize)
	}
	if count > maxUploadPagesBytes {
		return fmt.Errorf("write of %d bytes exceeds the %d-byte page upload limit", count, maxUploadPagesBytes)
	}
	body := streaming.NopCloser(bytes.NewReader(data))
	_, err := i.pageClient.UploadPages(ctx, body, blob.HTTPRange{Offset: offset, Count: count}, nil)
	return err
}

func (i *Image) Resize(ctx context.Context, length int64) error {
	if length%PageSize != 0 {
		return fmt.Errorf("blob length %d is not a multiple of the %d-byte page size", length, PageSize)
	}
	plog.Debugf("Resizing page blob to %d bytes", length)
	_, err := i.pageClient.Resize(ctx, length, nil)
	return err
}

func (i *Image) Delete(ctx context.Context) error {
	opts := blob.DeleteOptions{
		DeleteSnapshots: to.Ptr(blob.DeleteSnapshotsOptionTypeInclude),
	}
	if _, err := i.blobClient.Delete(ctx, &opts); err != nil {
		return err
	}
	return nil
}
