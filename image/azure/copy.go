// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/opsforge/vhdpatch/util"
)

// DefaultCopyPollInterval matches the interval the surrounding shrink
// workflows poll blob copies at.
const DefaultCopyPollInterval = 30 * time.Second

// BlobPropertiesClient is the slice of *blob.Client the copy wait
// needs.
type BlobPropertiesClient interface {
	GetProperties(ctx context.Context, o *blob.GetPropertiesOptions) (blob.GetPropertiesResponse, error)
}

// StartCopy begins a server-side copy from sourceURL into the image's
// blob and returns the copy ID without waiting for completion.
func (i *Image) StartCopy(ctx context.Context, sourceURL string) (string, error) {
	resp, err := i.blobClient.StartCopyFromURL(ctx, sourceURL, nil)
	if err != nil {
		return "", err
	}
	if resp.CopyID == nil {
		return "", fmt.Errorf("copy accepted but no copy ID returned")
	}
	plog.Infof("Started blob copy %s", *resp.CopyID)
	return *resp.CopyID, nil
}

// WaitForCopy polls the image's copy status until it completes. See
// WaitForCopyCompletion.
func (i *Image) WaitForCopy(ctx context.Context, interval time.Duration) (blob.CopyStatusType, error) {
	return WaitForCopyCompletion(ctx, i.blobClient, interval)
}

// WaitForCopyCompletion polls the blob's copy status at a fixed
// interval until the copy succeeds. A terminal aborted or failed status
// is an error carrying the service's status description. The wait is
// bounded by ctx: set a deadline to cap it, cancel to abandon it.
func WaitForCopyCompletion(ctx context.Context, client BlobPropertiesClient, interval time.Duration) (blob.CopyStatusType, error) {
	var status blob.CopyStatusType

	err := util.WaitUntilReady(ctx, interval, func(ctx context.Context) (bool, error) {
		props, err := client.GetProperties(ctx, nil)
		if err != nil {
			return false, err
		}
		if props.CopyStatus == nil {
			return false, fmt.Errorf("blob has no copy in progress")
		}
		status = *props.CopyStatus

		switch status {
		case blob.CopyStatusTypePending:
			plog.Debugf("Blob copy still pending")
			return false, nil
		case blob.CopyStatusTypeSuccess:
			return true, nil
		default:
			desc := ""
			if props.CopyStatusDescription != nil {
				desc = ": " + *props.CopyStatusDescription
			}
			return false, fmt.Errorf("blob copy ended with status %q%s", status, desc)
		}
	})

	return status, err
}
