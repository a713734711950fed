// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsforge/vhdpatch/image/azure"
)

var (
	cmdWaitCopy = &cobra.Command{
		Use:   "wait-copy",
		Short: "Wait for a blob copy to reach a terminal state",
		Long: `Poll a page blob's copy status at a fixed interval until the copy
succeeds, fails, or the timeout expires. With --source-url the copy is
started first.`,
		Run: runWaitCopy,
	}

	// wait-copy options
	wco struct {
		url       string
		sourceURL string
		interval  time.Duration
		timeout   time.Duration
	}
)

func init() {
	fs := cmdWaitCopy.Flags()

	fs.StringVar(&wco.url, "url", "", "SAS URL of the destination page blob")
	fs.StringVar(&wco.sourceURL, "source-url", "", "start a copy from this URL before waiting")
	fs.DurationVar(&wco.interval, "interval", azure.DefaultCopyPollInterval, "poll interval")
	fs.DurationVar(&wco.timeout, "timeout", 2*time.Hour, "give up after this long")

	root.AddCommand(cmdWaitCopy)
}

func runWaitCopy(cmd *cobra.Command, args []string) {
	if wco.url == "" {
		plog.Fatalf("--url is required")
	}

	img, err := azure.NewImageFromURL(wco.url)
	if err != nil {
		plog.Fatalf("blob: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), wco.timeout)
	defer cancel()

	if wco.sourceURL != "" {
		if _, err := img.StartCopy(ctx, wco.sourceURL); err != nil {
			plog.Fatalf("starting copy: %v", err)
		}
	}

	status, err := img.WaitForCopy(ctx, wco.interval)
	if err != nil {
		plog.Fatalf("Copy did not complete: %v", err)
	}
	plog.Printf("Copy finished with status %s", status)
}
