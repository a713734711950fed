// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/coreos/pkg/capnslog"
	"github.com/spf13/cobra"

	"github.com/opsforge/vhdpatch/cli"
)

var (
	plog = capnslog.NewPackageLogger("github.com/opsforge/vhdpatch", "cmd/vhdpatch")

	root = &cobra.Command{
		Use:   "vhdpatch [command]",
		Short: "fixed-VHD footer patching utilities",
	}
)

func main() {
	cli.Execute(root)
}
