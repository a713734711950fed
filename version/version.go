// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package version

// Version is the release string, overridden at build time via
// -ldflags "-X github.com/opsforge/vhdpatch/version.Version=...".
var Version = "unknown"
