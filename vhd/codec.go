// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package vhd

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Serialize returns the footer as a 512-byte block with the checksum
// field recomputed.
func (f *Footer) Serialize() []byte {
	clone := *f
	clone.Checksum = 0

	buf := bytes.NewBuffer(make([]byte, 0, FooterSize))
	// Cannot fail: the struct is fixed size and the writer is in memory.
	_ = binary.Write(buf, binary.BigEndian, &clone)

	b := buf.Bytes()
	binary.BigEndian.PutUint32(b[checksumOffset:], checksum(b))
	return b
}

// Parse decodes and validates a 512-byte footer block. It rejects
// blocks of the wrong length, with a bad cookie, or whose stored
// checksum does not match the block contents.
func Parse(b []byte) (*Footer, error) {
	if len(b) != FooterSize {
		return nil, fmt.Errorf("footer block must be %d bytes, got %d", FooterSize, len(b))
	}

	f := &Footer{}
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, f); err != nil {
		return nil, fmt.Errorf("decoding footer: %w", err)
	}

	if string(f.Cookie[:]) != cookieMagic {
		return nil, fmt.Errorf("bad footer cookie %q", f.Cookie)
	}
	if want := checksum(b); f.Checksum != want {
		return nil, fmt.Errorf("footer checksum mismatch: stored %#08x, computed %#08x", f.Checksum, want)
	}

	return f, nil
}

// Validate cross-checks the footer against the total image length in
// bytes. For fixed disks the image is exactly the virtual size plus the
// trailing footer.
func (f *Footer) Validate(imageLength int64) error {
	if f.DiskType != DiskTypeFixed {
		return fmt.Errorf("disk type is %s, want %s", f.DiskType, DiskTypeFixed)
	}
	if want := uint64(imageLength - FooterSize); f.CurrentSize != want {
		return fmt.Errorf("footer records %d bytes, image length %d implies %d", f.CurrentSize, imageLength, want)
	}
	return nil
}

// checksum is the one's complement of the byte sum of the footer with
// the checksum field itself zeroed.
func checksum(b []byte) uint32 {
	var sum uint32
	for i, c := range b {
		if i >= checksumOffset && i < checksumOffset+4 {
			continue
		}
		sum += uint32(c)
	}
	return ^sum
}
