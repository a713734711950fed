// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package vhd implements the trailing footer of the fixed Virtual Hard
// Disk container format. A conformant fixed VHD is the raw disk content
// followed by a single 512-byte footer describing the disk's geometry
// and identity.
package vhd

import (
	"time"

	"github.com/pborman/uuid"
)

const (
	// FooterSize is the length of the trailing footer block.
	FooterSize = 512

	// SectorSize is the sector granularity of the container format.
	// Image lengths and footer offsets are sector aligned.
	SectorSize = 512

	cookieMagic    = "conectix"
	checksumOffset = 64

	featureReserved  = 0x00000002
	formatVersion    = 0x00010000
	fixedDataOffset  = 0xFFFFFFFFFFFFFFFF
	creatorVersion   = 0x00010000
	creatorApp       = "vpch"
	creatorHostWin2k = "Wi2k"
)

// vhdEpoch is the zero point of VHD timestamps.
var vhdEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// DiskType identifies the VHD container variant.
type DiskType uint32

const (
	DiskTypeNone         DiskType = 0
	DiskTypeFixed        DiskType = 2
	DiskTypeDynamic      DiskType = 3
	DiskTypeDifferencing DiskType = 4
)

func (t DiskType) String() string {
	switch t {
	case DiskTypeNone:
		return "none"
	case DiskTypeFixed:
		return "fixed"
	case DiskTypeDynamic:
		return "dynamic"
	case DiskTypeDifferencing:
		return "differencing"
	}
	return "unknown"
}

// Footer is the 512-byte trailing structure of a VHD image. The field
// layout matches the on-disk format exactly; all multi-byte fields are
// big endian.
type Footer struct {
	Cookie             [8]byte
	Features           uint32
	FileFormatVersion  uint32
	DataOffset         uint64
	TimeStamp          uint32
	CreatorApplication [4]byte
	CreatorVersion     uint32
	CreatorHostOS      [4]byte
	OriginalSize       uint64
	CurrentSize        uint64
	Cylinders          uint16
	Heads              uint8
	SectorsPerTrack    uint8
	DiskType           DiskType
	Checksum           uint32
	UniqueID           [16]byte
	SavedState         uint8
	Reserved           [427]byte
}

// New builds a footer for a fixed disk of the given virtual size in
// bytes. The virtual size excludes the footer itself: an image holding
// this footer is virtualSize+FooterSize bytes long.
func New(virtualSize int64) *Footer {
	f := &Footer{
		Features:          featureReserved,
		FileFormatVersion: formatVersion,
		DataOffset:        fixedDataOffset,
		TimeStamp:         uint32(time.Since(vhdEpoch) / time.Second),
		CreatorVersion:    creatorVersion,
		OriginalSize:      uint64(virtualSize),
		CurrentSize:       uint64(virtualSize),
		DiskType:          DiskTypeFixed,
	}
	copy(f.Cookie[:], cookieMagic)
	copy(f.CreatorApplication[:], creatorApp)
	copy(f.CreatorHostOS[:], creatorHostWin2k)
	f.Cylinders, f.Heads, f.SectorsPerTrack = CalculateGeometry(virtualSize)
	copy(f.UniqueID[:], uuid.NewRandom())
	return f
}

// UUID returns the footer's unique identifier.
func (f *Footer) UUID() uuid.UUID {
	return uuid.UUID(f.UniqueID[:])
}

// CreatedAt returns the footer timestamp as wall-clock time.
func (f *Footer) CreatedAt() time.Time {
	return vhdEpoch.Add(time.Duration(f.TimeStamp) * time.Second)
}

// CalculateGeometry derives the CHS disk geometry for a virtual size,
// following the algorithm in the VHD specification. Sizes beyond the
// addressable CHS maximum are clamped, as all implementations do.
func CalculateGeometry(virtualSize int64) (cylinders uint16, heads, sectorsPerTrack uint8) {
	var spt, hds, cylinderTimesHeads int64

	totalSectors := virtualSize / SectorSize
	if totalSectors > 65535*16*255 {
		totalSectors = 65535 * 16 * 255
	}

	if totalSectors >= 65535*16*63 {
		spt = 255
		hds = 16
		cylinderTimesHeads = totalSectors / spt
	} else {
		spt = 17
		cylinderTimesHeads = totalSectors / spt
		hds = (cylinderTimesHeads + 1023) / 1024
		if hds < 4 {
			hds = 4
		}
		if cylinderTimesHeads >= hds*1024 || hds > 16 {
			spt = 31
			hds = 16
			cylinderTimesHeads = totalSectors / spt
		}
		if cylinderTimesHeads >= hds*1024 {
			spt = 63
			hds = 16
			cylinderTimesHeads = totalSectors / spt
		}
	}

	return uint16(cylinderTimesHeads / hds), uint8(hds), uint8(spt)
}
