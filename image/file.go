// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"context"
	"fmt"
	"os"
)

// FileImage is an Image backed by a local file. Ranged reads and writes
// map directly onto ReadAt/WriteAt and resizing onto Truncate, which
// keeps large grown images sparse on filesystems that support it.
type FileImage struct {
	path string
	f    *os.File
}

var _ Image = (*FileImage)(nil)

// OpenFile opens an existing file as a disk image.
func OpenFile(path string) (*FileImage, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &FileImage{path: path, f: f}, nil
}

// CreateFile creates a new file image of the given length, truncating
// any existing file at path.
func CreateFile(path string, length int64) (*FileImage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(length); err != nil {
		f.Close()
		return nil, err
	}
	return &FileImage{path: path, f: f}, nil
}

func (i *FileImage) Length(ctx context.Context) (int64, error) {
	fi, err := i.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (i *FileImage) ReadRange(ctx context.Context, offset, count int64) ([]byte, error) {
	buf := make([]byte, count)
	if _, err := i.f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("reading %d bytes at %d from %q: %w", count, offset, i.path, err)
	}
	return buf, nil
}

func (i *FileImage) WriteRange(ctx context.Context, offset int64, data []byte) error {
	if _, err := i.f.WriteAt(data, offset); err != nil {
		return fmt.Errorf("writing %d bytes at %d to %q: %w", len(data), offset, i.path, err)
	}
	return nil
}

func (i *FileImage) Resize(ctx context.Context, length int64) error {
	return i.f.Truncate(length)
}

func (i *FileImage) Delete(ctx context.Context) error {
	if err := i.f.Close(); err != nil {
		return err
	}
	return os.Remove(i.path)
}

// Close releases the file handle without removing the file.
func (i *FileImage) Close() error {
	return i.f.Close()
}

// Path returns the backing file path.
func (i *FileImage) Path() string {
	return i.path
}
