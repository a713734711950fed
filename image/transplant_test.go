// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge/vhdpatch/vhd"
)

// memImage is an in-memory Image with fault injection for exercising
// the transplant failure paths.
type memImage struct {
	data    []byte
	deleted bool

	failNextWrite error
}

func (m *memImage) Length(ctx context.Context) (int64, error) {
	if m.deleted {
		return 0, errors.New("image deleted")
	}
	return int64(len(m.data)), nil
}

func (m *memImage) ReadRange(ctx context.Context, offset, count int64) ([]byte, error) {
	if m.deleted {
		return nil, errors.New("image deleted")
	}
	if offset < 0 || offset+count > int64(len(m.data)) {
		return nil, fmt.Errorf("range %d+%d outside image of %d bytes", offset, count, len(m.data))
	}
	out := make([]byte, count)
	copy(out, m.data[offset:offset+count])
	return out, nil
}

func (m *memImage) WriteRange(ctx context.Context, offset int64, data []byte) error {
	if err := m.failNextWrite; err != nil {
		m.failNextWrite = nil
		return err
	}
	if m.deleted {
		return errors.New("image deleted")
	}
	if offset < 0 || offset+int64(len(data)) > int64(len(m.data)) {
		return fmt.Errorf("range %d+%d outside image of %d bytes", offset, len(data), len(m.data))
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *memImage) Resize(ctx context.Context, length int64) error {
	if m.deleted {
		return errors.New("image deleted")
	}
	if length <= int64(len(m.data)) {
		m.data = m.data[:length]
		return nil
	}
	m.data = append(m.data, make([]byte, length-int64(len(m.data)))...)
	return nil
}

func (m *memImage) Delete(ctx context.Context) error {
	if m.deleted {
		return errors.New("image deleted")
	}
	m.deleted = true
	return nil
}

// newReference returns an in-memory reference image of the given total
// length with a valid trailing footer.
func newReference(t *testing.T, length int64) *memImage {
	t.Helper()
	ref := &memImage{}
	require.NoError(t, StampFooter(context.Background(), ref, length))
	return ref
}

func randomData(n int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(n)).Read(b)
	return b
}

func TestTransplantPostconditions(t *testing.T) {
	ctx := context.Background()
	const refLen = 8 * 1024

	for _, targetLen := range []int64{0, 512, refLen - 512, refLen, refLen + 4096} {
		t.Run(fmt.Sprintf("target-%d", targetLen), func(t *testing.T) {
			ref := newReference(t, refLen)
			target := &memImage{data: randomData(targetLen)}
			keep := int64(len(target.data))
			if keep > refLen-vhd.FooterSize {
				keep = refLen - vhd.FooterSize
			}
			head := append([]byte(nil), target.data[:keep]...)

			require.NoError(t, TransplantFooter(ctx, target, ref))

			assert.Equal(t, int64(refLen), int64(len(target.data)))
			assert.Equal(t, ref.data[refLen-vhd.FooterSize:], target.data[refLen-vhd.FooterSize:])
			// Data below the footer survives the operation.
			assert.True(t, bytes.Equal(head, target.data[:keep]))
		})
	}
}

func TestTransplantIdempotent(t *testing.T) {
	ctx := context.Background()
	ref := newReference(t, 4096)
	target := &memImage{data: randomData(3000)}

	require.NoError(t, TransplantFooter(ctx, target, ref))
	once := append([]byte(nil), target.data...)

	require.NoError(t, TransplantFooter(ctx, target, ref))
	assert.Equal(t, once, target.data)
}

func TestTransplantMinimumReference(t *testing.T) {
	ctx := context.Background()
	ref := newReference(t, vhd.FooterSize)
	target := &memImage{}

	require.NoError(t, TransplantFooter(ctx, target, ref))
	assert.Equal(t, ref.data, target.data)
}

func TestTransplantShortReference(t *testing.T) {
	ref := &memImage{data: randomData(vhd.FooterSize - 1)}
	target := &memImage{}

	err := TransplantFooter(context.Background(), target, ref)
	var perr *PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, target.data, "target must be untouched")
}

func TestTransplantInvalidReferenceFooter(t *testing.T) {
	ref := &memImage{data: randomData(2048)}
	target := &memImage{data: randomData(1024)}

	err := TransplantFooter(context.Background(), target, ref)
	var perr *PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(1024), int64(len(target.data)), "target must be untouched")
}

func TestTransplantWriteFailureThenRetry(t *testing.T) {
	ctx := context.Background()
	const refLen = 4096

	ref := newReference(t, refLen)
	target := &memImage{data: randomData(2048), failNextWrite: errors.New("boom")}

	err := TransplantFooter(ctx, target, ref)
	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	// The resize already happened; the footer bytes are stale.
	assert.Equal(t, int64(refLen), int64(len(target.data)))
	assert.NotEqual(t, ref.data[refLen-vhd.FooterSize:], target.data[refLen-vhd.FooterSize:])

	// A full re-run converges while the reference still exists.
	require.NoError(t, TransplantFooter(ctx, target, ref))
	assert.Equal(t, ref.data[refLen-vhd.FooterSize:], target.data[refLen-vhd.FooterSize:])
}

func TestTransplantDeletedReference(t *testing.T) {
	ctx := context.Background()
	ref := newReference(t, 4096)
	require.NoError(t, ref.Delete(ctx))

	target := &memImage{data: randomData(1234)}
	before := append([]byte(nil), target.data...)

	err := TransplantFooter(ctx, target, ref)
	var rerr *ReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, before, target.data)
}

func TestTransplantAndDiscard(t *testing.T) {
	ctx := context.Background()

	ref := newReference(t, 4096)
	target := &memImage{data: randomData(1000)}
	require.NoError(t, TransplantAndDiscard(ctx, target, ref))
	assert.True(t, ref.deleted)

	// On failure the reference survives for a retry.
	ref = newReference(t, 4096)
	target = &memImage{data: randomData(1000), failNextWrite: errors.New("boom")}
	require.Error(t, TransplantAndDiscard(ctx, target, ref))
	assert.False(t, ref.deleted)
}

func TestStampFooterRejectsBadLengths(t *testing.T) {
	ctx := context.Background()
	var perr *PreconditionError

	require.ErrorAs(t, StampFooter(ctx, &memImage{}, vhd.FooterSize-1), &perr)
	require.ErrorAs(t, StampFooter(ctx, &memImage{}, vhd.FooterSize+100), &perr)
}
