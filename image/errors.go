// Copyright The Vhdpatch Authors
// SPDX-License-Identifier: Apache-2.0

package image

// The transplant surfaces every failure to the caller classified by the
// step that failed; nothing is retried or rolled back at this level.
// Callers match the types with errors.As and wrap their own retry
// policy around the whole operation.

// PreconditionError reports that an input image cannot take part in a
// transplant at all: the reference is shorter than a footer, or its
// trailing block does not hold a valid footer.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// ReadError reports a failure reading from the reference image.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "reading reference image: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error { return e.Err }

// ResizeError reports a failure resizing the target image.
type ResizeError struct {
	Err error
}

func (e *ResizeError) Error() string {
	return "resizing target image: " + e.Err.Error()
}

func (e *ResizeError) Unwrap() error { return e.Err }

// WriteError reports a failure writing the footer to the target image.
// The target has already been resized when this is returned and must be
// treated as invalid until a retry succeeds.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return "writing target footer: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }
