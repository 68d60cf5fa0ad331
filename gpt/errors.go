// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"errors"
	"fmt"
)

// Error classes. Every failure returned by this package wraps exactly one of
// these, so callers can classify with errors.Is.
var (
	// ErrIO covers read/write/seek failures, short transfers and open failures.
	ErrIO = errors.New("i/o error")

	// ErrFormat covers signature, revision, size, CRC and range violations in
	// the on-disk data.
	ErrFormat = errors.New("invalid GPT")

	// ErrPolicy covers mutations rejected by the table rules: read-only
	// slots, out-of-range indexes, misaligned sizes, LBA targets outside the
	// allowed window.
	ErrPolicy = errors.New("operation not permitted")

	// ErrPrecondition covers file size mismatches on load. A missing name is
	// not an error here: FindPartition reports it through its bool result.
	ErrPrecondition = errors.New("precondition failed")
)

func ioErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIO, fmt.Sprintf(format, args...))
}

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func policyErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPolicy, fmt.Sprintf(format, args...))
}

func preconditionErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}
