// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"io"
	"os"
)

// transferBufferSize is the streaming buffer for partition payload copies.
const transferBufferSize = 64 * 1024

// SavePartition streams the payload of partition idx from the device into a
// newly created file at path.
func (t *Table) SavePartition(idx int, path string) error {
	if err := t.checkIndex(idx); err != nil {
		return err
	}

	p := t.entries[idx]
	size := int64(p.Blocks()) * int64(t.sectorSize)

	f, err := os.Create(path)
	if err != nil {
		return ioErrorf("failed to create %q: %s", path, err)
	}

	defer f.Close() //nolint:errcheck

	src := io.NewSectionReader(t.dev, int64(p.FirstLBA)*int64(t.sectorSize), size)

	n, err := io.CopyBuffer(f, src, make([]byte, transferBufferSize))
	if err != nil {
		return ioErrorf("failed to save partition %d: %s", idx, err)
	}

	if n != size {
		return ioErrorf("short copy saving partition %d: %d of %d bytes", idx, n, size)
	}

	if err := f.Close(); err != nil {
		return ioErrorf("failed to close %q: %s", path, err)
	}

	return nil
}

// LoadPartition streams the file at path into the payload of partition idx.
//
// The file size must match the partition size exactly.
func (t *Table) LoadPartition(idx int, path string) error {
	if err := t.checkIndex(idx); err != nil {
		return err
	}

	p := t.entries[idx]
	size := int64(p.Blocks()) * int64(t.sectorSize)

	f, err := os.Open(path)
	if err != nil {
		return ioErrorf("failed to open %q: %s", path, err)
	}

	defer f.Close() //nolint:errcheck

	st, err := f.Stat()
	if err != nil {
		return ioErrorf("failed to stat %q: %s", path, err)
	}

	if st.Size() != size {
		return preconditionErrorf("file %q is %d bytes, partition %d is %d bytes", path, st.Size(), idx, size)
	}

	dst := io.NewOffsetWriter(t.dev, int64(p.FirstLBA)*int64(t.sectorSize))

	n, err := io.CopyBuffer(dst, f, make([]byte, transferBufferSize))
	if err != nil {
		return ioErrorf("failed to load partition %d: %s", idx, err)
	}

	if n != size {
		return ioErrorf("short copy loading partition %d: %d of %d bytes", idx, n, size)
	}

	return nil
}
