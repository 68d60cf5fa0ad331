// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package block provides logical-block-addressed access to block devices and
// disk image files.
package block

import (
	"fmt"
	"os"

	"github.com/tdm/gpted/internal/ioutil"
)

const (
	// DefaultBlockSize is the default logical block size in bytes.
	DefaultBlockSize = 512

	// MinBlockSize is the smallest supported logical block size.
	MinBlockSize = 512

	// MaxBlockSize is the largest supported logical block size.
	MaxBlockSize = 4096
)

// Device wraps an opened block device or disk image file.
//
// All block-addressed operations use offsets that are multiples of the
// logical block size.
type Device struct {
	f *os.File

	sectorSize uint32
	blockCount uint64
}

// Options configure Open.
type Options struct {
	// SectorSize overrides the discovered logical block size.
	SectorSize uint32
}

// Option is a function that sets some option.
type Option func(*Options)

// WithSectorSize overrides the logical block size.
func WithSectorSize(size uint32) Option {
	return func(o *Options) {
		o.SectorSize = size
	}
}

// Open opens the device or image at path for reading and writing.
func Open(path string, opts ...Option) (*Device, error) {
	var options Options

	for _, opt := range opts {
		opt(&options)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	sectorSize, sizeBytes, err := discoverGeometry(f)
	if err != nil {
		f.Close() //nolint:errcheck

		return nil, err
	}

	if options.SectorSize != 0 {
		sectorSize = options.SectorSize
	}

	if sectorSize < MinBlockSize || sectorSize > MaxBlockSize {
		f.Close() //nolint:errcheck

		return nil, fmt.Errorf("unsupported logical block size %d", sectorSize)
	}

	d := &Device{
		f:          f,
		sectorSize: sectorSize,
		blockCount: sizeBytes / uint64(sectorSize),
	}

	// an editor holds the device exclusively for its whole lifetime
	if err := d.TryLock(true); err != nil {
		f.Close() //nolint:errcheck

		return nil, fmt.Errorf("failed to lock %q: %w", path, err)
	}

	return d, nil
}

// SectorSize returns the logical block size in bytes.
func (d *Device) SectorSize() uint32 {
	return d.sectorSize
}

// BlockCount returns the total number of logical blocks.
//
// It returns 0 for regular files.
func (d *Device) BlockCount() uint64 {
	return d.blockCount
}

// ReadBlock reads the logical block at the given LBA.
func (d *Device) ReadBlock(lba uint64) ([]byte, error) {
	buf := make([]byte, d.sectorSize)

	if err := ioutil.ReadFullAt(d.f, buf, int64(lba)*int64(d.sectorSize)); err != nil {
		return nil, fmt.Errorf("failed to read block %d: %w", lba, err)
	}

	return buf, nil
}

// WriteBlock writes one logical block at the given LBA.
func (d *Device) WriteBlock(lba uint64, buf []byte) error {
	if uint32(len(buf)) != d.sectorSize {
		return fmt.Errorf("block buffer is %d bytes, expected %d", len(buf), d.sectorSize)
	}

	if err := ioutil.WriteFullAt(d.f, buf, int64(lba)*int64(d.sectorSize)); err != nil {
		return fmt.Errorf("failed to write block %d: %w", lba, err)
	}

	return nil
}

// ReadAt implements io.ReaderAt.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

// WriteAt implements io.WriterAt.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	return d.f.WriteAt(p, off)
}

// Sync flushes written data to stable storage.
func (d *Device) Sync() error {
	return d.f.Sync()
}

// Close releases the advisory lock and the device handle.
func (d *Device) Close() error {
	d.Unlock() //nolint:errcheck // the lock dies with the descriptor anyway

	return d.f.Close()
}
