// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gpt implements an editable in-memory model of a GPT partition
// table backed by a block device or disk image.
//
// Open reads and cross-validates the primary and backup copies, Write
// commits both with fresh checksums, and the mutation operations keep the
// table consistent in between.
package gpt

import (
	"hash/crc32"
	"slices"

	"github.com/siderolabs/go-pointer"
	"go.uber.org/zap"

	"github.com/tdm/gpted/block"
	"github.com/tdm/gpted/internal/gptstructs"
	"github.com/tdm/gpted/internal/ioutil"
)

const (
	// MinPartitionEntries is the smallest acceptable partition array length.
	MinPartitionEntries = 4

	// MaxPartitionEntries is the largest acceptable partition array length.
	MaxPartitionEntries = 256
)

// Table is an in-memory GPT partition table bound to an open device handle.
//
// Non-empty entries are kept packed and ordered by LBA; mutation operations
// preserve that invariant or fail without modifying the table.
type Table struct {
	dev    *block.Device
	logger *zap.Logger

	options Options

	sectorSize uint32
	blockCount uint64

	header Header
	backup *Header

	entries []Partition
}

// Open loads the partition table from the device or image at path.
//
// The primary copy at LBA 1 is validated first; if it is corrupt and the
// backup header at the last LBA is intact, the table is recovered from the
// backup. If both copies are unusable Open fails.
func Open(path string, opts ...Option) (*Table, error) {
	options := applyOptions(opts...)

	var blockOpts []block.Option

	if options.SectorSize != 0 {
		blockOpts = append(blockOpts, block.WithSectorSize(options.SectorSize))
	}

	dev, err := block.Open(path, blockOpts...)
	if err != nil {
		return nil, ioErrorf("failed to open %q: %s", path, err)
	}

	t := &Table{
		dev:    dev,
		logger: options.Logger,

		options: options,

		sectorSize: dev.SectorSize(),
		blockCount: dev.BlockCount(),
	}

	if options.BlockCount != 0 {
		t.blockCount = options.BlockCount
	}

	if err := t.load(); err != nil {
		dev.Close() //nolint:errcheck

		return nil, err
	}

	return t, nil
}

func (t *Table) load() error {
	buf, err := t.dev.ReadBlock(1)
	if err != nil {
		return ioErrorf("failed to read primary header: %s", err)
	}

	raw := gptstructs.Header(buf)

	primaryErr := t.validateHeader(raw)
	if primaryErr == nil {
		primaryErr = t.validateGeometry(raw)
	}

	if primaryErr != nil {
		t.logger.Warn("bad primary GPT header", zap.Error(primaryErr))

		return t.recoverFromBackup(primaryErr)
	}

	hdr, err := decodeHeader(raw)
	if err != nil {
		return err
	}

	t.header = hdr

	rawEntries, err := t.loadEntries(hdr)
	if err != nil {
		return err
	}

	t.loadBackup(rawEntries)

	return nil
}

// recoverFromBackup attempts to rebuild the table from the backup header at
// the last LBA after the primary failed validation.
func (t *Table) recoverFromBackup(primaryErr error) error {
	if t.blockCount < 2 {
		return primaryErr
	}

	buf, err := t.dev.ReadBlock(t.blockCount - 1)
	if err != nil {
		return ioErrorf("failed to read backup header: %s", err)
	}

	raw := gptstructs.Header(buf)

	if err := t.validateHeader(raw); err != nil {
		t.logger.Warn("bad backup GPT header", zap.Error(err))

		return primaryErr
	}

	if raw.CurrentLBA() != t.blockCount-1 || raw.BackupLBA() != 1 || raw.EntriesLBA() >= t.blockCount {
		t.logger.Warn("backup GPT header placement is inconsistent",
			zap.Uint64("current_lba", raw.CurrentLBA()),
			zap.Uint64("backup_lba", raw.BackupLBA()),
			zap.Uint64("ptbl_lba", raw.EntriesLBA()))

		return primaryErr
	}

	backup, err := decodeHeader(raw)
	if err != nil {
		return err
	}

	if _, err := t.loadEntries(backup); err != nil {
		return err
	}

	t.logger.Warn("primary GPT is corrupt, recovered from backup",
		zap.Uint64("backup_lba", backup.CurrentLBA))

	// Synthesize the primary from the backup; the conventional array
	// placement right after the header is restored on the next write.
	hdr := backup
	hdr.CurrentLBA = 1
	hdr.BackupLBA = backup.CurrentLBA
	hdr.EntriesLBA = 2

	t.header = hdr
	t.backup = pointer.To(backup)

	return nil
}

// loadEntries reads and validates the partition array described by hdr,
// populating the in-memory entries. It returns the raw array bytes so the
// backup copy can be compared against them.
func (t *Table) loadEntries(hdr Header) ([]byte, error) {
	stride := int(hdr.SizeOfEntry)
	raw := make([]byte, int(hdr.NumEntries)*stride)

	if err := ioutil.ReadFullAt(t.dev, raw, int64(hdr.EntriesLBA)*int64(t.sectorSize)); err != nil {
		return nil, ioErrorf("failed to read partition array: %s", err)
	}

	if crc := crc32.ChecksumIEEE(raw); crc != hdr.EntriesCRC {
		return nil, formatErrorf("partition array checksum mismatch: stored %#08x, computed %#08x", hdr.EntriesCRC, crc)
	}

	entries := make([]Partition, 0, hdr.NumEntries)

	var (
		prevLast  uint64
		seenEmpty bool
	)

	for n := 0; n < int(hdr.NumEntries); n++ {
		entry := gptstructs.Entry(raw[n*stride : n*stride+gptstructs.EntrySize])

		if entry.IsZero() {
			seenEmpty = true

			continue
		}

		if seenEmpty {
			return nil, formatErrorf("entry %d follows an empty slot", n)
		}

		first, last := entry.FirstLBA(), entry.LastLBA()

		if first < hdr.FirstUsableLBA || last < first || last > hdr.LastUsableLBA {
			return nil, formatErrorf("entry %d LBA range [%d..%d] outside usable range [%d..%d]",
				n, first, last, hdr.FirstUsableLBA, hdr.LastUsableLBA)
		}

		if first <= prevLast && n > 0 {
			return nil, formatErrorf("entry %d LBA range [%d..%d] overlaps the preceding entry", n, first, last)
		}

		p, err := decodePartition(entry)
		if err != nil {
			return nil, err
		}

		entries = append(entries, p)
		prevLast = last
	}

	t.entries = entries

	return raw, nil
}

// loadBackup validates the backup header and compares its partition array
// against the primary one. All failures here are non-fatal.
func (t *Table) loadBackup(primaryEntries []byte) {
	if t.blockCount == 0 || t.header.BackupLBA <= 2 || t.header.BackupLBA >= t.blockCount {
		return
	}

	buf, err := t.dev.ReadBlock(t.header.BackupLBA)
	if err != nil {
		t.logger.Warn("failed to read backup header", zap.Error(err))

		return
	}

	raw := gptstructs.Header(buf)

	if err := t.validateHeader(raw); err != nil {
		t.logger.Warn("bad backup GPT header", zap.Error(err))

		return
	}

	if err := t.validateCross(raw, t.header); err != nil {
		t.logger.Warn("backup GPT header does not match primary", zap.Error(err))

		return
	}

	backup, err := decodeHeader(raw)
	if err != nil {
		t.logger.Warn("bad backup GPT header", zap.Error(err))

		return
	}

	backupEntries := make([]byte, len(primaryEntries))

	if err := ioutil.ReadFullAt(t.dev, backupEntries, int64(backup.EntriesLBA)*int64(t.sectorSize)); err != nil {
		t.logger.Warn("failed to read backup partition array", zap.Error(err))

		return
	}

	stride := int(backup.SizeOfEntry)

	for n := 0; n < int(backup.NumEntries); n++ {
		if !slices.Equal(primaryEntries[n*stride:(n+1)*stride], backupEntries[n*stride:(n+1)*stride]) {
			t.logger.Warn("backup partition array differs from primary", zap.Int("entry", n))

			break
		}
	}

	t.backup = pointer.To(backup)
}

// Close releases the device handle. The table must not be used afterwards.
func (t *Table) Close() error {
	if err := t.dev.Close(); err != nil {
		return ioErrorf("failed to close device: %s", err)
	}

	return nil
}

// Header returns a copy of the in-memory primary header.
func (t *Table) Header() Header {
	return t.header
}

// BackupHeader returns a copy of the backup header, or nil if no valid
// backup was found on open.
func (t *Table) BackupHeader() *Header {
	if t.backup == nil {
		return nil
	}

	return pointer.To(*t.backup)
}

// Partitions returns a copy of the non-empty entries in LBA order.
func (t *Table) Partitions() []Partition {
	return slices.Clone(t.entries)
}

// LastUsedIndex returns the greatest index of a non-empty entry, or -1 when
// the table is empty.
func (t *Table) LastUsedIndex() int {
	return len(t.entries) - 1
}

// ReadOnlyPrefix returns the greatest immutable entry index, or -1 when no
// prefix is read-only.
func (t *Table) ReadOnlyPrefix() int {
	return t.options.ReadOnlyPrefix
}

// SectorSize returns the logical block size in bytes.
func (t *Table) SectorSize() uint32 {
	return t.sectorSize
}

// BlockCount returns the device logical block count, or 0 when unknown.
func (t *Table) BlockCount() uint64 {
	return t.blockCount
}
