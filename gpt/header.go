// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/tdm/gpted/internal/gptstructs"
	"github.com/tdm/gpted/internal/gptutil"
)

// Header is the decoded form of a GPT header.
//
// Signature and revision are implied; Reserved is preserved verbatim across
// a read/modify/write cycle.
type Header struct {
	Size     uint32
	CRC      uint32
	Reserved uint32

	CurrentLBA     uint64
	BackupLBA      uint64
	FirstUsableLBA uint64
	LastUsableLBA  uint64

	DiskGUID uuid.UUID

	EntriesLBA  uint64
	NumEntries  uint32
	SizeOfEntry uint32
	EntriesCRC  uint32
}

func decodeHeader(raw gptstructs.Header) (Header, error) {
	diskGUID, err := uuid.FromBytes(gptutil.GUIDToUUID(raw.DiskGUID()))
	if err != nil {
		return Header{}, formatErrorf("malformed disk GUID: %s", err)
	}

	return Header{
		Size:     raw.Size(),
		CRC:      raw.CRC(),
		Reserved: raw.Reserved(),

		CurrentLBA:     raw.CurrentLBA(),
		BackupLBA:      raw.BackupLBA(),
		FirstUsableLBA: raw.FirstUsableLBA(),
		LastUsableLBA:  raw.LastUsableLBA(),

		DiskGUID: diskGUID,

		EntriesLBA:  raw.EntriesLBA(),
		NumEntries:  raw.NumEntries(),
		SizeOfEntry: raw.SizeOfEntry(),
		EntriesCRC:  raw.EntriesCRC(),
	}, nil
}

// encodeHeader serializes h into a zeroed buffer of one logical block and
// stamps a fresh checksum.
func encodeHeader(h Header, sectorSize uint32) gptstructs.Header {
	raw := gptstructs.Header(make([]byte, sectorSize))

	raw.SetSignature(gptstructs.HeaderSignature)
	raw.SetRevision(gptstructs.HeaderRevision)
	raw.SetSize(h.Size)
	raw.SetReserved(h.Reserved)
	raw.SetCurrentLBA(h.CurrentLBA)
	raw.SetBackupLBA(h.BackupLBA)
	raw.SetFirstUsableLBA(h.FirstUsableLBA)
	raw.SetLastUsableLBA(h.LastUsableLBA)
	raw.SetDiskGUID(gptutil.UUIDToGUID(h.DiskGUID[:]))
	raw.SetEntriesLBA(h.EntriesLBA)
	raw.SetNumEntries(h.NumEntries)
	raw.SetSizeOfEntry(h.SizeOfEntry)
	raw.SetEntriesCRC(h.EntriesCRC)

	raw.SetCRC(raw.Checksum())

	return raw
}

// validateHeader checks the self-contained header properties: signature,
// revision, size range, checksum, and entry array parameter ranges.
func (t *Table) validateHeader(raw gptstructs.Header) error {
	if raw.Signature() != gptstructs.HeaderSignature {
		return formatErrorf("bad header signature")
	}

	if raw.Revision() != gptstructs.HeaderRevision {
		return formatErrorf("unsupported header revision %#08x", raw.Revision())
	}

	if raw.Size() < gptstructs.HeaderSize || raw.Size() > t.sectorSize {
		return formatErrorf("header size %d out of range", raw.Size())
	}

	if raw.CRC() != raw.Checksum() {
		return formatErrorf("header checksum mismatch: stored %#08x, computed %#08x", raw.CRC(), raw.Checksum())
	}

	if raw.NumEntries() < MinPartitionEntries || raw.NumEntries() > MaxPartitionEntries {
		return formatErrorf("partition entry count %d out of range", raw.NumEntries())
	}

	if raw.SizeOfEntry() < gptstructs.EntrySize || raw.SizeOfEntry() > t.sectorSize {
		return formatErrorf("partition entry size %d out of range", raw.SizeOfEntry())
	}

	return nil
}

// validateGeometry checks the primary header placement against the device
// geometry. Checks involving the total block count are skipped when the
// count is unknown (regular files).
func (t *Table) validateGeometry(raw gptstructs.Header) error {
	if raw.CurrentLBA() != 1 {
		return formatErrorf("primary header at LBA %d, expected 1", raw.CurrentLBA())
	}

	if raw.FirstUsableLBA() < 2 {
		return formatErrorf("first usable LBA %d too low", raw.FirstUsableLBA())
	}

	if raw.LastUsableLBA() <= raw.FirstUsableLBA() {
		return formatErrorf("usable LBA range [%d..%d] is empty", raw.FirstUsableLBA(), raw.LastUsableLBA())
	}

	if t.blockCount > 0 {
		if raw.BackupLBA() >= t.blockCount {
			return formatErrorf("backup header LBA %d beyond device end %d", raw.BackupLBA(), t.blockCount)
		}

		if raw.FirstUsableLBA() >= t.blockCount || raw.LastUsableLBA() >= t.blockCount {
			return formatErrorf("usable LBA range [%d..%d] beyond device end %d",
				raw.FirstUsableLBA(), raw.LastUsableLBA(), t.blockCount)
		}

		if raw.EntriesLBA() >= t.blockCount {
			return formatErrorf("partition array LBA %d beyond device end %d", raw.EntriesLBA(), t.blockCount)
		}
	}

	return nil
}

// validateCross checks the backup header against the already validated
// primary.
func (t *Table) validateCross(raw gptstructs.Header, primary Header) error {
	if raw.CurrentLBA() != primary.BackupLBA {
		return formatErrorf("backup header at LBA %d, expected %d", raw.CurrentLBA(), primary.BackupLBA)
	}

	if raw.BackupLBA() != 1 {
		return formatErrorf("backup header points to LBA %d, expected 1", raw.BackupLBA())
	}

	if raw.FirstUsableLBA() != primary.FirstUsableLBA || raw.LastUsableLBA() != primary.LastUsableLBA {
		return formatErrorf("backup usable LBA range [%d..%d] differs from primary [%d..%d]",
			raw.FirstUsableLBA(), raw.LastUsableLBA(), primary.FirstUsableLBA, primary.LastUsableLBA)
	}

	if !bytes.Equal(raw.DiskGUID(), gptutil.UUIDToGUID(primary.DiskGUID[:])) {
		return formatErrorf("backup disk GUID differs from primary")
	}

	if raw.NumEntries() != primary.NumEntries || raw.SizeOfEntry() != primary.SizeOfEntry {
		return formatErrorf("backup partition array parameters differ from primary")
	}

	if t.blockCount > 0 && raw.EntriesLBA() >= t.blockCount {
		return formatErrorf("backup partition array LBA %d beyond device end %d", raw.EntriesLBA(), t.blockCount)
	}

	return nil
}
