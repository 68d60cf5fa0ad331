// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package imagetest builds small GPT disk images for tests.
package imagetest

import (
	"encoding/binary"
	"hash/crc32"
	"os"

	"github.com/google/uuid"

	"github.com/tdm/gpted/internal/gptstructs"
	"github.com/tdm/gpted/internal/gptutil"
)

// Geometry of the generated image: 10 MiB of 512-byte blocks with the
// conventional 128-entry partition array.
const (
	SectorSize = 512
	BlockCount = 20480

	NumEntries = 128

	PrimaryHeaderLBA  = 1
	PrimaryEntriesLBA = 2

	arrayBlocks = NumEntries * gptstructs.EntrySize / SectorSize

	FirstUsableLBA = PrimaryEntriesLBA + arrayBlocks
	LastUsableLBA  = BackupEntriesLBA - 1

	BackupHeaderLBA  = BlockCount - 1
	BackupEntriesLBA = BackupHeaderLBA - arrayBlocks
)

// DiskGUID is the fixed disk identifier of generated images.
var DiskGUID = uuid.MustParse("8D421A1E-5B17-4AD4-B377-3C5E051DD9A5")

// TypeGUID is the partition type used for every generated partition.
var TypeGUID = uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4")

// Part describes one partition of a generated image.
type Part struct {
	Name     string
	FirstLBA uint64
	LastLBA  uint64
}

// PartGUID returns the deterministic unique GUID used for a named
// partition.
func PartGUID(name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("gpted-test-"+name))
}

// Build writes a disk image with a valid primary and backup GPT to path.
func Build(path string, parts []Part) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer f.Close() //nolint:errcheck

	if err := f.Truncate(BlockCount * SectorSize); err != nil {
		return err
	}

	entries := EncodeEntries(parts)
	entriesCRC := crc32.ChecksumIEEE(entries)

	primary := EncodeHeader(PrimaryHeaderLBA, BackupHeaderLBA, PrimaryEntriesLBA, entriesCRC)
	backup := EncodeHeader(BackupHeaderLBA, PrimaryHeaderLBA, BackupEntriesLBA, entriesCRC)

	for _, chunk := range []struct {
		data []byte
		lba  uint64
	}{
		{primary, PrimaryHeaderLBA},
		{entries, PrimaryEntriesLBA},
		{backup, BackupHeaderLBA},
		{entries, BackupEntriesLBA},
	} {
		if _, err := f.WriteAt(chunk.data, int64(chunk.lba)*SectorSize); err != nil {
			return err
		}
	}

	return f.Close()
}

// EncodeEntries builds the raw partition array for the given partitions.
func EncodeEntries(parts []Part) []byte {
	buf := make([]byte, NumEntries*gptstructs.EntrySize)

	for n, part := range parts {
		entry := gptstructs.Entry(buf[n*gptstructs.EntrySize : (n+1)*gptstructs.EntrySize])

		entry.SetTypeGUID(gptutil.UUIDToGUID(TypeGUID[:]))

		partGUID := PartGUID(part.Name)
		entry.SetPartGUID(gptutil.UUIDToGUID(partGUID[:]))

		entry.SetFirstLBA(part.FirstLBA)
		entry.SetLastLBA(part.LastLBA)
		entry.SetName(encodeName(part.Name))
	}

	return buf
}

// EncodeHeader builds one raw GPT header block with a valid checksum.
func EncodeHeader(currentLBA, backupLBA, entriesLBA uint64, entriesCRC uint32) []byte {
	raw := gptstructs.Header(make([]byte, SectorSize))

	raw.SetSignature(gptstructs.HeaderSignature)
	raw.SetRevision(gptstructs.HeaderRevision)
	raw.SetSize(gptstructs.HeaderSize)
	raw.SetCurrentLBA(currentLBA)
	raw.SetBackupLBA(backupLBA)
	raw.SetFirstUsableLBA(FirstUsableLBA)
	raw.SetLastUsableLBA(LastUsableLBA)
	raw.SetDiskGUID(gptutil.UUIDToGUID(DiskGUID[:]))
	raw.SetEntriesLBA(entriesLBA)
	raw.SetNumEntries(NumEntries)
	raw.SetSizeOfEntry(gptstructs.EntrySize)
	raw.SetEntriesCRC(entriesCRC)

	raw.SetCRC(raw.Checksum())

	return raw
}

func encodeName(name string) []byte {
	buf := make([]byte, 2*len(name))

	for i, c := range []byte(name) {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(c))
	}

	return buf
}
