// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"hash/crc32"

	"github.com/siderolabs/go-pointer"

	"github.com/tdm/gpted/internal/gptstructs"
	"github.com/tdm/gpted/internal/ioutil"
)

// Write commits the table to the device: primary header, primary partition
// array, backup header, backup partition array, in that order. Both headers
// get freshly computed checksums.
//
// On failure the on-disk state may be partially updated; re-run Write or
// re-open to re-validate.
func (t *Table) Write() error {
	stride := int(t.header.SizeOfEntry)
	entriesBuf := make([]byte, int(t.header.NumEntries)*stride)

	for n, p := range t.entries {
		if err := encodePartition(p, gptstructs.Entry(entriesBuf[n*stride:n*stride+gptstructs.EntrySize])); err != nil {
			return err
		}
	}

	t.header.EntriesCRC = crc32.ChecksumIEEE(entriesBuf)

	primary := encodeHeader(t.header, t.sectorSize)
	t.header.CRC = primary.CRC()

	if err := ioutil.WriteFullAt(t.dev, primary, int64(t.header.CurrentLBA)*int64(t.sectorSize)); err != nil {
		return ioErrorf("failed to write primary header: %s", err)
	}

	if err := ioutil.WriteFullAt(t.dev, entriesBuf, int64(t.header.EntriesLBA)*int64(t.sectorSize)); err != nil {
		return ioErrorf("failed to write primary partition array: %s", err)
	}

	// The backup array sits right below the backup header at the device
	// end. Without a known block count (image files) the backup header LBA
	// stands in for the last LBA.
	deviceEnd := t.blockCount
	if deviceEnd == 0 {
		deviceEnd = t.header.BackupLBA + 1
	}

	arrayBlocks := (uint64(len(entriesBuf)) + uint64(t.sectorSize) - 1) / uint64(t.sectorSize)

	backupHdr := t.header
	backupHdr.CurrentLBA = t.header.BackupLBA
	backupHdr.BackupLBA = 1
	backupHdr.EntriesLBA = deviceEnd - arrayBlocks - 1

	backup := encodeHeader(backupHdr, t.sectorSize)
	backupHdr.CRC = backup.CRC()

	if err := ioutil.WriteFullAt(t.dev, backup, int64(backupHdr.CurrentLBA)*int64(t.sectorSize)); err != nil {
		return ioErrorf("failed to write backup header: %s", err)
	}

	if err := ioutil.WriteFullAt(t.dev, entriesBuf, int64(backupHdr.EntriesLBA)*int64(t.sectorSize)); err != nil {
		return ioErrorf("failed to write backup partition array: %s", err)
	}

	if err := t.dev.Sync(); err != nil {
		return ioErrorf("failed to sync device: %s", err)
	}

	t.backup = pointer.To(backupHdr)

	return nil
}
