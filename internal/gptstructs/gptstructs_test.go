// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gptstructs_test

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdm/gpted/internal/gptstructs"
)

func TestCRC32ReferenceVector(t *testing.T) {
	// IEEE 802.3 check value
	assert.EqualValues(t, 0xCBF43926, crc32.ChecksumIEEE([]byte("123456789")))

	// chained updates match a one-shot computation
	data := []byte("EFI PART partition data")
	chained := crc32.Update(crc32.Update(0, crc32.IEEETable, data[:7]), crc32.IEEETable, data[7:])
	assert.Equal(t, crc32.ChecksumIEEE(data), chained)
}

func TestHeaderAccessors(t *testing.T) {
	h := gptstructs.Header(make([]byte, 512))

	h.SetSignature(gptstructs.HeaderSignature)
	h.SetRevision(gptstructs.HeaderRevision)
	h.SetSize(gptstructs.HeaderSize)
	h.SetReserved(0xdeadbeef)
	h.SetCurrentLBA(1)
	h.SetBackupLBA(20479)
	h.SetFirstUsableLBA(34)
	h.SetLastUsableLBA(20446)
	h.SetDiskGUID([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15})
	h.SetEntriesLBA(2)
	h.SetNumEntries(128)
	h.SetSizeOfEntry(128)
	h.SetEntriesCRC(0x12345678)

	// the signature is the ASCII bytes "EFI PART"
	assert.Equal(t, []byte("EFI PART"), []byte(h[0:8]))

	assert.EqualValues(t, gptstructs.HeaderRevision, h.Revision())
	assert.EqualValues(t, gptstructs.HeaderSize, h.Size())
	assert.EqualValues(t, 0xdeadbeef, h.Reserved())
	assert.EqualValues(t, 1, h.CurrentLBA())
	assert.EqualValues(t, 20479, h.BackupLBA())
	assert.EqualValues(t, 34, h.FirstUsableLBA())
	assert.EqualValues(t, 20446, h.LastUsableLBA())
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, h.DiskGUID())
	assert.EqualValues(t, 2, h.EntriesLBA())
	assert.EqualValues(t, 128, h.NumEntries())
	assert.EqualValues(t, 128, h.SizeOfEntry())
	assert.EqualValues(t, 0x12345678, h.EntriesCRC())

	// all fields are little-endian at fixed offsets
	assert.EqualValues(t, 1, binary.LittleEndian.Uint64(h[24:32]))
	assert.EqualValues(t, 20479, binary.LittleEndian.Uint64(h[32:40]))
}

func TestHeaderChecksum(t *testing.T) {
	h := gptstructs.Header(make([]byte, 512))

	h.SetSignature(gptstructs.HeaderSignature)
	h.SetRevision(gptstructs.HeaderRevision)
	h.SetSize(gptstructs.HeaderSize)
	h.SetCurrentLBA(1)

	sum := h.Checksum()
	h.SetCRC(sum)

	// the stored CRC is excluded from its own computation
	assert.Equal(t, sum, h.Checksum())

	// equivalent manual computation over the first Size() bytes with the
	// CRC field zeroed
	manual := make([]byte, gptstructs.HeaderSize)
	copy(manual, h[:gptstructs.HeaderSize])

	for i := 16; i < 20; i++ {
		manual[i] = 0
	}

	require.Equal(t, crc32.ChecksumIEEE(manual), h.Checksum())

	// any flipped bit is caught
	h[40] ^= 0x01
	assert.NotEqual(t, sum, h.Checksum())
}

func TestEntryAccessors(t *testing.T) {
	e := gptstructs.Entry(make([]byte, gptstructs.EntrySize))

	assert.True(t, e.IsZero())

	e.SetTypeGUID([]byte{0xaf, 0x3d, 0xc6, 0x0f, 0x83, 0x84, 0x72, 0x47, 0x8e, 0x79, 0x3d, 0x69, 0xd8, 0x47, 0x7d, 0xe4})
	e.SetPartGUID([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	e.SetFirstLBA(2048)
	e.SetLastLBA(4095)
	e.SetAttributes(1 << 2)
	e.SetName([]byte{'b', 0, 'o', 0, 'o', 0, 't', 0})

	assert.False(t, e.IsZero())

	assert.EqualValues(t, 2048, e.FirstLBA())
	assert.EqualValues(t, 4095, e.LastLBA())
	assert.EqualValues(t, 1<<2, e.Attributes())
	assert.Equal(t, []byte{'b', 0, 'o', 0, 'o', 0, 't', 0}, e.Name()[:8])

	// SetName zero-pads the remainder
	e.SetName([]byte{'a', 0})
	assert.Equal(t, []byte{'a', 0, 0, 0}, e.Name()[:4])
	assert.Equal(t, make([]byte, gptstructs.NameSize-2), e.Name()[2:])
}
