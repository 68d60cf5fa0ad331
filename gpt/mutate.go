// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"slices"

	"github.com/google/uuid"
)

// Mutations operate on the in-memory table only; nothing touches the device
// until Write. A failed mutation leaves the table unchanged.

func (t *Table) checkMutable(idx int) error {
	if t.options.ReadOnlyPrefix >= 0 && idx <= t.options.ReadOnlyPrefix {
		return policyErrorf("partition %d is read-only", idx)
	}

	return nil
}

func (t *Table) checkIndex(idx int) error {
	if idx < 0 || idx > t.LastUsedIndex() {
		return policyErrorf("partition index %d out of range", idx)
	}

	return nil
}

// shiftLBA translates an LBA by a signed block delta.
func shiftLBA(lba uint64, delta int64) uint64 {
	return uint64(int64(lba) + delta)
}

// followSpan translates entries idx..LastUsedIndex by delta blocks.
func (t *Table) followSpan(idx int, delta int64) {
	for n := idx; n <= t.LastUsedIndex(); n++ {
		t.entries[n].FirstLBA = shiftLBA(t.entries[n].FirstLBA, delta)
		t.entries[n].LastLBA = shiftLBA(t.entries[n].LastLBA, delta)
	}
}

// AddPartition inserts a partition at index idx, shifting trailing entries
// up by one slot.
//
// The new entry must fit between the end of entry idx-1 (or the first usable
// LBA) and the start of the entry currently at idx (or the last usable LBA).
func (t *Table) AddPartition(idx int, p Partition) error {
	if err := t.checkMutable(idx); err != nil {
		return err
	}

	if idx < 0 || idx > t.LastUsedIndex()+1 {
		return policyErrorf("partition index %d out of range", idx)
	}

	if uint32(len(t.entries)) >= t.header.NumEntries {
		return policyErrorf("partition table is full (%d entries)", t.header.NumEntries)
	}

	if p.TypeGUID == uuid.Nil {
		return policyErrorf("partition type GUID must not be zero")
	}

	if _, err := encodeName(p.Name); err != nil {
		return err
	}

	lbaMin := t.header.FirstUsableLBA
	if idx > 0 {
		lbaMin = t.entries[idx-1].LastLBA + 1
	}

	lbaMax := t.header.LastUsableLBA
	if idx <= t.LastUsedIndex() {
		lbaMax = t.entries[idx].FirstLBA - 1
	}

	if p.FirstLBA < lbaMin || p.LastLBA < p.FirstLBA || p.LastLBA > lbaMax {
		return policyErrorf("partition LBA range [%d..%d] outside allowed range [%d..%d]",
			p.FirstLBA, p.LastLBA, lbaMin, lbaMax)
	}

	if p.PartGUID == uuid.Nil {
		p.PartGUID = uuid.New()
	}

	t.entries = slices.Insert(t.entries, idx, p)

	return nil
}

// DeletePartition removes the partition at index idx, re-packing trailing
// entries down by one slot.
//
// With follow, every trailing partition is also translated down by the
// deleted partition's length so it abuts its predecessor.
func (t *Table) DeletePartition(idx int, follow bool) error {
	if err := t.checkMutable(idx); err != nil {
		return err
	}

	if err := t.checkIndex(idx); err != nil {
		return err
	}

	delta := -int64(t.entries[idx].Blocks())

	t.entries = slices.Delete(t.entries, idx, idx+1)

	if follow {
		t.followSpan(idx, delta)
	}

	return nil
}

// maxGrowth returns the largest forward block delta permitted for the end of
// partition idx: up to the last usable LBA for the last partition or when
// trailing partitions follow, otherwise up to the start of the next one.
func (t *Table) maxGrowth(idx int, follow bool) uint64 {
	if idx == t.LastUsedIndex() || follow {
		return t.header.LastUsableLBA - t.entries[t.LastUsedIndex()].LastLBA
	}

	return t.entries[idx+1].FirstLBA - t.entries[idx].LastLBA - 1
}

// MovePartition translates partition idx so that it starts at newFirstLBA.
//
// With follow, every trailing partition is translated by the same delta.
func (t *Table) MovePartition(idx int, newFirstLBA uint64, follow bool) error {
	if err := t.checkMutable(idx); err != nil {
		return err
	}

	if err := t.checkIndex(idx); err != nil {
		return err
	}

	delta := int64(newFirstLBA) - int64(t.entries[idx].FirstLBA)
	if delta == 0 {
		return nil
	}

	if delta < 0 {
		lbaMin := t.header.FirstUsableLBA
		if idx > 0 {
			lbaMin = t.entries[idx-1].LastLBA + 1
		}

		if newFirstLBA < lbaMin {
			return policyErrorf("new start LBA %d below minimum %d", newFirstLBA, lbaMin)
		}
	} else if uint64(delta) > t.maxGrowth(idx, follow) {
		return policyErrorf("move by %d blocks exceeds available space %d", delta, t.maxGrowth(idx, follow))
	}

	t.entries[idx].FirstLBA = shiftLBA(t.entries[idx].FirstLBA, delta)
	t.entries[idx].LastLBA = shiftLBA(t.entries[idx].LastLBA, delta)

	if follow {
		t.followSpan(idx+1, delta)
	}

	return nil
}

// ResizePartition changes partition idx to newSize bytes, which must be a
// positive multiple of the logical block size. Only the end LBA moves.
//
// With follow, every trailing partition is translated by the size delta.
func (t *Table) ResizePartition(idx int, newSize uint64, follow bool) error {
	if err := t.checkMutable(idx); err != nil {
		return err
	}

	if err := t.checkIndex(idx); err != nil {
		return err
	}

	if newSize == 0 || newSize%uint64(t.sectorSize) != 0 {
		return policyErrorf("size %d is not a positive multiple of the block size %d", newSize, t.sectorSize)
	}

	delta := int64(newSize/uint64(t.sectorSize)) - int64(t.entries[idx].Blocks())
	if delta == 0 {
		return nil
	}

	if delta > 0 && uint64(delta) > t.maxGrowth(idx, follow) {
		return policyErrorf("resize by %d blocks exceeds available space %d", delta, t.maxGrowth(idx, follow))
	}

	t.entries[idx].LastLBA = shiftLBA(t.entries[idx].LastLBA, delta)

	if follow {
		t.followSpan(idx+1, delta)
	}

	return nil
}

// MaximumSize returns the largest size in bytes partition idx may be resized
// to, honoring the follow semantics of ResizePartition.
func (t *Table) MaximumSize(idx int, follow bool) (uint64, error) {
	if err := t.checkIndex(idx); err != nil {
		return 0, err
	}

	return (t.entries[idx].Blocks() + t.maxGrowth(idx, follow)) * uint64(t.sectorSize), nil
}

// FindPartition returns the index of the first partition with the given
// name.
func (t *Table) FindPartition(name string) (int, bool) {
	for n, p := range t.entries {
		if p.Name == name {
			return n, true
		}
	}

	return 0, false
}

// PartitionName returns the name of partition idx.
func (t *Table) PartitionName(idx int) (string, error) {
	if err := t.checkIndex(idx); err != nil {
		return "", err
	}

	return t.entries[idx].Name, nil
}

// PartitionSize returns the size of partition idx in bytes.
func (t *Table) PartitionSize(idx int) (uint64, error) {
	if err := t.checkIndex(idx); err != nil {
		return 0, err
	}

	return t.entries[idx].Blocks() * uint64(t.sectorSize), nil
}
