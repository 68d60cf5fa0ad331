// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package shell

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/siderolabs/gen/xslices"

	"github.com/tdm/gpted/gpt"
)

func (s *Shell) cmdShow(_ []string) error {
	s.showHeader("Primary GPT", s.table.Header())

	if backup := s.table.BackupHeader(); backup != nil {
		s.showHeader("Backup GPT", *backup)
	}

	partitions := s.table.Partitions()

	fmt.Fprintf(s.out, "Partition table: count=%d\n", len(partitions))

	lbs := uint64(s.table.SectorSize())

	lines := xslices.Map(partitions, func(p gpt.Partition) string {
		return fmt.Sprintf("[%8d..%8d] size=%8d (%s) name=%s",
			p.FirstLBA, p.LastLBA, p.Blocks(), humanize.IBytes(p.Blocks()*lbs), p.Name)
	})

	for n, line := range lines {
		fmt.Fprintf(s.out, "  p%-3d: %s\n", n, line)
	}

	return nil
}

func (s *Shell) showHeader(title string, h gpt.Header) {
	fmt.Fprintf(s.out, "%s:\n", title)
	fmt.Fprintf(s.out, "  size=%d\n", h.Size)
	fmt.Fprintf(s.out, "  current_lba=%d\n", h.CurrentLBA)
	fmt.Fprintf(s.out, "  backup_lba=%d\n", h.BackupLBA)
	fmt.Fprintf(s.out, "  first_usable_lba=%d\n", h.FirstUsableLBA)
	fmt.Fprintf(s.out, "  last_usable_lba=%d\n", h.LastUsableLBA)
	fmt.Fprintf(s.out, "  guid=%s\n", h.DiskGUID)
	fmt.Fprintf(s.out, "  ptbl_lba=%d\n", h.EntriesLBA)
	fmt.Fprintf(s.out, "  ptbl_count=%d\n", h.NumEntries)
	fmt.Fprintf(s.out, "  ptbl_entry_size=%d\n", h.SizeOfEntry)
}
