// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package shell implements the interactive command loop of the partition
// editor.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/tdm/gpted/gpt"
)

// Shell binds a partition table to a line-oriented command dispatcher.
type Shell struct {
	table *gpt.Table
	out   io.Writer
}

// New returns a shell operating on the given table.
func New(table *gpt.Table, out io.Writer) *Shell {
	return &Shell{
		table: table,
		out:   out,
	}
}

// linuxDataGUID is the default partition type for part-add.
var linuxDataGUID = uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4")

type command struct {
	name    string
	usage   string
	summary string

	// minimum argument count after the command name
	minArgs int

	run func(s *Shell, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"help", "help", "list commands", 0, (*Shell).cmdHelp},
		{"quit", "quit", "exit without writing", 0, nil},
		{"show", "show", "print headers and partitions", 0, (*Shell).cmdShow},
		{"write", "write", "commit the table to the device", 0, (*Shell).cmdWrite},
		{"part-add", "part-add <name> <lba> <size> [follow]", "insert a partition", 3, (*Shell).cmdPartAdd},
		{"part-del", "part-del <name> [follow]", "delete a partition", 1, (*Shell).cmdPartDel},
		{"part-move", "part-move <name> <lba> [follow]", "move a partition", 2, (*Shell).cmdPartMove},
		{"part-resize", "part-resize <name> <size|max> [follow]", "resize a partition", 2, (*Shell).cmdPartResize},
		{"part-save", "part-save <name> <file>", "dump partition contents to a file", 2, (*Shell).cmdPartSave},
		{"part-load", "part-load <name> <file>", "restore partition contents from a file", 2, (*Shell).cmdPartLoad},
		{"firmware-save", "firmware-save [all]", "dump all firmware partitions to <name>.img files", 0, (*Shell).cmdFirmwareSave},
		{"firmware-load", "firmware-load [all]", "restore all firmware partitions from <name>.img files", 0, (*Shell).cmdFirmwareLoad},
	}
}

// Run reads commands from r until quit or EOF.
//
// A non-empty prompt is printed before each line.
func (s *Shell) Run(r io.Reader, prompt string) error {
	scanner := bufio.NewScanner(r)

	for {
		if prompt != "" {
			fmt.Fprint(s.out, prompt)
		}

		if !scanner.Scan() {
			if prompt != "" {
				fmt.Fprintln(s.out)
			}

			return scanner.Err()
		}

		if s.Execute(scanner.Text()) {
			return nil
		}
	}
}

// Execute runs a single command line and reports whether the shell should
// exit.
func (s *Shell) Execute(line string) (quit bool) {
	line = strings.TrimSpace(line)

	if line == "" || line[0] == '#' || line[0] == ';' {
		return false
	}

	args := strings.Fields(line)

	for _, cmd := range commands {
		if args[0] != cmd.name {
			continue
		}

		if cmd.run == nil {
			return true
		}

		if len(args)-1 < cmd.minArgs {
			fmt.Fprintf(s.out, "E: not enough args, usage: %s\n", cmd.usage)

			return false
		}

		if err := cmd.run(s, args[1:]); err != nil {
			fmt.Fprintf(s.out, "E: %s\n", err)
		}

		return false
	}

	fmt.Fprintf(s.out, "Unknown command %s\n", args[0])

	return false
}

func (s *Shell) cmdHelp(_ []string) error {
	for _, cmd := range commands {
		fmt.Fprintf(s.out, "  %-40s %s\n", cmd.usage, cmd.summary)
	}

	return nil
}

func (s *Shell) cmdWrite(_ []string) error {
	return s.table.Write()
}

// hasFollow reports whether the optional trailing "follow" modifier is
// present at position n.
func hasFollow(args []string, n int) bool {
	return len(args) > n && args[n] == "follow"
}

func (s *Shell) findPartition(name string) (int, error) {
	idx, ok := s.table.FindPartition(name)
	if !ok {
		return 0, fmt.Errorf("part %s not found", name)
	}

	return idx, nil
}

func (s *Shell) cmdPartAdd(args []string) error {
	lba, err := ParseNumber(args[1])
	if err != nil {
		return fmt.Errorf("bad lba %q: %w", args[1], err)
	}

	size, err := ParseNumber(args[2])
	if err != nil {
		return fmt.Errorf("bad size %q: %w", args[2], err)
	}

	lbs := uint64(s.table.SectorSize())
	if size == 0 || size%lbs != 0 {
		return fmt.Errorf("size %d is not a positive multiple of the block size %d", size, lbs)
	}

	// insertion point: before the first partition starting past the target
	idx := s.table.LastUsedIndex() + 1

	for n, p := range s.table.Partitions() {
		if p.FirstLBA > lba {
			idx = n

			break
		}
	}

	return s.table.AddPartition(idx, gpt.Partition{
		Name:     args[0],
		TypeGUID: linuxDataGUID,
		FirstLBA: lba,
		LastLBA:  lba + size/lbs - 1,
	})
}

func (s *Shell) cmdPartDel(args []string) error {
	idx, err := s.findPartition(args[0])
	if err != nil {
		return err
	}

	return s.table.DeletePartition(idx, hasFollow(args, 1))
}

func (s *Shell) cmdPartMove(args []string) error {
	idx, err := s.findPartition(args[0])
	if err != nil {
		return err
	}

	lba, err := ParseNumber(args[1])
	if err != nil {
		return fmt.Errorf("bad lba %q: %w", args[1], err)
	}

	return s.table.MovePartition(idx, lba, hasFollow(args, 2))
}

func (s *Shell) cmdPartResize(args []string) error {
	idx, err := s.findPartition(args[0])
	if err != nil {
		return err
	}

	follow := hasFollow(args, 2)

	var size uint64

	if args[1] == "max" {
		size, err = s.table.MaximumSize(idx, follow)
	} else {
		size, err = ParseNumber(args[1])
	}

	if err != nil {
		return fmt.Errorf("bad size %q: %w", args[1], err)
	}

	return s.table.ResizePartition(idx, size, follow)
}

// nonFirmware names user data partitions skipped by the firmware batch
// commands.
var nonFirmware = []string{
	"recovery", "boot",
	"system", "userdata", "cache", "sdcard",
}

// forEachFirmware applies op to every firmware partition, pairing it with
// its <name>.img file. With all, the read-only prefix is included too.
func (s *Shell) forEachFirmware(args []string, verb string, op func(idx int, filename string) error) error {
	startIdx := 0
	if !(len(args) > 0 && args[0] == "all") {
		startIdx = s.table.ReadOnlyPrefix() + 1
	}

	for idx := startIdx; idx <= s.table.LastUsedIndex(); idx++ {
		name, err := s.table.PartitionName(idx)
		if err != nil {
			return err
		}

		if slices.Contains(nonFirmware, name) {
			fmt.Fprintf(s.out, "Skip %s\n", name)

			continue
		}

		fmt.Fprintf(s.out, "%s %s\n", verb, name)

		if err := op(idx, name+".img"); err != nil {
			return err
		}
	}

	return nil
}

func (s *Shell) cmdFirmwareSave(args []string) error {
	return s.forEachFirmware(args, "Save", s.table.SavePartition)
}

func (s *Shell) cmdFirmwareLoad(args []string) error {
	return s.forEachFirmware(args, "Load", s.table.LoadPartition)
}

func (s *Shell) cmdPartSave(args []string) error {
	idx, err := s.findPartition(args[0])
	if err != nil {
		return err
	}

	return s.table.SavePartition(idx, args[1])
}

func (s *Shell) cmdPartLoad(args []string) error {
	idx, err := s.findPartition(args[0])
	if err != nil {
		return err
	}

	return s.table.LoadPartition(idx, args[1])
}
