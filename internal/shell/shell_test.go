// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package shell_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdm/gpted/gpt"
	"github.com/tdm/gpted/internal/imagetest"
	"github.com/tdm/gpted/internal/shell"
)

func newShell(t *testing.T) (*shell.Shell, *gpt.Table, *bytes.Buffer) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "disk.img")

	require.NoError(t, imagetest.Build(path, []imagetest.Part{
		{Name: "boot", FirstLBA: 2048, LastLBA: 4095},
		{Name: "system", FirstLBA: 4096, LastLBA: 8191},
		{Name: "data", FirstLBA: 8192, LastLBA: 16383},
	}))

	table, err := gpt.Open(path, gpt.WithBlockCount(imagetest.BlockCount))
	require.NoError(t, err)

	t.Cleanup(func() { table.Close() }) //nolint:errcheck

	out := &bytes.Buffer{}

	return shell.New(table, out), table, out
}

func TestExecuteShow(t *testing.T) {
	s, _, out := newShell(t)

	assert.False(t, s.Execute("show"))

	output := out.String()
	assert.Contains(t, output, "Primary GPT:")
	assert.Contains(t, output, "Backup GPT:")
	assert.Contains(t, output, "Partition table: count=3")
	assert.Contains(t, output, "name=boot")
	assert.Contains(t, output, "[    4096..    8191] size=    4096 (2.0 MiB) name=system")
}

func TestExecuteMutations(t *testing.T) {
	s, table, out := newShell(t)

	assert.False(t, s.Execute("part-resize boot 2m follow"))
	assert.Empty(t, out.String())

	parts := table.Partitions()
	assert.EqualValues(t, 6143, parts[0].LastLBA)
	assert.EqualValues(t, 6144, parts[1].FirstLBA)

	assert.False(t, s.Execute("part-del system follow"))
	assert.Equal(t, 1, table.LastUsedIndex())

	assert.False(t, s.Execute("part-move data 8192"))
	assert.EqualValues(t, 8192, table.Partitions()[1].FirstLBA)

	assert.False(t, s.Execute("part-add scratch 16384 1m"))

	idx, ok := table.FindPartition("scratch")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestExecuteResizeMax(t *testing.T) {
	s, table, out := newShell(t)

	assert.False(t, s.Execute("part-resize boot max follow"))
	assert.Empty(t, out.String())

	parts := table.Partitions()
	assert.EqualValues(t, imagetest.LastUsableLBA, parts[2].LastLBA)
}

func TestExecuteErrors(t *testing.T) {
	s, _, out := newShell(t)

	for _, test := range []struct {
		line     string
		expected string
	}{
		{"part-del missing", "E: part missing not found"},
		{"part-move system 3072", "E: operation not permitted"},
		{"part-resize boot 1000", "E: operation not permitted"},
		{"part-move boot x12", "E: bad lba"},
		{"part-del", "E: not enough args"},
		{"frobnicate", "Unknown command frobnicate"},
	} {
		out.Reset()

		assert.False(t, s.Execute(test.line))
		assert.Contains(t, out.String(), test.expected)
	}
}

func TestExecuteCommentsAndBlank(t *testing.T) {
	s, _, out := newShell(t)

	for _, line := range []string{"", "   ", "# comment", "; comment", "  # indented"} {
		assert.False(t, s.Execute(line))
	}

	assert.Empty(t, out.String())
}

func TestExecuteQuit(t *testing.T) {
	s, _, _ := newShell(t)

	assert.True(t, s.Execute("quit"))
}

func TestRun(t *testing.T) {
	s, table, out := newShell(t)

	input := strings.Join([]string{
		"# resize and inspect",
		"part-resize boot 2m follow",
		"show",
		"quit",
		"show",
	}, "\n")

	require.NoError(t, s.Run(strings.NewReader(input), ""))

	// the line after quit is never executed
	assert.Equal(t, 1, strings.Count(out.String(), "Partition table:"))

	assert.EqualValues(t, 6143, table.Partitions()[0].LastLBA)
}

func TestFirmwareSaveLoad(t *testing.T) {
	s, _, out := newShell(t)

	// image files land in the current directory
	wd, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, os.Chdir(t.TempDir()))

	t.Cleanup(func() { os.Chdir(wd) }) //nolint:errcheck

	assert.False(t, s.Execute("firmware-save"))

	assert.Equal(t, "Skip boot\nSkip system\nSave data\n", out.String())

	st, err := os.Stat("data.img")
	require.NoError(t, err)
	assert.EqualValues(t, 4*1024*1024, st.Size())

	_, err = os.Stat("boot.img")
	assert.True(t, os.IsNotExist(err))

	out.Reset()

	assert.False(t, s.Execute("firmware-load all"))
	assert.Equal(t, "Skip boot\nSkip system\nLoad data\n", out.String())
}

func TestHelp(t *testing.T) {
	s, _, out := newShell(t)

	assert.False(t, s.Execute("help"))

	for _, name := range []string{"show", "write", "part-add", "part-del", "part-move", "part-resize", "part-save", "part-load", "firmware-save", "firmware-load", "quit"} {
		assert.Contains(t, out.String(), name)
	}
}
