// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package ioutil_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdm/gpted/internal/ioutil"
)

func TestReadFullAt(t *testing.T) {
	r := bytes.NewReader([]byte("0123456789"))

	buf := make([]byte, 4)
	require.NoError(t, ioutil.ReadFullAt(r, buf, 3))
	assert.Equal(t, []byte("3456"), buf)

	// reading exactly to the end
	require.NoError(t, ioutil.ReadFullAt(r, buf, 6))
	assert.Equal(t, []byte("6789"), buf)

	// short read is an error
	err := ioutil.ReadFullAt(r, make([]byte, 4), 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWriteFullAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")

	f, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, ioutil.WriteFullAt(f, []byte("abcd"), 2))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x00\x00abcd"), data)
}
