// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package shell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdm/gpted/internal/shell"
)

func TestParseNumber(t *testing.T) {
	for _, test := range []struct {
		in       string
		expected uint64
	}{
		{"0", 0},
		{"2048", 2048},
		{"0x800", 2048},
		{"4s", 4 * 512},
		{"4S", 4 * 512},
		{"1k", 1024},
		{"2K", 2048},
		{"2m", 2 * 1024 * 1024},
		{"1M", 1024 * 1024},
		{"1g", 1024 * 1024 * 1024},
		{"3G", 3 * 1024 * 1024 * 1024},
	} {
		t.Run(test.in, func(t *testing.T) {
			val, err := shell.ParseNumber(test.in)
			require.NoError(t, err)
			assert.Equal(t, test.expected, val)
		})
	}
}

func TestParseNumberErrors(t *testing.T) {
	for _, in := range []string{"", "m", "12x", "-4", "1.5k", "k4"} {
		t.Run(in, func(t *testing.T) {
			_, err := shell.ParseNumber(in)
			assert.Error(t, err)
		})
	}
}
