// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdm/gpted/internal/gptstructs"
)

func TestNameRoundTrip(t *testing.T) {
	for _, name := range []string{
		"",
		"boot",
		"system_a",
		"0123456789012345678901234567890123456", // one character over the field width
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := encodeName(name)
			if len(name) > gptstructs.NameSize/2 {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)

			// pad to the full field width, as persisted
			field := make([]byte, gptstructs.NameSize)
			copy(field, raw)

			decoded, err := decodeName(field)
			require.NoError(t, err)
			assert.Equal(t, name, decoded)
		})
	}
}

func TestNameRoundTripASCIIRange(t *testing.T) {
	// every printable ASCII code point survives an encode/decode cycle
	for c := byte(0x20); c < 0x7f; c++ {
		name := string([]byte{c, c, c})

		raw, err := encodeName(name)
		require.NoError(t, err)

		field := make([]byte, gptstructs.NameSize)
		copy(field, raw)

		decoded, err := decodeName(field)
		require.NoError(t, err)
		require.Equal(t, name, decoded)
	}
}

func TestEncodeNameTooLong(t *testing.T) {
	_, err := encodeName("0123456789012345678901234567890123456")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPolicy)

	// 36 ASCII characters encode to exactly 72 bytes
	raw, err := encodeName("012345678901234567890123456789012345")
	require.NoError(t, err)
	assert.Len(t, raw, gptstructs.NameSize)
}
