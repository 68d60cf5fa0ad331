// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gptstructs provides fixed-layout codecs for the GPT on-disk structures.
//
// All multi-byte fields are little-endian. The codecs operate directly on
// byte slices so that checksums cover exactly the persisted representation.
package gptstructs

const (
	// HeaderSize is the byte length of the GPT header covered by its CRC.
	HeaderSize = 92

	// EntrySize is the byte length of a single partition entry.
	EntrySize = 128

	// NameSize is the byte length of the UTF-16LE partition name field.
	NameSize = 72

	// HeaderSignature is "EFI PART" interpreted as a little-endian uint64.
	HeaderSignature = 0x5452415020494645

	// HeaderRevision is the only revision this package understands.
	HeaderRevision = 0x00010000
)
