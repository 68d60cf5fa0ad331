// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gptutil implements helper functions for GPT tables.
package gptutil

// GUIDToUUID converts an on-disk mixed-endian GPT GUID to RFC 4122 byte order.
//
// The first three groups are stored little-endian, the last two big-endian,
// so the textual form of the converted UUID matches the GPT convention.
func GUIDToUUID(g []byte) []byte {
	return append(
		[]byte{
			g[3], g[2], g[1], g[0],
			g[5], g[4],
			g[7], g[6],
			g[8], g[9],
		},
		g[10:16]...,
	)
}

// UUIDToGUID converts an RFC 4122 UUID to on-disk mixed-endian GPT byte order.
//
// The swap is an involution, so the same shuffle works both ways.
func UUIDToGUID(u []byte) []byte {
	return GUIDToUUID(u)
}
