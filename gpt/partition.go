// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"bytes"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/tdm/gpted/internal/gptstructs"
	"github.com/tdm/gpted/internal/gptutil"
)

// Partition is a single non-empty partition entry.
//
// Entries are value types owned by the table; LBA bounds are inclusive.
type Partition struct {
	Name string

	TypeGUID uuid.UUID
	PartGUID uuid.UUID

	FirstLBA uint64
	LastLBA  uint64

	Flags uint64
}

// Blocks returns the partition length in logical blocks.
func (p Partition) Blocks() uint64 {
	return p.LastLBA - p.FirstLBA + 1
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func decodeName(raw []byte) (string, error) {
	name, err := utf16le.NewDecoder().Bytes(raw)
	if err != nil {
		return "", formatErrorf("malformed partition name: %s", err)
	}

	return string(bytes.TrimRight(name, "\x00")), nil
}

func encodeName(name string) ([]byte, error) {
	raw, err := utf16le.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, policyErrorf("cannot encode partition name %q: %s", name, err)
	}

	if len(raw) > gptstructs.NameSize {
		return nil, policyErrorf("partition name %q too long: %d bytes", name, len(raw))
	}

	return raw, nil
}

func decodePartition(raw gptstructs.Entry) (Partition, error) {
	typeGUID, err := uuid.FromBytes(gptutil.GUIDToUUID(raw.TypeGUID()))
	if err != nil {
		return Partition{}, formatErrorf("malformed partition type GUID: %s", err)
	}

	partGUID, err := uuid.FromBytes(gptutil.GUIDToUUID(raw.PartGUID()))
	if err != nil {
		return Partition{}, formatErrorf("malformed partition GUID: %s", err)
	}

	name, err := decodeName(raw.Name())
	if err != nil {
		return Partition{}, err
	}

	return Partition{
		Name: name,

		TypeGUID: typeGUID,
		PartGUID: partGUID,

		FirstLBA: raw.FirstLBA(),
		LastLBA:  raw.LastLBA(),

		Flags: raw.Attributes(),
	}, nil
}

func encodePartition(p Partition, raw gptstructs.Entry) error {
	name, err := encodeName(p.Name)
	if err != nil {
		return err
	}

	raw.SetTypeGUID(gptutil.UUIDToGUID(p.TypeGUID[:]))
	raw.SetPartGUID(gptutil.UUIDToGUID(p.PartGUID[:]))
	raw.SetFirstLBA(p.FirstLBA)
	raw.SetLastLBA(p.LastLBA)
	raw.SetAttributes(p.Flags)
	raw.SetName(name)

	return nil
}
