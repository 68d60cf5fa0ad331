// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build !linux

package block

import (
	"fmt"
	"os"
)

// discoverGeometry has no kernel support outside of Linux; every path is
// treated as a regular file.
func discoverGeometry(f *os.File) (sectorSize uint32, sizeBytes uint64, err error) {
	st, err := f.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stat: %w", err)
	}

	if st.Mode()&os.ModeDevice != 0 {
		return 0, 0, fmt.Errorf("block devices are not supported on this platform")
	}

	return DefaultBlockSize, 0, nil
}

// TryLock is a no-op outside of Linux.
func (d *Device) TryLock(bool) error { return nil }

// Unlock is a no-op outside of Linux.
func (d *Device) Unlock() error { return nil }
