// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build linux

package block

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// discoverGeometry queries the kernel for the logical block size and device
// size in bytes. Regular files get the default block size and a zero size.
func discoverGeometry(f *os.File) (sectorSize uint32, sizeBytes uint64, err error) {
	st, err := f.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stat: %w", err)
	}

	if st.Mode()&os.ModeDevice == 0 {
		return DefaultBlockSize, 0, nil
	}

	var lsize uint32
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(unix.BLKSSZGET), uintptr(unsafe.Pointer(&lsize))); errno != 0 {
		lsize = DefaultBlockSize
	}

	var devsize uint64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&devsize))); errno != 0 {
		return 0, 0, errno
	}

	runtime.KeepAlive(f)

	return lsize, devsize, nil
}

// TryLock attempts to take an advisory flock without blocking.
func (d *Device) TryLock(exclusive bool) error {
	flag := unix.LOCK_SH
	if exclusive {
		flag = unix.LOCK_EX
	}

	return unix.Flock(int(d.f.Fd()), flag|unix.LOCK_NB)
}

// Unlock releases the advisory flock.
func (d *Device) Unlock() error {
	return unix.Flock(int(d.f.Fd()), unix.LOCK_UN)
}
