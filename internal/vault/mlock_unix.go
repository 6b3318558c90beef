//go:build !windows

package vault

import (
	"golang.org/x/sys/unix"
)

// mlock attempts to lock the memory region containing data.
func mlock(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return unix.Mlock(data) == nil
}

// munlock unlocks a previously locked memory region.
func munlock(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Munlock(data)
}
