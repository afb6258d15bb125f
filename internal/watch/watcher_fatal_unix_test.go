// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError(t *testing.T) {
	t.Parallel()

	for _, errno := range []syscall.Errno{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE} {
		if !isFatalFsnotifyError(fmt.Errorf("inotify_add_watch: %w", errno)) {
			t.Errorf("isFatalFsnotifyError(%v) = false, want true", errno)
		}
	}
	for _, err := range []error{syscall.EPERM, syscall.EACCES, fmt.Errorf("queue overflow")} {
		if isFatalFsnotifyError(err) {
			t.Errorf("isFatalFsnotifyError(%v) = true, want false", err)
		}
	}
}
