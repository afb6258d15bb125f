// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// isFatalFsnotifyError reports inotify resource exhaustion. Large mods
// directories can hit fs.inotify.max_user_watches (ENOSPC); EMFILE and
// ENFILE are the process and system descriptor limits.
func isFatalFsnotifyError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
