//go:build darwin

package scanner

import (
	"io/fs"
	"syscall"
)

// atimeOf extracts the access time from a stat result. Zero when the
// platform data is unavailable.
func atimeOf(info fs.FileInfo) int64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return st.Atimespec.Sec
	}
	return 0
}
