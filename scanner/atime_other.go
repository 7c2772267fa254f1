//go:build !linux && !darwin

package scanner

import "io/fs"

// atimeOf falls back to the modification time on platforms without a
// portable access-time field.
func atimeOf(info fs.FileInfo) int64 {
	return info.ModTime().Unix()
}
