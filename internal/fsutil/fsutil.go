// Package fsutil holds the small filesystem primitives shared by the log,
// handover and digest packages. Missing files are reported through ok
// returns rather than errors.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TempFilePrefix is the prefix used for temporary atomic write files.
const TempFilePrefix = ".carryover-tmp-"

// WriteFileAtomic writes data to a file atomically by writing to a temp file
// in the same directory and renaming it over filename.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name()) // no-op once renamed

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", filename, err)
	}
	return nil
}

// ModTime returns the modification time of path. ok is false when the path
// cannot be stat'ed for any reason.
func ModTime(path string) (mtime time.Time, ok bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// ReadIfExists reads path. ok is false (with a nil error) when the file does
// not exist; other read failures are returned.
func ReadIfExists(path string) (content string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Age returns how long ago t was relative to now, never negative.
func Age(t, now time.Time) time.Duration {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return d
}

// UnixSeconds converts t to fractional seconds since the epoch.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
