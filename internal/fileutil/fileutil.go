package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge is returned when a stream exceeds the caller's size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// Written describes a file committed by WriteAtomic.
type Written struct {
	Size   int64
	SHA256 string
}

// WriteAtomic streams r into a temporary file next to dst and renames it into
// place once the copy succeeds. A limit above zero caps the accepted size; the
// partial file is removed when the cap is exceeded or the copy fails, so dst
// is either the previous content or the complete new content.
func WriteAtomic(dst string, r io.Reader, limit int64, mode os.FileMode) (Written, error) {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return Written{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	if err != nil {
		return Written{}, err
	}
	if limit > 0 && written > limit {
		return Written{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	if err := tmp.Sync(); err != nil {
		return Written{}, err
	}
	if err := tmp.Close(); err != nil {
		return Written{}, err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return Written{}, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return Written{}, fmt.Errorf("commit %s: %w", filepath.Base(dst), err)
	}
	committed = true
	return Written{Size: written, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}
