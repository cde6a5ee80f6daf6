package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Gateway abstracts the local filesystem operations the conversion pipeline
// performs inside a job's working directory.
type Gateway interface {
	EnsureDir(path string) error
	ListFrameImages(dir string) ([]string, error)
	FindNewestGLB(dir string) (string, error)
	RemoveDir(path string) error
	FileSize(path string) (int64, error)
}

// OS implements Gateway against the real filesystem.
type OS struct{}

var _ Gateway = OS{}

func (OS) EnsureDir(path string) error                  { return EnsureDir(path) }
func (OS) ListFrameImages(dir string) ([]string, error) { return ListFrameImages(dir) }
func (OS) FindNewestGLB(dir string) (string, error)     { return FindNewestGLB(dir) }
func (OS) RemoveDir(path string) error                  { return RemoveDir(path) }
func (OS) FileSize(path string) (int64, error)          { return FileSize(path) }

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// ListFrameImages returns the frame images directly under dir, sorted by
// name. Extraction writes zero-padded frame numbers, so name order is
// chronological order.
func ListFrameImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames directory %s: %w", dir, err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isFrameImage(entry.Name()) {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}

func isFrameImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	default:
		return false
	}
}

// FindNewestGLB returns the most recently modified .glb file directly under
// dir, or the empty string when none exists. Export tools pick their own
// output names, so the newest file is the one this run produced.
func FindNewestGLB(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read export directory %s: %w", dir, err)
	}

	var (
		newest     string
		newestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".glb" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	return newest, nil
}

// RemoveDir deletes path and everything under it. Missing paths are not an
// error.
func RemoveDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove directory %s: %w", path, err)
	}
	return nil
}

// FileSize returns the size of the file at path in bytes.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}
