package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"buylog/internal/feed"
)

// FileTarget stores uploads in a local directory, for running against a
// development backend that serves media from disk:
//
//	<root>/
//	  <mediaId>/
//	    <file name>
type FileTarget struct {
	root string
}

var _ feed.MediaTarget = (*FileTarget)(nil)

// NewFileTarget creates a FileTarget rooted at root, creating it if needed.
func NewFileTarget(root string) (*FileTarget, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &FileTarget{root: root}, nil
}

// Path returns where the upload for target is stored.
func (t *FileTarget) Path(target feed.UploadTarget) string {
	return filepath.Join(t.root, filepath.Base(target.MediaID), filepath.Base(target.FileName))
}

// Put writes the upload atomically. Existing content for the same media ID
// and file name is replaced.
func (t *FileTarget) Put(ctx context.Context, target feed.UploadTarget, body io.Reader, size int64, contentType string, progress func(int)) error {
	if !validName(target.MediaID) || !validName(target.FileName) {
		return &UploadError{Message: "media id and file name are required"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dest := t.Path(target)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	return writeFileAtomic(dest, newProgressReader(body, size, progress), size)
}

func validName(s string) bool {
	base := filepath.Base(s)
	return s != "" && base != "." && base != ".." && base != string(filepath.Separator)
}

// writeFileAtomic writes r to dest through a temp file in the same directory
// and renames it into place once the size checks out.
func writeFileAtomic(dest string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
