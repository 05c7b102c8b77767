package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rohmanhakim/aoc-fetch/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	fullDir := filepath.Join(targetPath...)
	if err := os.MkdirAll(fullDir, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      fullDir,
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file in the destination directory
// and renames it over path. Readers observe either the old or the new content,
// never a partial write. The parent directory must exist.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) failure.ClassifiedError {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &FileError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      path,
		}
	}
	tmpName := tmp.Name()

	// the temp file is removed on every failure path; after a successful
	// rename the name no longer exists and Remove is a no-op
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return classifyWriteError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return classifyWriteError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return classifyWriteError(path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return classifyWriteError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return classifyWriteError(path, err)
	}
	return nil
}

// ReadFileIfExists returns the file content, or ok=false when the file does
// not exist or cannot be read.
func ReadFileIfExists(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func classifyWriteError(path string, err error) *FileError {
	// disk full is retryable once space is freed
	if errors.Is(err, syscall.ENOSPC) {
		return &FileError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseDiskFull,
			Path:      path,
		}
	}
	return &FileError{
		Message:   err.Error(),
		Retryable: false,
		Cause:     ErrCauseWriteFailure,
		Path:      path,
	}
}
