package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rohmanhakim/aoc-fetch/pkg/fileutil"
	"github.com/rohmanhakim/aoc-fetch/pkg/hashutil"
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
	"github.com/rohmanhakim/aoc-fetch/pkg/timeutil"
)

const (
	// DirName is the subdirectory created under the configured store directory.
	DirName = "aoc-fetch"

	indexFileName    = "index.json"
	throttleFileName = "throttle_timestamp"
	entryExt         = ".txt"
	indexVersion     = 1
)

/*
Layout under <dir>/aoc-fetch:

	input/2023/1.txt      one file per cached resource, named by key
	page/2023/1/2.txt
	index.json            key -> checksum of the entry file
	throttle_timestamp    seconds since the Unix epoch, as a decimal

Every file is replaced atomically. An entry only loads when its file
matches the checksum recorded in the index, so a torn or foreign file
reads as a miss rather than as wrong data.
*/
type FileStore struct {
	mu       sync.Mutex
	root     string
	hashAlgo hashutil.HashAlgo
}

type FileStoreOption func(*FileStore)

// WithChecksumAlgo selects the algorithm used for entry checksums.
func WithChecksumAlgo(algo hashutil.HashAlgo) FileStoreOption {
	return func(s *FileStore) {
		s.hashAlgo = algo
	}
}

type index struct {
	Version int               `json:"version"`
	Algo    hashutil.HashAlgo `json:"algo"`
	Entries map[string]string `json:"entries"`
}

// NewFileStore creates <dir>/aoc-fetch if needed. It fails when the
// directory cannot be created, listed or written to.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, &StoreError{
			Message:   "store directory is empty",
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}

	s := &FileStore{
		root:     filepath.Join(dir, DirName),
		hashAlgo: hashutil.HashAlgoBLAKE3,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := hashutil.ParseHashAlgo(string(s.hashAlgo)); err != nil {
		return nil, &StoreError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashFailure,
		}
	}

	if err := fileutil.EnsureDir(s.root); err != nil {
		return nil, fromFileError(err, s.root)
	}
	if err := checkAccess(s.root); err != nil {
		return nil, err
	}
	return s, nil
}

// checkAccess lists root and creates then removes a file in it. Loads fail
// open, so an unusable directory would otherwise only surface at flush time.
func checkAccess(root string) error {
	if _, err := os.ReadDir(root); err != nil {
		return &StoreError{
			Message:   fmt.Sprintf("store directory is not readable: %s", err.Error()),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      root,
		}
	}
	tmp, err := os.CreateTemp(root, ".access-*")
	if err != nil {
		return &StoreError{
			Message:   fmt.Sprintf("store directory is not writable: %s", err.Error()),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      root,
		}
	}
	tmp.Close()
	os.Remove(tmp.Name())
	return nil
}

// Root returns the directory holding the store files.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) LoadCache() CacheSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.readIndex()
	if !ok {
		return nil
	}

	snapshot := make(CacheSnapshot, len(idx.Entries))
	for rawKey, checksum := range idx.Entries {
		key, err := puzzle.ParseKey(rawKey)
		if err != nil {
			continue
		}
		data, ok := fileutil.ReadFileIfExists(s.entryPath(key))
		if !ok {
			continue
		}
		if !hashutil.Verify(data, idx.Algo, checksum) {
			continue
		}
		snapshot[key] = string(data)
	}
	return snapshot
}

// SaveCache writes every entry of snapshot and merges it into the stored
// index. Entries already stored under other keys are kept. A failed entry
// does not stop the others; all failures are joined into the result.
func (s *FileStore) SaveCache(snapshot CacheSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make(map[string]string)
	if idx, ok := s.readIndex(); ok && idx.Algo == s.hashAlgo {
		for k, v := range idx.Entries {
			entries[k] = v
		}
	}

	var errs []error
	changed := false
	for key, body := range snapshot {
		checksum, err := hashutil.HashBytes([]byte(body), s.hashAlgo)
		if err != nil {
			errs = append(errs, &StoreError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseHashFailure,
			})
			continue
		}
		if entries[key.String()] == checksum && s.entryIntact(key, checksum) {
			continue
		}

		path := s.entryPath(key)
		if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
			errs = append(errs, fromFileError(err, path))
			continue
		}
		if err := fileutil.WriteFileAtomic(path, []byte(body), 0644); err != nil {
			errs = append(errs, fromFileError(err, path))
			continue
		}
		entries[key.String()] = checksum
		changed = true
	}

	if changed {
		if err := s.writeIndex(entries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *FileStore) LoadThrottle() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readThrottle()
}

// SaveThrottle keeps the later of the stored and the given timestamp, so
// instances sharing the directory never move it backwards.
func (s *FileStore) SaveThrottle(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.readThrottle(); ok && !t.After(stored) {
		return nil
	}

	path := filepath.Join(s.root, throttleFileName)
	value := timeutil.FormatUnixSeconds(t)
	if err := fileutil.WriteFileAtomic(path, []byte(value), 0644); err != nil {
		return fromFileError(err, path)
	}
	return nil
}

func (s *FileStore) entryPath(key puzzle.Key) string {
	return filepath.Join(s.root, filepath.FromSlash(key.String())+entryExt)
}

func (s *FileStore) entryIntact(key puzzle.Key, checksum string) bool {
	data, ok := fileutil.ReadFileIfExists(s.entryPath(key))
	return ok && hashutil.Verify(data, s.hashAlgo, checksum)
}

func (s *FileStore) readIndex() (index, bool) {
	data, ok := fileutil.ReadFileIfExists(filepath.Join(s.root, indexFileName))
	if !ok {
		return index{}, false
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return index{}, false
	}
	if idx.Version != indexVersion || idx.Entries == nil {
		return index{}, false
	}
	return idx, true
}

func (s *FileStore) writeIndex(entries map[string]string) error {
	path := filepath.Join(s.root, indexFileName)
	data, err := json.MarshalIndent(index{
		Version: indexVersion,
		Algo:    s.hashAlgo,
		Entries: entries,
	}, "", "  ")
	if err != nil {
		return &StoreError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Path:      path,
		}
	}
	if err := fileutil.WriteFileAtomic(path, data, 0644); err != nil {
		return fromFileError(err, path)
	}
	return nil
}

func (s *FileStore) readThrottle() (time.Time, bool) {
	data, ok := fileutil.ReadFileIfExists(filepath.Join(s.root, throttleFileName))
	if !ok {
		return time.Time{}, false
	}
	return timeutil.ParseUnixSeconds(string(data))
}

func fromFileError(err error, path string) *StoreError {
	var fileErr *fileutil.FileError
	if errors.As(err, &fileErr) {
		cause := ErrCauseWriteFailure
		switch fileErr.Cause {
		case fileutil.ErrCauseDiskFull:
			cause = ErrCauseDiskFull
		case fileutil.ErrCausePathError:
			cause = ErrCausePathError
		}
		return &StoreError{
			Message:   fileErr.Message,
			Retryable: fileErr.Retryable,
			Cause:     cause,
			Path:      path,
		}
	}
	return &StoreError{
		Message:   fmt.Sprintf("%v", err),
		Retryable: false,
		Cause:     ErrCauseWriteFailure,
		Path:      path,
	}
}
