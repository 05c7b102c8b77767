package store_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rohmanhakim/aoc-fetch/pkg/hashutil"
	"github.com/rohmanhakim/aoc-fetch/pkg/puzzle"
	"github.com/rohmanhakim/aoc-fetch/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T, dir string) *store.FileStore {
	t.Helper()
	s, err := store.NewFileStore(dir)
	require.NoError(t, err)
	return s
}

func TestFileStore_EmptyDirectoryLoadsNothing(t *testing.T) {
	s := newFileStore(t, t.TempDir())

	assert.Nil(t, s.LoadCache())
	_, ok := s.LoadThrottle()
	assert.False(t, ok)
}

func TestFileStore_CacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)

	snapshot := store.CacheSnapshot{
		puzzle.InputKey(2023, 1):   "1abc2\npqr3stu8vwx\n",
		puzzle.InputKey(2023, 2):   "Game 1: 3 blue\n",
		puzzle.PageKey(2022, 5, 2): "<article></article>",
	}
	require.NoError(t, s.SaveCache(snapshot))

	// a fresh instance over the same directory sees the same state
	reopened := newFileStore(t, dir)
	assert.Equal(t, snapshot, reopened.LoadCache())

	_, err := os.Stat(filepath.Join(dir, store.DirName, "input", "2023", "1.txt"))
	assert.NoError(t, err)
}

func TestFileStore_SaveCacheMerges(t *testing.T) {
	dir := t.TempDir()
	a := newFileStore(t, dir)
	b := newFileStore(t, dir)

	require.NoError(t, a.SaveCache(store.CacheSnapshot{puzzle.InputKey(2023, 1): "one"}))
	require.NoError(t, b.SaveCache(store.CacheSnapshot{puzzle.InputKey(2023, 2): "two"}))

	got := newFileStore(t, dir).LoadCache()
	assert.Equal(t, store.CacheSnapshot{
		puzzle.InputKey(2023, 1): "one",
		puzzle.InputKey(2023, 2): "two",
	}, got)
}

func TestFileStore_SaveCacheOverwrites(t *testing.T) {
	s := newFileStore(t, t.TempDir())
	key := puzzle.InputKey(2023, 1)

	require.NoError(t, s.SaveCache(store.CacheSnapshot{key: "old"}))
	require.NoError(t, s.SaveCache(store.CacheSnapshot{key: "new"}))

	assert.Equal(t, "new", s.LoadCache()[key])
}

func TestFileStore_TamperedEntryIsSkipped(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)
	require.NoError(t, s.SaveCache(store.CacheSnapshot{
		puzzle.InputKey(2023, 1): "good",
		puzzle.InputKey(2023, 2): "also good",
	}))

	tampered := filepath.Join(dir, store.DirName, "input", "2023", "2.txt")
	require.NoError(t, os.WriteFile(tampered, []byte("partial"), 0644))

	got := s.LoadCache()
	assert.Equal(t, store.CacheSnapshot{puzzle.InputKey(2023, 1): "good"}, got)
}

func TestFileStore_MissingEntryFileIsSkippedAndRewritten(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)
	key := puzzle.InputKey(2023, 1)
	require.NoError(t, s.SaveCache(store.CacheSnapshot{key: "body"}))

	entry := filepath.Join(dir, store.DirName, "input", "2023", "1.txt")
	require.NoError(t, os.Remove(entry))
	assert.Empty(t, s.LoadCache())

	// saving the same content restores the file even though the index
	// already lists the checksum
	require.NoError(t, s.SaveCache(store.CacheSnapshot{key: "body"}))
	assert.Equal(t, "body", s.LoadCache()[key])
}

func TestFileStore_CorruptIndexFailsOpen(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{{{"},
		{name: "truncated", content: `{"version":1,"algo":"blake3","entr`},
		{name: "unknown version", content: `{"version":99,"algo":"blake3","entries":{}}`},
		{name: "empty", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			s := newFileStore(t, dir)
			require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "index.json"), []byte(tt.content), 0644))

			assert.Nil(t, s.LoadCache())
		})
	}
}

func TestFileStore_UnparseableKeyIsSkipped(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)
	require.NoError(t, s.SaveCache(store.CacheSnapshot{puzzle.InputKey(2023, 1): "body"}))

	indexPath := filepath.Join(s.Root(), "index.json")
	raw, err := os.ReadFile(indexPath)
	require.NoError(t, err)

	var idx map[string]any
	require.NoError(t, json.Unmarshal(raw, &idx))
	idx["entries"].(map[string]any)["bogus"] = "00"
	raw, err = json.Marshal(idx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(indexPath, raw, 0644))

	assert.Equal(t, store.CacheSnapshot{puzzle.InputKey(2023, 1): "body"}, s.LoadCache())
}

func TestFileStore_ChecksumAlgo(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewFileStore(dir, store.WithChecksumAlgo(hashutil.HashAlgoSHA256))
	require.NoError(t, err)
	require.NoError(t, s.SaveCache(store.CacheSnapshot{puzzle.InputKey(2023, 1): "body"}))

	raw, err := os.ReadFile(filepath.Join(s.Root(), "index.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"algo": "sha256"`)

	// a store configured with another algorithm still verifies existing entries
	other := newFileStore(t, dir)
	assert.Equal(t, "body", other.LoadCache()[puzzle.InputKey(2023, 1)])
}

func TestFileStore_UnsupportedChecksumAlgo(t *testing.T) {
	_, err := store.NewFileStore(t.TempDir(), store.WithChecksumAlgo("md5"))

	var storeErr *store.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, store.ErrCauseHashFailure, storeErr.Cause)
}

func TestFileStore_ThrottleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)
	ts := time.Date(2023, 12, 1, 5, 0, 0, 250000000, time.UTC)

	require.NoError(t, s.SaveThrottle(ts))

	got, ok := newFileStore(t, dir).LoadThrottle()
	require.True(t, ok)
	assert.WithinDuration(t, ts, got, time.Microsecond)

	raw, err := os.ReadFile(filepath.Join(s.Root(), "throttle_timestamp"))
	require.NoError(t, err)
	assert.Equal(t, "1701406800.25", string(raw))
}

func TestFileStore_ThrottleKeepsNanoseconds(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(1700000000, 123456400)

	require.NoError(t, newFileStore(t, dir).SaveThrottle(ts))

	got, ok := newFileStore(t, dir).LoadThrottle()
	require.True(t, ok)
	assert.False(t, got.Before(ts), "reloaded %v is earlier than saved %v", got, ts)
	assert.True(t, got.Equal(ts))
}

func TestFileStore_ThrottleNeverMovesBackwards(t *testing.T) {
	s := newFileStore(t, t.TempDir())
	later := time.Date(2023, 12, 1, 5, 3, 0, 0, time.UTC)
	earlier := later.Add(-time.Minute)

	require.NoError(t, s.SaveThrottle(later))
	require.NoError(t, s.SaveThrottle(earlier))

	got, ok := s.LoadThrottle()
	require.True(t, ok)
	assert.True(t, got.Equal(later))
}

func TestFileStore_CorruptThrottleFailsOpen(t *testing.T) {
	s := newFileStore(t, t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "throttle_timestamp"), []byte("yesterday"), 0644))

	_, ok := s.LoadThrottle()
	assert.False(t, ok)

	// a valid save replaces the corrupt file
	now := time.Now()
	require.NoError(t, s.SaveThrottle(now))
	got, ok := s.LoadThrottle()
	require.True(t, ok)
	assert.WithinDuration(t, now, got, time.Microsecond)
}

func TestFileStore_UnusableDirectory(t *testing.T) {
	base := t.TempDir()
	occupied := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(occupied, []byte("x"), 0644))

	_, err := store.NewFileStore(occupied)

	var storeErr *store.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, store.ErrCausePathError, storeErr.Cause)

	_, err = store.NewFileStore("")
	assert.Error(t, err)
}

func TestFileStore_InaccessibleDirectory(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	tests := []struct {
		name string
		mode os.FileMode
	}{
		{"read only", 0500},
		{"no access", 0000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			root := filepath.Join(dir, store.DirName)
			require.NoError(t, os.Mkdir(root, 0755))
			require.NoError(t, os.Chmod(root, tt.mode))
			t.Cleanup(func() { os.Chmod(root, 0755) })

			_, err := store.NewFileStore(dir)

			var storeErr *store.StoreError
			require.True(t, errors.As(err, &storeErr), "got %v", err)
			assert.Equal(t, store.ErrCausePathError, storeErr.Cause)
			assert.Equal(t, root, storeErr.Path)
		})
	}
}

func TestFileStore_AccessCheckLeavesNoFiles(t *testing.T) {
	s := newFileStore(t, t.TempDir())

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStore_ConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	s := newFileStore(t, dir)

	var wg sync.WaitGroup
	for day := 1; day <= 10; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			assert.NoError(t, s.SaveCache(store.CacheSnapshot{puzzle.InputKey(2023, day): "body"}))
		}(day)
	}
	wg.Wait()

	assert.Len(t, s.LoadCache(), 10)
}
