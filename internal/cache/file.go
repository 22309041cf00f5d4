package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheDirPerm  = 0o750
	cacheFilePerm = 0o600
)

// Keys at least this long are fanned out into two directory levels.
const minKeyLengthForSubdir = 4

// FileCache implements Cache on disk, one JSON document per key.
type FileCache struct {
	baseDir string
}

type fileEntry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileCache creates baseDir if needed and returns a cache rooted there.
func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, cacheDirPerm); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileCache{baseDir: baseDir}, nil
}

// Get retrieves a value from the cache. Expired entries are removed.
func (f *FileCache) Get(_ context.Context, key string) ([]byte, bool) {
	path := f.keyToPath(key)

	entry, err := readEntry(path)
	if err != nil {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value in the cache with the given TTL. Failures are ignored;
// a cache write never fails a run.
func (f *FileCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	path := f.keyToPath(key)
	if err := os.MkdirAll(filepath.Dir(path), cacheDirPerm); err != nil {
		return
	}

	now := time.Now()
	data, err := json.Marshal(fileEntry{Value: value, ExpiresAt: now.Add(ttl), CreatedAt: now})
	if err != nil {
		return
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, cacheFilePerm); err != nil {
		return
	}
	_ = os.Rename(tempFile, path)
}

// Delete removes a value from the cache.
func (f *FileCache) Delete(_ context.Context, key string) {
	_ = os.Remove(f.keyToPath(key))
}

// Clear removes all values from the cache.
func (f *FileCache) Clear(_ context.Context) {
	_ = os.RemoveAll(f.baseDir)
	_ = os.MkdirAll(f.baseDir, cacheDirPerm)
}

func (f *FileCache) keyToPath(key string) string {
	safeKey := sanitizeKey(key)
	if len(safeKey) >= minKeyLengthForSubdir {
		return filepath.Join(f.baseDir, safeKey[:2], safeKey[2:4], safeKey+".json")
	}
	return filepath.Join(f.baseDir, safeKey+".json")
}

func sanitizeKey(key string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(key)
}

func readEntry(path string) (fileEntry, error) {
	var entry fileEntry
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return entry, err
	}
	err = json.Unmarshal(data, &entry)
	return entry, err
}

// Stats returns the number of entries, how many have expired, and their
// total size on disk.
func (f *FileCache) Stats() (total int, expired int, size int64) {
	now := time.Now()
	f.walkEntries(func(path string, info fs.FileInfo) {
		total++
		size += info.Size()
		entry, err := readEntry(path)
		if err == nil && now.After(entry.ExpiresAt) {
			expired++
		}
	})
	return total, expired, size
}

// Cleanup removes expired and unreadable entries.
func (f *FileCache) Cleanup() {
	now := time.Now()
	f.walkEntries(func(path string, _ fs.FileInfo) {
		entry, err := readEntry(path)
		if err != nil || now.After(entry.ExpiresAt) {
			_ = os.Remove(path)
		}
	})
}

func (f *FileCache) walkEntries(fn func(path string, info fs.FileInfo)) {
	_ = filepath.WalkDir(f.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fn(path, info)
		return nil
	})
}

var _ Cache = (*FileCache)(nil)
