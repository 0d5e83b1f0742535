package code_analyzer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/meysamhadeli/gitai/code_analyzer/models"
	"github.com/zeebo/xxh3"
	bolt "go.etcd.io/bbolt"
)

const cacheFileName = "gitai-cache.db"

// Bucket keys
var (
	bucketContents = []byte("contents")
	bucketOutlines = []byte("outlines")
)

// CacheManager keeps file contents and outlines in a bbolt database,
// invalidated by file size and modification time.
type CacheManager struct {
	db       *bolt.DB
	cacheDir string
	lookups  *lookupCounter
}

// NewCacheManager opens (or creates) the cache database inside cacheDir.
// If cacheDir is empty, it defaults to ".cache" in the current working directory.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".cache")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(cacheDir, cacheFileName), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketContents, bucketOutlines} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache buckets: %w", err)
	}

	return &CacheManager{
		db:       db,
		cacheDir: cacheDir,
		lookups:  newLookupCounter(),
	}, nil
}

// Close closes the underlying database.
func (cm *CacheManager) Close() error {
	return cm.db.Close()
}

// generateCacheKey creates a unique cache key for a file
func generateCacheKey(filePath string) []byte {
	if abs, err := filepath.Abs(filePath); err == nil {
		filePath = abs
	}
	return []byte(strconv.FormatUint(xxh3.HashString(filePath), 16))
}

// isFileChanged checks if a file has been modified since last cache
func isFileChanged(filePath string, entry *models.CacheEntry) bool {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return true
	}
	return !fileInfo.ModTime().Equal(entry.ModTime) || fileInfo.Size() != entry.FileSize
}

func (cm *CacheManager) get(bucket []byte, filePath string) (*models.CacheEntry, bool) {
	var raw []byte
	_ = cm.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get(generateCacheKey(filePath)); v != nil {
			// bbolt slices are only valid within tx
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})

	if raw == nil {
		cm.recordLookup(false)
		return nil, false
	}

	var entry models.CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&entry); err != nil {
		cm.recordLookup(false)
		return nil, false
	}

	if isFileChanged(filePath, &entry) {
		_ = cm.delete(bucket, filePath)
		cm.recordLookup(false)
		return nil, false
	}

	cm.recordLookup(true)
	return &entry, true
}

func (cm *CacheManager) set(bucket []byte, filePath string, entry *models.CacheEntry) error {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	entry.FileSize = fileInfo.Size()
	entry.ModTime = fileInfo.ModTime()
	entry.Timestamp = time.Now()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return cm.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(generateCacheKey(filePath), buf.Bytes())
	})
}

func (cm *CacheManager) delete(bucket []byte, filePath string) error {
	return cm.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(generateCacheKey(filePath))
	})
}

// GetFileContentCache returns the cached content of filePath if it is still current.
func (cm *CacheManager) GetFileContentCache(filePath string) ([]byte, bool) {
	entry, ok := cm.get(bucketContents, filePath)
	if !ok {
		return nil, false
	}
	return entry.Content, true
}

// SetFileContentCache stores content for filePath.
func (cm *CacheManager) SetFileContentCache(filePath string, content []byte) error {
	return cm.set(bucketContents, filePath, &models.CacheEntry{
		Content: content,
		Hash:    xxh3.Hash(content),
	})
}

// GetOutlineCache returns cached tree-sitter outline elements for filePath.
func (cm *CacheManager) GetOutlineCache(filePath string) ([]string, bool) {
	entry, ok := cm.get(bucketOutlines, filePath)
	if !ok {
		return nil, false
	}
	return entry.Outline, true
}

// SetOutlineCache stores outline elements for filePath.
func (cm *CacheManager) SetOutlineCache(filePath string, outline []string) error {
	return cm.set(bucketOutlines, filePath, &models.CacheEntry{Outline: outline})
}

// CacheReport describes the cache database and its lookups.
type CacheReport struct {
	Dir       string      `json:"dir" yaml:"dir"`
	Entries   int         `json:"entries" yaml:"entries"`
	SizeBytes int64       `json:"size_bytes" yaml:"size_bytes"`
	Lookups   LookupStats `json:"lookups" yaml:"lookups"`
}

func (cm *CacheManager) GetCacheStats() (*CacheReport, error) {
	entries := 0
	err := cm.db.View(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketContents, bucketOutlines} {
			entries += tx.Bucket(name).Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}

	report := &CacheReport{
		Dir:     cm.cacheDir,
		Entries: entries,
		Lookups: cm.LookupStats(),
	}
	if info, err := os.Stat(filepath.Join(cm.cacheDir, cacheFileName)); err == nil {
		report.SizeBytes = info.Size()
	}
	return report, nil
}

// CleanExpiredCache removes entries older than maxAge.
func (cm *CacheManager) CleanExpiredCache(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := cm.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketContents, bucketOutlines} {
			b := tx.Bucket(name)
			var expired [][]byte
			err := b.ForEach(func(k, v []byte) error {
				var entry models.CacheEntry
				if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&entry); err != nil || entry.Timestamp.Before(cutoff) {
					expired = append(expired, append([]byte(nil), k...))
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, k := range expired {
				if err := b.Delete(k); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clean cache: %w", err)
	}

	return removed, nil
}

// ClearCache drops every cached entry and resets statistics.
func (cm *CacheManager) ClearCache() error {
	err := cm.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketContents, bucketOutlines} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	cm.ResetLookupStats()
	return nil
}
