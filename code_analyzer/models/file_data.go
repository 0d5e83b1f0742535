package models

import "time"

// CacheEntry is the gob-encoded value stored for one file.
// ModTime and FileSize are compared with the file on disk before a hit is served.
type CacheEntry struct {
	Content   []byte
	Outline   []string
	FileSize  int64
	ModTime   time.Time
	Hash      uint64
	Timestamp time.Time
}

// FileOutline lists the declarations found in one file, e.g. "class: Settings".
type FileOutline struct {
	RelativePath string
	Language     string
	Elements     []string
}
