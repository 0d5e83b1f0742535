package models

import "time"

// Repository is a registered local checkout.
type Repository struct {
	ID           int64     `json:"id" yaml:"id"`
	LocalPath    string    `json:"local_path" yaml:"local_path"`
	Name         string    `json:"name" yaml:"name"`
	RemoteURL    string    `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	LastAccessed time.Time `json:"last_accessed" yaml:"last_accessed"`
}
