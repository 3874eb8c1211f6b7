// Package store caches parse results so the same document, chunked and
// extracted the same way, is only sent to the model once.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/cvparse/internal/chunker"
	"github.com/dgallion1/cvparse/internal/document"
	"github.com/dgallion1/cvparse/internal/extract"
)

// ErrNotFound is returned by Get and Delete for unknown keys.
var ErrNotFound = errors.New("result not found")

// Entry is one cached parse result.
type Entry struct {
	Key         string         `json:"key"`
	ContentHash string         `json:"content_hash"`
	Title       string         `json:"title"`
	Model       string         `json:"model"`
	Mode        string         `json:"mode"`
	Chunking    chunker.Config `json:"chunking"`
	ChunkCount  int            `json:"chunk_count"`
	Result      extract.Result `json:"result"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Store persists entries by key.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key derives the cache key for a document processed with the given
// chunking, mode and model. Any change to those yields a different key.
func Key(contentHash string, cfg chunker.Config, mode, model string) string {
	raw := fmt.Sprintf("%s|%d|%d|%s|%s", contentHash, cfg.ChunkSize, cfg.ChunkOverlap, mode, model)
	return document.HashHex([]byte(raw))
}
