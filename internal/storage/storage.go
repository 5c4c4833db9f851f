package storage

import (
	"context"
	"io"
)

type PutInput struct {
	// Key is the caller-chosen object key, e.g. "receipts/2026/08/<id>.json".
	Key         string
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

// Storage is the firm's document archive: settlement receipts today,
// case documents tomorrow.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}
