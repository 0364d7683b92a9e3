// Package core defines the blob storage abstraction shared by the storage
// drivers.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem reads a VIVO file-storage tree on local disk.
	DriverFilesystem Driver = "fs"
	// DriverS3 represents an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory represents an in-memory implementation used in tests.
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
}

// Info describes a stored blob.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store is the subset of object storage the graph builder needs. A run
// only calls Head; Put seeds test stores and fixture trees.
type Store interface {
	// Put stores a new blob at key. It fails if the key already exists.
	// The graph build never writes.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Head returns metadata only. A missing key yields an error matching
	// ErrNotFound.
	Head(ctx context.Context, key string) (Info, error)
	Driver() Driver
}

// ErrNotFound is matched by errors returned for missing keys.
var ErrNotFound = errors.New("blobstore: not found")

// ErrExists is matched by errors returned when Put targets an existing key.
var ErrExists = errors.New("blobstore: already exists")
