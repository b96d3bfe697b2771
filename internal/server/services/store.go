package services

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/cmcs/internal/docstore"
)

// DocumentStore is the encrypted file store used by the services;
// *docstore.Store implements it.
type DocumentStore interface {
	UploadsDir() string
	EncryptAndSave(ctx context.Context, plain io.Reader, targetDir, originalName string) (string, error)
	Decrypt(ctx context.Context, storedName string) (*bytes.Reader, error)
	Remove(storedName string) error
	Import(storedName string, ciphertext io.Reader) error
	Open(storedName string) (*os.File, error)
	List() ([]docstore.StoredFile, error)
}

// Archive is an optional off-host copy of ciphertext blobs;
// *archive.S3Archive implements it.
type Archive interface {
	Put(ctx context.Context, storedName string, body io.Reader, size int64) error
	Get(ctx context.Context, storedName string) (io.ReadCloser, error)
	Delete(ctx context.Context, storedName string) error
}
