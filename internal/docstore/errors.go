package docstore

import "errors"

var (
	// ErrInvalidKey indicates the store was constructed with a key that is
	// not exactly KeySize bytes.
	ErrInvalidKey = errors.New("docstore: encryption key must be 32 bytes")

	// ErrInvalidUploadsDir indicates an empty uploads root.
	ErrInvalidUploadsDir = errors.New("docstore: uploads directory is required")

	// ErrNotFound indicates no ciphertext file exists for a stored name.
	ErrNotFound = errors.New("docstore: stored document not found")

	// ErrDecrypt indicates the ciphertext could not be decrypted: bad
	// padding, truncation, or a wrong key/IV.
	ErrDecrypt = errors.New("docstore: document could not be decrypted")

	// ErrIOFailure indicates a filesystem read or write error.
	ErrIOFailure = errors.New("docstore: I/O failure")

	// ErrInvalidStoredName indicates a stored name that was not produced by
	// the store (see StoredNamePattern).
	ErrInvalidStoredName = errors.New("docstore: invalid stored file name")
)
