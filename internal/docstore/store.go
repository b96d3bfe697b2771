// Package docstore keeps claim supporting documents encrypted at rest.
//
// Each document is written to the uploads directory under a random opaque
// name of the form <32 lowercase hex chars>.bin. The file starts with a
// 16-byte random IV followed by the AES-256-CBC ciphertext of the upload,
// padded with PKCS#7. The store holds no index: the mapping from stored name
// to document metadata lives in the claim_documents table.
//
// The format carries no authentication tag. Corrupted files are usually
// rejected by the padding check but may occasionally decrypt to garbage.
package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/cryptox"
	"github.com/dmitrijs2005/cmcs/internal/filex"
	"github.com/dmitrijs2005/cmcs/internal/shared"
)

const (
	// KeySize is the required key length (AES-256).
	KeySize = cryptox.KeySize

	storedNameBytes  = 16
	storedNameSuffix = ".bin"
)

// StoredNamePattern matches every name produced by EncryptAndSave.
var StoredNamePattern = regexp.MustCompile(`^[0-9a-f]{32}\.bin$`)

// StoredFile describes one ciphertext file in the uploads directory.
type StoredFile struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store encrypts, persists and decrypts documents. It is safe for
// concurrent use: the key is never mutated after construction and every
// operation only touches its own file.
type Store struct {
	key        []byte
	uploadsDir string
}

// New returns a Store that decrypts from uploadsDir with key. The key is
// copied, so the caller may wipe its slice afterwards. The uploads
// directory is created if missing.
func New(key []byte, uploadsDir string) (*Store, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(key))
	}
	if uploadsDir == "" {
		return nil, ErrInvalidUploadsDir
	}

	dir, err := filex.EnsureDir(uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return &Store{key: bytes.Clone(key), uploadsDir: dir}, nil
}

// UploadsDir returns the absolute path of the directory Decrypt reads from.
func (s *Store) UploadsDir() string {
	return s.uploadsDir
}

// IsAllowedExtension is the store-bound form of the package function.
func (s *Store) IsAllowedExtension(fileName string) bool {
	return IsAllowedExtension(fileName)
}

// IsAllowedSize is the store-bound form of the package function.
func (s *Store) IsAllowedSize(size int64) bool {
	return IsAllowedSize(size)
}

// NewStoredName returns a fresh random stored name.
func NewStoredName() (string, error) {
	h, err := shared.MakeRandHexString(storedNameBytes)
	if err != nil {
		return "", err
	}
	return h + storedNameSuffix, nil
}

// EncryptAndSave encrypts everything read from plain into a new file under
// targetDir and returns the file's stored name (not its path).
//
// Extension and size policy is the caller's job; the stream is consumed
// to the end. The last argument takes the name the user supplied; it never
// influences the stored name. If anything fails,
// including cancellation of ctx, the partial file is removed before the
// error is returned.
func (s *Store) EncryptAndSave(ctx context.Context, plain io.Reader, targetDir, _ string) (name string, err error) {
	dir, err := filex.EnsureDir(targetDir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	iv, err := shared.RandBytes(cryptox.IVSize)
	if err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	name, err = NewStoredName()
	if err != nil {
		return "", fmt.Errorf("generate stored name: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			name = ""
		}
	}()

	if _, err = f.Write(iv); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	w, err := cryptox.NewCBCWriter(f, s.key, iv)
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(w, contextReader{ctx: ctx, r: plain}); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err = w.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err = f.Sync(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return name, nil
}

// Decrypt decrypts the stored file into memory and returns a reader
// positioned at offset 0.
func (s *Store) Decrypt(ctx context.Context, storedName string) (*bytes.Reader, error) {
	var buf bytes.Buffer
	if err := s.decryptInto(ctx, storedName, &buf); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// DecryptTo decrypts the stored file into targetPath. The plaintext is
// written to a temporary file next to targetPath and renamed into place
// only after decryption succeeded, so an existing file at targetPath is
// left untouched on failure.
func (s *Store) DecryptTo(ctx context.Context, storedName, targetPath string) error {
	src, r, err := s.openPlain(ctx, storedName)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := filex.WriteFileAtomic(targetPath, r); err != nil {
		return copyError(ctx, err)
	}
	return nil
}

func (s *Store) decryptInto(ctx context.Context, storedName string, dst io.Writer) error {
	src, r, err := s.openPlain(ctx, storedName)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return copyError(ctx, err)
	}
	return nil
}

// openPlain opens the ciphertext, consumes its IV and returns a reader of
// the plaintext. The caller closes the returned file.
func (s *Store) openPlain(ctx context.Context, storedName string) (*os.File, io.Reader, error) {
	if err := s.checkName(storedName); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.uploadsDir, storedName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	iv := make([]byte, cryptox.IVSize)
	if _, err := io.ReadFull(f, iv); err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, fmt.Errorf("%w: file shorter than iv", ErrDecrypt)
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	r, err := cryptox.NewCBCReader(f, s.key, iv)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}

	return f, contextReader{ctx: ctx, r: r}, nil
}

func copyError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, cryptox.ErrInvalidPadding), errors.Is(err, cryptox.ErrInvalidCiphertext):
		return fmt.Errorf("%w: %w", ErrDecrypt, err)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
}

// Remove deletes the ciphertext for storedName from the uploads directory.
func (s *Store) Remove(storedName string) error {
	if err := s.checkName(storedName); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.uploadsDir, storedName)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// Import places an already encrypted file (IV prefix plus ciphertext) into
// the uploads directory under storedName. The write is atomic; an existing
// file with the same name is replaced.
func (s *Store) Import(storedName string, ciphertext io.Reader) error {
	if err := s.checkName(storedName); err != nil {
		return err
	}

	if err := filex.WriteFileAtomic(filepath.Join(s.uploadsDir, storedName), ciphertext); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// Open returns the raw ciphertext file for storedName, for mirroring to
// external storage. The caller closes it.
func (s *Store) Open(storedName string) (*os.File, error) {
	if err := s.checkName(storedName); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.uploadsDir, storedName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return f, nil
}

// List returns the stored files in the uploads directory. Entries whose
// names do not match StoredNamePattern (temporary files, strays) are
// skipped.
func (s *Store) List() ([]StoredFile, error) {
	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	var result []StoredFile
	for _, e := range entries {
		if e.IsDir() || !StoredNamePattern.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		result = append(result, StoredFile{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return result, nil
}

func (s *Store) checkName(storedName string) error {
	if !StoredNamePattern.MatchString(storedName) {
		return ErrInvalidStoredName
	}
	return nil
}

// contextReader stops a copy loop once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
