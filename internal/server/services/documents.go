package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/docstore"
	"github.com/dmitrijs2005/cmcs/internal/logging"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/repomanager"
)

// DocumentService attaches encrypted supporting documents to claims.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       DocumentStore
	archive     Archive
	logger      logging.Logger
}

// NewDocumentService returns a DocumentService. archive may be nil.
func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, store DocumentStore, archive Archive, logger logging.Logger) *DocumentService {
	return &DocumentService{db: db, repomanager: m, store: store, archive: archive, logger: logger}
}

// cleanFileName keeps only the last path element of a client-supplied
// name. Browsers on Windows may send full paths with backslashes.
func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

func sizeRejection() error {
	return invalid("file", "file size must be greater than 0 and at most %d MB", docstore.MaxFileSize/(1024*1024))
}

// Upload validates the file, encrypts it into the uploads directory and
// records it against the claim. size is the size announced by the client;
// the number of bytes actually read is checked again.
func (s *DocumentService) Upload(ctx context.Context, p models.Principal, claimID, fileName string, size int64, r io.Reader) (*models.ClaimDocument, error) {
	name := cleanFileName(fileName)
	if name == "" {
		return nil, invalid("file", "a file name is required")
	}
	if utf8.RuneCountInString(name) > models.MaxOriginalFileNameLength {
		return nil, invalid("file", "file name must be at most %d characters", models.MaxOriginalFileNameLength)
	}
	if !docstore.IsAllowedExtension(name) {
		return nil, invalid("file", "file type %q is not allowed; allowed types: %s",
			strings.ToLower(filepath.Ext(name)), strings.Join(docstore.AllowedExtensions(), ", "))
	}
	if !docstore.IsAllowedSize(size) {
		return nil, sizeRejection()
	}
	if err := checkIDs(claimID); err != nil {
		return nil, err
	}

	claim, err := s.repomanager.Claims(s.db).GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := checkModify(p, claim); err != nil {
		return nil, err
	}

	counter := &countingReader{r: io.LimitReader(r, docstore.MaxFileSize+1)}
	storedName, err := s.store.EncryptAndSave(ctx, counter, s.store.UploadsDir(), name)
	if err != nil {
		return nil, fmt.Errorf("encrypt document: %w", err)
	}

	if !docstore.IsAllowedSize(counter.n) {
		s.discard(ctx, storedName)
		return nil, sizeRejection()
	}

	doc, err := s.repomanager.Documents(s.db).Create(ctx, &models.ClaimDocument{
		ClaimID:          claimID,
		OriginalFileName: name,
		StoredFileName:   storedName,
		SizeBytes:        counter.n,
	})
	if err != nil {
		s.discard(ctx, storedName)
		return nil, fmt.Errorf("error saving document: %w", err)
	}

	s.logger.Info(ctx, "document uploaded", "claim_id", claimID, "document_id", doc.ID, "size", doc.SizeBytes)

	if s.archive != nil {
		if err := s.mirror(ctx, storedName); err != nil {
			s.logger.Warn(ctx, "archive mirror failed", "document_id", doc.ID, "error", err)
		}
	}

	return doc, nil
}

func (s *DocumentService) discard(ctx context.Context, storedName string) {
	if err := s.store.Remove(storedName); err != nil {
		s.logger.Warn(ctx, "failed to remove rejected ciphertext", "stored_name", storedName, "error", err)
	}
}

func (s *DocumentService) mirror(ctx context.Context, storedName string) error {
	f, err := s.store.Open(storedName)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return s.archive.Put(ctx, storedName, f, info.Size())
}

// Download returns the document metadata and its decrypted content.
// When the local ciphertext is gone and an archive is configured, the blob
// is restored from the archive once.
func (s *DocumentService) Download(ctx context.Context, p models.Principal, claimID, docID string) (*models.ClaimDocument, *bytes.Reader, error) {
	if err := checkIDs(docID); err != nil {
		return nil, nil, err
	}
	if _, err := s.readableClaim(ctx, p, claimID); err != nil {
		return nil, nil, err
	}

	doc, err := s.repomanager.Documents(s.db).GetByID(ctx, claimID, docID)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.store.Decrypt(ctx, doc.StoredFileName)
	if errors.Is(err, docstore.ErrNotFound) && s.archive != nil {
		if rerr := s.restore(ctx, doc.StoredFileName); rerr != nil {
			s.logger.Warn(ctx, "archive restore failed", "document_id", doc.ID, "error", rerr)
		} else {
			s.logger.Info(ctx, "ciphertext restored from archive", "document_id", doc.ID)
			content, err = s.store.Decrypt(ctx, doc.StoredFileName)
		}
	}
	if err != nil {
		if errors.Is(err, docstore.ErrDecrypt) {
			s.logger.Error(ctx, "document failed to decrypt", "document_id", doc.ID, "error", err)
		}
		return nil, nil, fmt.Errorf("decrypt document %s: %w", doc.ID, err)
	}

	return doc, content, nil
}

func (s *DocumentService) restore(ctx context.Context, storedName string) error {
	rc, err := s.archive.Get(ctx, storedName)
	if err != nil {
		return err
	}
	defer rc.Close()

	return s.store.Import(storedName, rc)
}

// List returns the claim's documents if p may read the claim.
func (s *DocumentService) List(ctx context.Context, p models.Principal, claimID string) ([]*models.ClaimDocument, error) {
	if _, err := s.readableClaim(ctx, p, claimID); err != nil {
		return nil, err
	}
	return s.repomanager.Documents(s.db).ListByClaim(ctx, claimID)
}

// Delete removes a document from a pending claim owned by p, then its
// ciphertext.
func (s *DocumentService) Delete(ctx context.Context, p models.Principal, claimID, docID string) error {
	if err := checkIDs(claimID, docID); err != nil {
		return err
	}

	claim, err := s.repomanager.Claims(s.db).GetByID(ctx, claimID)
	if err != nil {
		return err
	}
	if err := checkModify(p, claim); err != nil {
		return err
	}

	docs := s.repomanager.Documents(s.db)
	doc, err := docs.GetByID(ctx, claimID, docID)
	if err != nil {
		return err
	}
	if err := docs.Delete(ctx, claimID, docID); err != nil {
		return err
	}

	removeBlob(ctx, s.logger, s.store, s.archive, doc.StoredFileName)
	s.logger.Info(ctx, "document deleted", "claim_id", claimID, "document_id", docID)
	return nil
}

func (s *DocumentService) readableClaim(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	if err := checkIDs(claimID); err != nil {
		return nil, err
	}
	claim, err := s.repomanager.Claims(s.db).GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !canRead(p, claim) {
		return nil, common.ErrorForbidden
	}
	return claim, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
