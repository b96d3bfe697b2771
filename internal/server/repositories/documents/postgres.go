package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/dbx"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository stores ClaimDocument metadata in claim_documents.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.ClaimDocument) (*models.ClaimDocument, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO claim_documents (id, claim_id, original_file_name, stored_file_name, size_bytes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING uploaded_at`

	err := r.db.QueryRowContext(ctx, query,
		doc.ID, doc.ClaimID, doc.OriginalFileName, doc.StoredFileName, doc.SizeBytes).Scan(&doc.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc, nil
}

// GetByID returns the document only if it belongs to claimID.
func (r *PostgresRepository) GetByID(ctx context.Context, claimID, docID string) (*models.ClaimDocument, error) {
	query :=
		`SELECT id, claim_id, original_file_name, stored_file_name, size_bytes, uploaded_at
		 FROM claim_documents
		 WHERE id = $1 AND claim_id = $2`

	doc := &models.ClaimDocument{}
	err := r.db.QueryRowContext(ctx, query, docID, claimID).Scan(
		&doc.ID, &doc.ClaimID, &doc.OriginalFileName, &doc.StoredFileName, &doc.SizeBytes, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

// ListByClaim returns the claim's documents in upload order.
func (r *PostgresRepository) ListByClaim(ctx context.Context, claimID string) ([]*models.ClaimDocument, error) {
	query :=
		`SELECT id, claim_id, original_file_name, stored_file_name, size_bytes, uploaded_at
		 FROM claim_documents
		 WHERE claim_id = $1
		 ORDER BY uploaded_at`

	rows, err := r.db.QueryContext(ctx, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ClaimDocument
	for rows.Next() {
		var d models.ClaimDocument
		if err := rows.Scan(&d.ID, &d.ClaimID, &d.OriginalFileName, &d.StoredFileName, &d.SizeBytes, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, claimID, docID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM claim_documents WHERE id = $1 AND claim_id = $2`, docID, claimID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// ListStoredNames returns every stored file name that has a metadata row.
func (r *PostgresRepository) ListStoredNames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT stored_file_name FROM claim_documents`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		names[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return names, nil
}
