package documents

import (
	"context"

	"github.com/dmitrijs2005/cmcs/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, doc *models.ClaimDocument) (*models.ClaimDocument, error)
	GetByID(ctx context.Context, claimID, docID string) (*models.ClaimDocument, error)
	ListByClaim(ctx context.Context, claimID string) ([]*models.ClaimDocument, error)
	Delete(ctx context.Context, claimID, docID string) error
	ListStoredNames(ctx context.Context) (map[string]struct{}, error)
}
