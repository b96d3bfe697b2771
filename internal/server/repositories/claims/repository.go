package claims

import (
	"context"

	"github.com/dmitrijs2005/cmcs/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, claim *models.Claim) (*models.Claim, error)
	GetByID(ctx context.Context, id string) (*models.Claim, error)
	ListByLecturer(ctx context.Context, lecturerID string) ([]*models.Claim, error)
	ListByStatus(ctx context.Context, status models.ClaimStatus) ([]*models.Claim, error)
	UpdateStatus(ctx context.Context, claim *models.Claim, from models.ClaimStatus) error
	Delete(ctx context.Context, id string) error
}
