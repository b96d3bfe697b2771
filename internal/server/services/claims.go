package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/dbx"
	"github.com/dmitrijs2005/cmcs/internal/docstore"
	"github.com/dmitrijs2005/cmcs/internal/logging"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/repomanager"
)

type ClaimService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       DocumentStore
	archive     Archive
	logger      logging.Logger
	now         func() time.Time
}

// NewClaimService returns a ClaimService. archive may be nil.
func NewClaimService(db *sql.DB, m repomanager.RepositoryManager, store DocumentStore, archive Archive, logger logging.Logger) *ClaimService {
	return &ClaimService{db: db, repomanager: m, store: store, archive: archive, logger: logger, now: time.Now}
}

// CreateClaimInput is what a lecturer submits. The hourly rate is not part
// of it: claims use the rate HR set on the lecturer's profile.
type CreateClaimInput struct {
	Date        time.Time
	HoursWorked float64
	Notes       string
}

func (s *ClaimService) Create(ctx context.Context, p models.Principal, in CreateClaimInput) (*models.Claim, error) {
	if p.Role != models.RoleLecturer {
		return nil, common.ErrorForbidden
	}

	if in.Date.IsZero() {
		return nil, invalid("date", "date is required")
	}
	if in.HoursWorked < models.MinHoursWorked || in.HoursWorked > models.MaxHoursWorked {
		return nil, invalid("hours_worked", "hours worked must be between %v and %v", models.MinHoursWorked, models.MaxHoursWorked)
	}
	notes := strings.TrimSpace(in.Notes)
	if utf8.RuneCountInString(notes) > models.MaxNotesLength {
		return nil, invalid("notes", "notes must be at most %d characters", models.MaxNotesLength)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if user.HourlyRate < models.MinHourlyRate || user.HourlyRate > models.MaxHourlyRate {
		return nil, invalid("hourly_rate", "your hourly rate has not been set by HR")
	}

	claim := &models.Claim{
		LecturerID:   user.ID,
		LecturerName: user.Name,
		Date:         in.Date.UTC().Truncate(24 * time.Hour),
		HoursWorked:  in.HoursWorked,
		HourlyRate:   user.HourlyRate,
		Notes:        notes,
	}

	claim, err = s.repomanager.Claims(s.db).Create(ctx, claim)
	if err != nil {
		return nil, fmt.Errorf("error creating claim: %w", err)
	}

	s.logger.Info(ctx, "claim created", "claim_id", claim.ID, "lecturer_id", claim.LecturerID)
	return claim, nil
}

// Get returns the claim if p may read it.
func (s *ClaimService) Get(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
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

// ListMine returns the caller's own claims, newest first.
func (s *ClaimService) ListMine(ctx context.Context, p models.Principal) ([]*models.Claim, error) {
	return s.repomanager.Claims(s.db).ListByLecturer(ctx, p.UserID)
}

// Delete removes a pending claim owned by p together with its documents.
// Rows go in one transaction; the ciphertext files are removed after the
// commit, and failures there are left to the janitor.
func (s *ClaimService) Delete(ctx context.Context, p models.Principal, claimID string) error {
	if err := checkIDs(claimID); err != nil {
		return err
	}

	var docs []*models.ClaimDocument

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		claims := s.repomanager.Claims(tx)

		claim, err := claims.GetByID(ctx, claimID)
		if err != nil {
			return err
		}
		if err := checkModify(p, claim); err != nil {
			return err
		}

		docs, err = s.repomanager.Documents(tx).ListByClaim(ctx, claimID)
		if err != nil {
			return err
		}

		return claims.Delete(ctx, claimID)
	})
	if err != nil {
		return err
	}

	for _, d := range docs {
		removeBlob(ctx, s.logger, s.store, s.archive, d.StoredFileName)
	}

	s.logger.Info(ctx, "claim deleted", "claim_id", claimID, "documents", len(docs))
	return nil
}

// ListForReview returns the claims waiting at p's step of the approval
// workflow, oldest first.
func (s *ClaimService) ListForReview(ctx context.Context, p models.Principal) ([]*models.Claim, error) {
	status, ok := models.ReviewStatus(p.Role)
	if !ok {
		return nil, common.ErrorForbidden
	}
	return s.repomanager.Claims(s.db).ListByStatus(ctx, status)
}

// Verify is the coordinator's step: a pending claim that still passes the
// automated checks becomes VerifiedByCoordinator.
func (s *ClaimService) Verify(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	return s.review(ctx, p, claimID, models.RoleCoordinator, func(c *models.Claim, now time.Time) error {
		if err := checkVerifiable(c); err != nil {
			return err
		}
		c.Status = models.ClaimVerifiedByCoordinator
		c.VerifiedAt = &now
		return nil
	})
}

// Approve is the manager's step for verified claims. Totals above
// models.ManagerApprovalLimit are refused.
func (s *ClaimService) Approve(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	return s.review(ctx, p, claimID, models.RoleManager, func(c *models.Claim, now time.Time) error {
		if c.Total() > models.ManagerApprovalLimit {
			return invalid("total", "claims above R%d require additional approval", models.ManagerApprovalLimit)
		}
		c.Status = models.ClaimApprovedByManager
		c.ApprovedAt = &now
		return nil
	})
}

// Reject ends the workflow. Coordinators reject pending claims, managers
// verified ones.
func (s *ClaimService) Reject(ctx context.Context, p models.Principal, claimID string) (*models.Claim, error) {
	if p.Role != models.RoleCoordinator && p.Role != models.RoleManager {
		return nil, common.ErrorForbidden
	}
	return s.review(ctx, p, claimID, p.Role, func(c *models.Claim, _ time.Time) error {
		c.Status = models.ClaimRejected
		return nil
	})
}

// review loads the claim, checks that it sits at role's step, applies the
// transition and stores it only if nobody moved the claim in between.
func (s *ClaimService) review(ctx context.Context, p models.Principal, claimID string, role models.Role,
	apply func(c *models.Claim, now time.Time) error) (*models.Claim, error) {
	if p.Role != role {
		return nil, common.ErrorForbidden
	}
	from, _ := models.ReviewStatus(role)
	if err := checkIDs(claimID); err != nil {
		return nil, err
	}

	var claim *models.Claim
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		claims := s.repomanager.Claims(tx)

		c, err := claims.GetByID(ctx, claimID)
		if err != nil {
			return err
		}
		if c.Status != from {
			return common.ErrorClaimNotInReview
		}
		if err := apply(c, s.now().UTC()); err != nil {
			return err
		}
		if err := claims.UpdateStatus(ctx, c, from); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorClaimNotInReview
			}
			return err
		}
		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "claim reviewed", "claim_id", claim.ID, "status", claim.Status.String(), "reviewer_id", p.UserID)
	return claim, nil
}

// checkVerifiable repeats the creation limits, since rates and hours may
// predate them, and caps the total.
func checkVerifiable(c *models.Claim) error {
	if c.HoursWorked < models.MinHoursWorked || c.HoursWorked > models.MaxHoursWorked {
		return invalid("hours_worked", "hours worked must be between %v and %v", models.MinHoursWorked, models.MaxHoursWorked)
	}
	if c.HourlyRate < models.MinHourlyRate || c.HourlyRate > models.MaxHourlyRate {
		return invalid("hourly_rate", "hourly rate must be between R%d and R%d", models.MinHourlyRate, models.MaxHourlyRate)
	}
	if c.Total() > models.MaxClaimTotal {
		return invalid("total", "claim amount exceeds the maximum of R%d", models.MaxClaimTotal)
	}
	return nil
}

// removeBlob deletes the local ciphertext and its archived copy, logging
// what fails. A file that is already gone is fine.
func removeBlob(ctx context.Context, logger logging.Logger, store DocumentStore, archive Archive, storedName string) {
	if err := store.Remove(storedName); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		logger.Warn(ctx, "failed to remove ciphertext", "stored_name", storedName, "error", err)
	}
	if archive != nil {
		if err := archive.Delete(ctx, storedName); err != nil {
			logger.Warn(ctx, "failed to remove archived ciphertext", "stored_name", storedName, "error", err)
		}
	}
}
