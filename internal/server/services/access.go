package services

import (
	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/google/uuid"
)

// checkIDs reports ids that cannot name a row as not found. Only the
// canonical 36-character form is accepted.
func checkIDs(ids ...string) error {
	for _, id := range ids {
		if len(id) != 36 {
			return common.ErrorNotFound
		}
		if _, err := uuid.Parse(id); err != nil {
			return common.ErrorNotFound
		}
	}
	return nil
}

// canRead: the owning lecturer and every staff role may see a claim and its
// documents.
func canRead(p models.Principal, c *models.Claim) bool {
	if p.Role.IsStaff() {
		return true
	}
	return p.Role == models.RoleLecturer && c.LecturerID == p.UserID
}

// checkModify allows only the owning lecturer to change a claim, and only
// while it is pending.
func checkModify(p models.Principal, c *models.Claim) error {
	if p.Role != models.RoleLecturer || c.LecturerID != p.UserID {
		return common.ErrorForbidden
	}
	if !c.IsPending() {
		return common.ErrorClaimLocked
	}
	return nil
}
