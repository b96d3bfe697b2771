package httpapi

import (
	"time"

	"github.com/dmitrijs2005/cmcs/internal/server/models"
)

const dateLayout = "2006-01-02"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

type createClaimRequest struct {
	Date        string  `json:"date"`
	HoursWorked float64 `json:"hours_worked"`
	Notes       string  `json:"notes"`
}

type claimResponse struct {
	ID           string     `json:"id"`
	LecturerID   string     `json:"lecturer_id"`
	LecturerName string     `json:"lecturer_name"`
	Date         string     `json:"date"`
	HoursWorked  float64    `json:"hours_worked"`
	HourlyRate   float64    `json:"hourly_rate"`
	Total        float64    `json:"total"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
}

func newClaimResponse(c *models.Claim) claimResponse {
	return claimResponse{
		ID:           c.ID,
		LecturerID:   c.LecturerID,
		LecturerName: c.LecturerName,
		Date:         c.Date.Format(dateLayout),
		HoursWorked:  c.HoursWorked,
		HourlyRate:   c.HourlyRate,
		Total:        c.Total(),
		Notes:        c.Notes,
		Status:       c.Status.String(),
		CreatedAt:    c.CreatedAt,
		VerifiedAt:   c.VerifiedAt,
		ApprovedAt:   c.ApprovedAt,
	}
}

func newClaimResponses(claims []*models.Claim) []claimResponse {
	out := make([]claimResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, newClaimResponse(c))
	}
	return out
}

// documentResponse omits the stored file name; it is an internal detail.
type documentResponse struct {
	ID               string    `json:"id"`
	ClaimID          string    `json:"claim_id"`
	OriginalFileName string    `json:"original_file_name"`
	SizeBytes        int64     `json:"size_bytes"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

func newDocumentResponse(d *models.ClaimDocument) documentResponse {
	return documentResponse{
		ID:               d.ID,
		ClaimID:          d.ClaimID,
		OriginalFileName: d.OriginalFileName,
		SizeBytes:        d.SizeBytes,
		UploadedAt:       d.UploadedAt,
	}
}
