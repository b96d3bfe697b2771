package models

import (
	"math"
	"time"
)

// ClaimStatus is the approval state of a claim. Values are persisted.
type ClaimStatus int

const (
	ClaimPending               ClaimStatus = 0
	ClaimVerifiedByCoordinator ClaimStatus = 1
	ClaimApprovedByManager     ClaimStatus = 2
	ClaimRejected              ClaimStatus = 3
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimPending:
		return "Pending"
	case ClaimVerifiedByCoordinator:
		return "VerifiedByCoordinator"
	case ClaimApprovedByManager:
		return "ApprovedByManager"
	case ClaimRejected:
		return "Rejected"
	}
	return "Unknown"
}

// Claim validation limits.
const (
	MinHoursWorked  = 0.5
	MaxHoursWorked  = 24
	MinHourlyRate   = 50
	MaxHourlyRate   = 5000
	MaxNotesLength  = 500
	MaxLecturerName = 100

	// MaxClaimTotal caps what a coordinator may verify.
	MaxClaimTotal = 100000
	// ManagerApprovalLimit is the highest total a manager approves alone.
	ManagerApprovalLimit = 50000
)

type Claim struct {
	ID           string
	LecturerID   string
	LecturerName string
	Date         time.Time
	HoursWorked  float64
	HourlyRate   float64
	Notes        string
	Status       ClaimStatus
	CreatedAt    time.Time
	VerifiedAt   *time.Time
	ApprovedAt   *time.Time
}

// Total is HoursWorked × HourlyRate rounded to cents, halves away from zero.
// The rate is first snapped to whole cents so that binary float error in
// values like 123.45 does not move a half-cent result.
func (c *Claim) Total() float64 {
	cents := math.Round(c.HourlyRate * 100)
	return math.Round(c.HoursWorked*cents) / 100
}

// IsPending reports whether the lecturer may still change the claim.
func (c *Claim) IsPending() bool {
	return c.Status == ClaimPending
}

// ReviewStatus is the status a claim must be in for role to act on it:
// coordinators review pending claims, managers verified ones and HR
// settles approved ones. ok is false for lecturers.
func ReviewStatus(role Role) (status ClaimStatus, ok bool) {
	switch role {
	case RoleCoordinator:
		return ClaimPending, true
	case RoleManager:
		return ClaimVerifiedByCoordinator, true
	case RoleHR:
		return ClaimApprovedByManager, true
	}
	return 0, false
}
