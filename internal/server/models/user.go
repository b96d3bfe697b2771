package models

import "time"

// Role is the coarse permission level of a user.
type Role string

const (
	RoleLecturer    Role = "Lecturer"
	RoleCoordinator Role = "Coordinator"
	RoleManager     Role = "Manager"
	RoleHR          Role = "HR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLecturer, RoleCoordinator, RoleManager, RoleHR:
		return true
	}
	return false
}

// IsStaff reports whether r may read every claim (coordinators, managers
// and HR).
func (r Role) IsStaff() bool {
	return r == RoleCoordinator || r == RoleManager || r == RoleHR
}

type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	HourlyRate   float64
	CreatedAt    time.Time
}

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID string
	Role   Role
}
