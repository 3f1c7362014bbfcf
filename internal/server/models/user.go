// Package models holds the server-side domain types.
package models

import "time"

// Account roles.
const (
	RoleResident  = "resident"
	RoleSecretary = "secretary"
	RoleCaptain   = "captain"
)

// IsStaffRole reports whether role may review registrations.
func IsStaffRole(role string) bool {
	return role == RoleSecretary || role == RoleCaptain
}

// IsValidRole reports whether role is one of the known account roles.
func IsValidRole(role string) bool {
	return role == RoleResident || IsStaffRole(role)
}

// User is one registered person. Exactly one of Photo and PhotoKey is set
// in storage: Photo holds the base64 payload for inline storage, PhotoKey
// the object key when photos live in S3.
type User struct {
	ID           int64
	FirstName    string
	MiddleName   string
	LastName     string
	DOB          string
	Gender       string
	CivilStatus  string
	Contact      string
	Purok        string
	Barangay     string
	City         string
	Province     string
	PostalCode   string
	PasswordHash string
	Photo        string
	PhotoKey     string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsStaff() bool { return IsStaffRole(u.Role) }
