package models

import (
	"strings"
)

type Role string

const (
	RoleResident  Role = "resident"
	RoleSecretary Role = "secretary"
	RoleCaptain   Role = "captain"
)

// StaffRoles are the roles persisted in the blob store rather than the
// synchronized table, in auto-login lookup order.
var StaffRoles = []Role{RoleSecretary, RoleCaptain}

// ParseRole accepts any casing; an empty string means resident.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleResident:
		return RoleResident, true
	case RoleSecretary:
		return RoleSecretary, true
	case RoleCaptain:
		return RoleCaptain, true
	default:
		return "", false
	}
}

func (r Role) IsStaff() bool {
	return r == RoleSecretary || r == RoleCaptain
}

// BlobKey is the blob store key for a staff account: "<role>-<contact>".
func (r Role) BlobKey(contact string) string {
	return string(r) + "-" + contact
}
