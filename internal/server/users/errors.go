package users

import (
	"fmt"
	"net/http"
)

// Error is a business-rule failure with the HTTP status and the message the
// client shows to the user.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func newError(status int, detail string) *Error {
	return &Error{Status: status, Detail: detail}
}

// Messages clients match on.
const (
	DetailInvalidContact   = "Invalid contact number format"
	DetailContactTaken     = "Contact already registered"
	DetailNameTaken        = "User with same name already registered"
	DetailPhotoRequired    = "Photo is required"
	DetailInvalidPhoto     = "Invalid photo encoding"
	DetailUserNotFound     = "User not found"
	DetailIncorrectPass    = "Incorrect password"
	DetailInvalidRole      = "Invalid role"
	DetailInvalidStatus    = "Invalid status"
	DetailPasswordRequired = "Password is required"
	DetailStaffReadOnly    = "Staff accounts cannot be updated through this endpoint"
)

func errNotApproved(status string) *Error {
	return newError(http.StatusForbidden, fmt.Sprintf("Resident account not approved. Current status: %s", status))
}

func errRequired(field string) *Error {
	return newError(http.StatusBadRequest, field+" is required")
}
