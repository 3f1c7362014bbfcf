package cli

import (
	"errors"

	"github.com/dmitrijs2005/barangayconnect/internal/client/services"
)

// describeError turns a service error into the line shown to the user.
func describeError(err error) string {
	var (
		ve *services.ValidationError
		na *services.NotApprovedError
		rr *services.RemoteRejectedError
		pe *services.ProtocolError
		se *services.StoreError
	)

	switch {
	case errors.Is(err, services.ErrOffline):
		return "You are offline. Try again when online."
	case errors.Is(err, services.ErrNoLocalRecord):
		return "No matching account on this device."
	case errors.Is(err, services.ErrNotStaff):
		return "This command needs an online secretary or captain login."
	case errors.As(err, &ve):
		return "Invalid input: " + ve.Message
	case errors.As(err, &na):
		return "Your account is not approved yet. Current status: " + na.Status
	case errors.As(err, &rr):
		return rr.Message
	case errors.As(err, &pe):
		return "The server sent an unexpected response."
	case errors.As(err, &se):
		return "Local storage problem, the change was not saved."
	default:
		return "Something went wrong."
	}
}
