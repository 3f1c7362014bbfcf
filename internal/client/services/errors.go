package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/barangayconnect/internal/client/client"
)

var (
	// ErrOffline is returned by operations that need the remote authority
	// while it cannot be reached.
	ErrOffline = errors.New("no network connection, try again when online")
	// ErrNoLocalRecord means no cached account matched the credentials.
	ErrNoLocalRecord = errors.New("no matching local record")
)

// ValidationError reports bad or missing user input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProtocolError reports a remote response that did not have the expected
// shape.
type ProtocolError struct {
	Op     string
	Detail string
}

func (e *ProtocolError) Error() string {
	return "unexpected response"
}

// NotApprovedError is returned when a resident logs in before staff have
// approved the account.
type NotApprovedError struct {
	Status string
}

func (e *NotApprovedError) Error() string {
	return fmt.Sprintf("account not approved, current status: %s", e.Status)
}

// RemoteRejectedError carries the human readable reason given by the remote
// authority.
type RemoteRejectedError struct {
	Message string
	Err     error
}

func (e *RemoteRejectedError) Error() string {
	return e.Message
}

func (e *RemoteRejectedError) Unwrap() error {
	return e.Err
}

// StoreError wraps a local persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("local store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// remoteError translates a transport failure of op into the service
// taxonomy. fallback is used when the remote gave no reason.
func remoteError(err error, op, fallback string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, client.ErrMalformedResponse) {
		return &ProtocolError{Op: op, Detail: err.Error()}
	}

	var se *client.StatusError
	if errors.As(err, &se) {
		msg := fallback
		if se.Detail != "" {
			msg = se.Detail
		}
		return &RemoteRejectedError{Message: msg, Err: err}
	}
	if errors.Is(err, client.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}
	return &RemoteRejectedError{Message: fallback, Err: err}
}
