package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse marks a 2xx answer whose body is not the
	// expected JSON document.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is a non-2xx answer from the remote authority.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Detail)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 answers and
// errors.Is(err, ErrUnavailable) match 5xx answers.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrUnavailable:
		return e.Code >= http.StatusInternalServerError
	}
	return false
}
