// Package photos stores registration photos, either inline in the users
// table or as objects in an S3-compatible bucket. The wire format is always
// a base64 payload without a data URI header.
package photos

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dmitrijs2005/barangayconnect/internal/server/models"
)

// ErrInvalidPhoto is returned for payloads that are not valid base64.
var ErrInvalidPhoto = errors.New("invalid photo encoding")

// Store moves a user's photo between the wire and storage.
//
// Attach stores payload for u and sets u.Photo or u.PhotoKey accordingly.
// Load fills u.Photo with the payload. Remove discards whatever Attach kept.
type Store interface {
	Attach(ctx context.Context, u *models.User, payload string) error
	Load(ctx context.Context, u *models.User) error
	Remove(ctx context.Context, u *models.User) error
}

// StripDataURI drops a "data:...;base64," header if present.
func StripDataURI(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

func decode(payload string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidPhoto
	}
	return b, nil
}

// InlineStore keeps the base64 payload in the row itself.
type InlineStore struct{}

func NewInlineStore() *InlineStore { return &InlineStore{} }

func (s *InlineStore) Attach(ctx context.Context, u *models.User, payload string) error {
	payload = StripDataURI(payload)
	if _, err := decode(payload); err != nil {
		return err
	}
	u.Photo = payload
	u.PhotoKey = ""
	return nil
}

func (s *InlineStore) Load(ctx context.Context, u *models.User) error { return nil }

func (s *InlineStore) Remove(ctx context.Context, u *models.User) error {
	u.Photo = ""
	return nil
}
