// Package models defines the client-side account model, its sync state and
// the JSON payloads exchanged with the remote authority.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/common"
)

// Profile holds the personal and address fields of an account.
type Profile struct {
	FirstName   string
	MiddleName  string
	LastName    string
	DOB         string // YYYY-MM-DD
	Gender      string
	CivilStatus string
	Purok       string
	Barangay    string
	City        string
	Province    string
	PostalCode  string
}

// FullName joins the non-empty name parts.
func (p Profile) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// AccountRecord is the local copy of an account.
//
// PasswordHash always holds a cryptox digest, never plaintext.
// PendingPlaintext is kept only while the record waits for its first push to
// the remote authority; the store keeps it sealed and MarkSynced wipes it.
type AccountRecord struct {
	LocalID  int64
	RemoteID *int64

	Profile

	Contact          string
	PasswordHash     string
	PendingPlaintext []byte
	Photo            string
	Role             Role
	Status           string

	Sync      SyncState
	UpdatedAt time.Time
}

// MarkSynced moves the record to Synced with the id assigned by the remote
// authority and drops the pending plaintext.
func (r *AccountRecord) MarkSynced(remoteID int64) {
	id := remoteID
	r.RemoteID = &id
	r.Sync = Synced
	common.WipeByteArray(r.PendingPlaintext)
	r.PendingPlaintext = nil
}

// MarkDirty moves the record back to Unsynced after a local edit. The remote
// id is kept so the next push updates rather than re-registers.
func (r *AccountRecord) MarkDirty() {
	r.Sync = Unsynced
}

func (r *AccountRecord) IsSynced() bool {
	return r.Sync == Synced && r.RemoteID != nil
}

// HasRemote reports whether the remote authority already knows this record.
func (r *AccountRecord) HasRemote() bool {
	return r.RemoteID != nil
}

// Identity is what the session holds for the signed-in user.
func (r *AccountRecord) Identity() Identity {
	return Identity{
		RemoteID: r.RemoteID,
		Profile:  r.Profile,
		Contact:  r.Contact,
		Photo:    r.Photo,
		Role:     r.Role,
		Status:   r.Status,
	}
}

// Identity is the currently authenticated user as seen by the UI.
type Identity struct {
	RemoteID    *int64
	Profile     Profile
	Contact     string
	Photo       string
	Role        Role
	Status      string
	AccessToken string
}
