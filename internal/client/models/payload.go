package models

import (
	"strings"

	"github.com/dmitrijs2005/barangayconnect/internal/contact"
)

// RegistrationPayload is the body of POST /users/ and PUT /users/{id}.
// Empty strings are sent as null.
type RegistrationPayload struct {
	FirstName   *string `json:"firstName"`
	MiddleName  *string `json:"middleName,omitempty"`
	LastName    *string `json:"lastName"`
	DOB         *string `json:"dob"`
	Gender      *string `json:"gender"`
	CivilStatus *string `json:"civilStatus"`
	Contact     *string `json:"contact"`
	Purok       *string `json:"purok"`
	Barangay    *string `json:"barangay"`
	City        *string `json:"city"`
	Province    *string `json:"province"`
	PostalCode  *string `json:"postalCode"`
	Password    *string `json:"password,omitempty"`
	Photo       *string `json:"photo"`
	Role        Role    `json:"role"`
}

// RegistrationForm is the raw input collected by the UI.
type RegistrationForm struct {
	Profile
	Contact  string
	Password string
	Photo    string
	Role     string
}

// NewRegistrationPayload sanitizes form for the wire: strings are trimmed
// and empty ones become null, the date keeps only its YYYY-MM-DD part, the
// photo loses its data URI header and the role defaults to resident.
func NewRegistrationPayload(form RegistrationForm) RegistrationPayload {
	role, ok := ParseRole(form.Role)
	if !ok {
		role = RoleResident
	}

	p := RegistrationPayload{
		FirstName:   optional(form.FirstName),
		LastName:    optional(form.LastName),
		DOB:         optional(NormalizeDate(form.DOB)),
		Gender:      optional(form.Gender),
		CivilStatus: optional(form.CivilStatus),
		Contact:     optional(contact.Normalize(form.Contact)),
		Purok:       optional(form.Purok),
		Barangay:    optional(form.Barangay),
		City:        optional(form.City),
		Province:    optional(form.Province),
		PostalCode:  optional(form.PostalCode),
		Photo:       optional(StripDataURI(form.Photo)),
		Role:        role,
	}
	if form.Password != "" {
		pw := form.Password
		p.Password = &pw
	}
	if m := strings.TrimSpace(form.MiddleName); m != "" {
		p.MiddleName = &m
	}
	return p
}

// PayloadFromRecord rebuilds the wire payload for a stored record; password
// is the unsealed pending plaintext, empty when there is none.
func PayloadFromRecord(r *AccountRecord, password string) RegistrationPayload {
	return NewRegistrationPayload(RegistrationForm{
		Profile:  r.Profile,
		Contact:  r.Contact,
		Password: password,
		Photo:    r.Photo,
		Role:     string(r.Role),
	})
}

// NormalizeDate cuts an ISO timestamp down to its date part.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	return s
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Contact  string `json:"contact"`
	Password string `json:"password"`
}

// StatusRequest is the body of PATCH /users/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// RemoteUser is the identity returned by the remote authority.
// AccessToken is only issued to staff on login.
type RemoteUser struct {
	ID          *int64  `json:"id"`
	FirstName   *string `json:"firstName"`
	MiddleName  *string `json:"middleName"`
	LastName    *string `json:"lastName"`
	DOB         *string `json:"dob"`
	Gender      *string `json:"gender"`
	CivilStatus *string `json:"civilStatus"`
	Contact     *string `json:"contact"`
	Purok       *string `json:"purok"`
	Barangay    *string `json:"barangay"`
	City        *string `json:"city"`
	Province    *string `json:"province"`
	PostalCode  *string `json:"postalCode"`
	Photo       *string `json:"photo"`
	Role        *string `json:"role"`
	Status      *string `json:"status"`
	AccessToken string  `json:"accessToken,omitempty"`
}

// Profile extracts the profile fields.
func (u *RemoteUser) Profile() Profile {
	return Profile{
		FirstName:   deref(u.FirstName),
		MiddleName:  deref(u.MiddleName),
		LastName:    deref(u.LastName),
		DOB:         NormalizeDate(deref(u.DOB)),
		Gender:      deref(u.Gender),
		CivilStatus: deref(u.CivilStatus),
		Purok:       deref(u.Purok),
		Barangay:    deref(u.Barangay),
		City:        deref(u.City),
		Province:    deref(u.Province),
		PostalCode:  deref(u.PostalCode),
	}
}

// Identity converts the response into a session identity. Unknown roles are
// reported by the caller before this is used.
func (u *RemoteUser) Identity() Identity {
	role, _ := ParseRole(deref(u.Role))
	return Identity{
		RemoteID:    u.ID,
		Profile:     u.Profile(),
		Contact:     contact.Normalize(deref(u.Contact)),
		Photo:       StripDataURI(deref(u.Photo)),
		Role:        role,
		Status:      deref(u.Status),
		AccessToken: u.AccessToken,
	}
}

// Record converts the response into a local record carrying passwordHash.
func (u *RemoteUser) Record(passwordHash string) *AccountRecord {
	id := u.Identity()
	rec := &AccountRecord{
		Profile:      id.Profile,
		Contact:      id.Contact,
		PasswordHash: passwordHash,
		Photo:        id.Photo,
		Role:         id.Role,
		Status:       id.Status,
	}
	if u.ID != nil {
		rec.MarkSynced(*u.ID)
	}
	return rec
}

// StaffBlob is the JSON document stored under Role.BlobKey for staff
// accounts.
type StaffBlob struct {
	RemoteID     *int64  `json:"remoteId,omitempty"`
	Profile      Profile `json:"profile"`
	Contact      string  `json:"contact"`
	PasswordHash string  `json:"passwordHash"`
	Photo        string  `json:"photo,omitempty"`
	Role         Role    `json:"role"`
	Status       string  `json:"status,omitempty"`
	SavedAt      int64   `json:"savedAt"`
}

func (b *StaffBlob) Record() *AccountRecord {
	return &AccountRecord{
		RemoteID:     b.RemoteID,
		Profile:      b.Profile,
		Contact:      b.Contact,
		PasswordHash: b.PasswordHash,
		Photo:        b.Photo,
		Role:         b.Role,
		Status:       b.Status,
	}
}
