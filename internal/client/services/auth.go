// Package services contains the application services of the barangayconnect
// client: registration, login (online, offline and automatic), profile
// updates, duplicate checks, the sync engine and staff review.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/client/client"
	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/barangayconnect/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/barangayconnect/internal/client/session"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/contact"
	"github.com/dmitrijs2005/barangayconnect/internal/cryptox"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
)

// Connectivity reports whether the remote authority is reachable.
// netx.Monitor implements it.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// AuthService is the public surface used by the CLI.
//
// Contract:
//   - Register: online only; returns the authoritative remote record.
//   - SaveOfflineCopy: caches a remote record with its credential digest.
//   - Login: online only; sets the session and refreshes the local cache.
//   - OfflineLogin: verifies against the local cache, never the network.
//   - AutoLogin: restores the most recent cached identity.
//   - UpdateUser: rewrites a cached record; residents become unsynced.
//
// Errors come from the taxonomy in errors.go; transport errors are never
// returned untranslated.
type AuthService interface {
	Register(ctx context.Context, form models.RegistrationForm) (*models.RemoteUser, error)
	SaveOfflineCopy(ctx context.Context, u *models.RemoteUser, password string) error
	Login(ctx context.Context, contact, password string) (models.Identity, error)
	OfflineLogin(ctx context.Context, contact, password string) (models.Identity, error)
	AutoLogin(ctx context.Context) (models.Identity, error)
	UpdateUser(ctx context.Context, rec *models.AccountRecord, password string) error

	IsDuplicateContact(ctx context.Context, contact string) (bool, error)
	IsDuplicateName(ctx context.Context, first, middle, last string) (bool, error)
	AllRegistrations(ctx context.Context) ([]*models.AccountRecord, error)
	CurrentRecord(ctx context.Context) (*models.AccountRecord, error)

	Current() (models.Identity, bool)
	CurrentPhotoURI() string
	Logout(ctx context.Context)
	ClearAll(ctx context.Context) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client   client.Client
	accounts accounts.Repository
	blobs    metadata.Repository
	session  *session.Holder
	net      Connectivity
	locks    *Locker
	logger   logging.Logger
	now      func() time.Time
}

// NewAuthService wires the orchestrators. locks must be the Locker shared
// with the SyncService.
func NewAuthService(
	c client.Client,
	acc accounts.Repository,
	blobs metadata.Repository,
	s *session.Holder,
	n Connectivity,
	locks *Locker,
	l logging.Logger,
) AuthService {
	return &authService{
		client:   c,
		accounts: acc,
		blobs:    blobs,
		session:  s,
		net:      n,
		locks:    locks,
		logger:   l.With("module", "auth"),
		now:      time.Now,
	}
}

func (a *authService) Register(ctx context.Context, form models.RegistrationForm) (*models.RemoteUser, error) {
	if models.StripDataURI(form.Photo) == "" {
		return nil, &ValidationError{Field: "photo", Message: "photo required"}
	}

	payload := models.NewRegistrationPayload(form)

	if !a.net.Online(ctx) {
		return nil, ErrOffline
	}

	u, err := a.client.Register(ctx, payload)
	if err != nil {
		a.logger.Warn(ctx, "registration rejected", "contact", deref(payload.Contact), "error", err)
		return nil, remoteError(err, "register", "registration failed")
	}
	if u == nil || u.FirstName == nil || *u.FirstName == "" {
		a.logger.Error(ctx, "registration response without firstName", "contact", deref(payload.Contact))
		return nil, &ProtocolError{Op: "register", Detail: "response has no firstName"}
	}
	return u, nil
}

// SaveOfflineCopy stores u locally so that the same person can log in
// offline later. A record that already has a remote id is stored synced;
// otherwise the password is kept sealed until the next sync pushes it.
func (a *authService) SaveOfflineCopy(ctx context.Context, u *models.RemoteUser, password string) error {
	if u == nil {
		return &ValidationError{Field: "record", Message: "nothing to save"}
	}

	rec := u.Record("")
	if err := setCredential(rec, password); err != nil {
		return &StoreError{Op: "hash password", Err: err}
	}

	unlock := a.locks.Lock(rec.Contact)
	defer unlock()

	if rec.Role.IsStaff() {
		return a.saveStaffBlob(ctx, rec)
	}
	if err := a.accounts.Upsert(ctx, rec); err != nil {
		return &StoreError{Op: "save offline copy", Err: err}
	}
	return nil
}

// setCredential hashes the password the user typed into rec. Records the
// remote has not acknowledged also keep the plaintext for the next sync.
func setCredential(rec *models.AccountRecord, password string) error {
	digest, err := cryptox.Hash([]byte(password))
	if err != nil {
		return err
	}
	rec.PasswordHash = digest
	if !rec.HasRemote() {
		rec.PendingPlaintext = []byte(password)
	}
	return nil
}

func (a *authService) Login(ctx context.Context, rawContact, password string) (models.Identity, error) {
	c := contact.Normalize(rawContact)

	if !a.net.Online(ctx) {
		return models.Identity{}, ErrOffline
	}

	u, err := a.client.Login(ctx, c, password)
	if err != nil {
		a.logger.Warn(ctx, "login rejected", "contact", c, "error", err)
		return models.Identity{}, remoteError(err, "login", "login failed")
	}
	if u == nil || u.Role == nil || strings.TrimSpace(*u.Role) == "" {
		a.logger.Error(ctx, "login response without role", "contact", c)
		return models.Identity{}, &ProtocolError{Op: "login", Detail: "response has no role"}
	}
	role, ok := models.ParseRole(*u.Role)
	if !ok {
		a.logger.Error(ctx, "login response with unknown role", "contact", c, "role", *u.Role)
		return models.Identity{}, &ProtocolError{Op: "login", Detail: "unknown role " + *u.Role}
	}

	id := u.Identity()
	if id.Contact == "" {
		id.Contact = c
	}
	if role == models.RoleResident && id.Status != common.StatusApproved {
		return models.Identity{}, &NotApprovedError{Status: id.Status}
	}

	a.session.Set(id)
	if role.IsStaff() && id.AccessToken != "" {
		a.client.SetAccessToken(id.AccessToken)
	}

	if err := a.cacheLogin(ctx, u, id.Contact, password); err != nil {
		a.logger.Warn(ctx, "offline copy not saved", "contact", id.Contact, "error", err)
	}
	return id, nil
}

func (a *authService) cacheLogin(ctx context.Context, u *models.RemoteUser, c, password string) error {
	rec := u.Record("")
	rec.Contact = c
	if err := setCredential(rec, password); err != nil {
		return err
	}

	unlock := a.locks.Lock(c)
	defer unlock()

	if rec.Role.IsStaff() {
		return a.saveStaffBlob(ctx, rec)
	}
	return a.accounts.Upsert(ctx, rec)
}

// OfflineLogin checks the resident table first, then the staff blobs.
// The first record whose digest verifies wins.
func (a *authService) OfflineLogin(ctx context.Context, rawContact, password string) (models.Identity, error) {
	c := contact.Normalize(rawContact)

	for _, rec := range a.localCandidates(ctx, c) {
		ok, err := cryptox.Verify(rec.PasswordHash, []byte(password))
		if err != nil {
			a.logger.Warn(ctx, "unreadable local digest", "contact", c, "role", rec.Role, "error", err)
			continue
		}
		if ok {
			id := rec.Identity()
			a.session.Set(id)
			return id, nil
		}
	}
	return models.Identity{}, ErrNoLocalRecord
}

func (a *authService) localCandidates(ctx context.Context, c string) []*models.AccountRecord {
	out := make([]*models.AccountRecord, 0, 1+len(models.StaffRoles))

	rec, err := a.accounts.FindByContact(ctx, c)
	switch {
	case err == nil:
		out = append(out, rec)
	case !errors.Is(err, common.ErrorNotFound):
		a.logger.Warn(ctx, "local store lookup failed", "contact", c, "error", err)
	}

	for _, role := range models.StaffRoles {
		blob, err := a.loadStaffBlob(ctx, role.BlobKey(c))
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				a.logger.Warn(ctx, "staff blob lookup failed", "key", role.BlobKey(c), "error", err)
			}
			continue
		}
		out = append(out, blob.Record())
	}
	return out
}

// AutoLogin restores the last known identity without credentials: the most
// recently saved staff blob if any, else the newest resident row.
func (a *authService) AutoLogin(ctx context.Context) (models.Identity, error) {
	var best *models.StaffBlob
	for _, role := range models.StaffRoles {
		entries, err := a.blobs.ListPrefix(ctx, string(role)+"-")
		if err != nil {
			a.logger.Warn(ctx, "staff blob scan failed", "role", role, "error", err)
			continue
		}
		for key, raw := range entries {
			var b models.StaffBlob
			if err := json.Unmarshal(raw, &b); err != nil {
				a.logger.Warn(ctx, "skipping unreadable staff blob", "key", key, "error", err)
				continue
			}
			if best == nil || b.SavedAt > best.SavedAt {
				best = &b
			}
		}
	}
	if best != nil {
		id := best.Record().Identity()
		a.session.Set(id)
		return id, nil
	}

	rec, err := a.accounts.Latest(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			a.logger.Warn(ctx, "local store unavailable for auto-login", "error", err)
		}
		return models.Identity{}, ErrNoLocalRecord
	}
	id := rec.Identity()
	a.session.Set(id)
	return id, nil
}

// UpdateUser rewrites rec locally. A non-empty password replaces the stored
// credential. Resident rows become unsynced until the next sync pass; staff
// blobs are overwritten in place.
func (a *authService) UpdateUser(ctx context.Context, rec *models.AccountRecord, password string) error {
	if rec == nil {
		return &ValidationError{Field: "record", Message: "nothing to update"}
	}
	rec.Contact = contact.Normalize(rec.Contact)
	if rec.Contact == "" {
		return &ValidationError{Field: "contact", Message: "contact required"}
	}
	rec.Photo = models.StripDataURI(rec.Photo)

	// An empty password keeps the digest already on rec.
	if password != "" {
		digest, err := cryptox.Hash([]byte(password))
		if err != nil {
			return &StoreError{Op: "hash password", Err: err}
		}
		rec.PasswordHash = digest
		rec.PendingPlaintext = []byte(password)
	}

	var unlock func()
	if rec.Role.IsStaff() {
		unlock = a.locks.Lock(rec.Contact)
	} else {
		unlock = a.lockStored(ctx, rec)
	}
	defer unlock()

	if rec.Role.IsStaff() {
		if rec.PasswordHash == "" {
			prev, err := a.loadStaffBlob(ctx, rec.Role.BlobKey(rec.Contact))
			if err == nil {
				rec.PasswordHash = prev.PasswordHash
			}
		}
		if err := a.saveStaffBlob(ctx, rec); err != nil {
			return &StoreError{Op: "update staff record", Err: err}
		}
	} else {
		if err := a.accounts.Update(ctx, rec); err != nil {
			switch {
			case errors.Is(err, common.ErrorNotFound):
				return ErrNoLocalRecord
			case errors.Is(err, common.ErrorAlreadyExists):
				return &ValidationError{Field: "contact", Message: "contact already registered"}
			}
			return &StoreError{Op: "update account", Err: err}
		}
	}

	a.refreshSession(rec)
	return nil
}

// lockStored locks the new contact together with the contact the row is
// stored under, so a push still holding the old contact finishes first.
func (a *authService) lockStored(ctx context.Context, rec *models.AccountRecord) (unlock func()) {
	stored := a.storedContact(ctx, rec)
	for {
		unlock = a.locks.LockAll(stored, rec.Contact)
		now := a.storedContact(ctx, rec)
		if now == stored {
			return unlock
		}
		unlock()
		stored = now
	}
}

func (a *authService) storedContact(ctx context.Context, rec *models.AccountRecord) string {
	if rec.LocalID <= 0 {
		return ""
	}
	prev, err := a.accounts.FindByID(ctx, rec.LocalID)
	if err != nil {
		return ""
	}
	return prev.Contact
}

// refreshSession replaces the session identity when rec is the signed-in
// user, keeping the access token.
func (a *authService) refreshSession(rec *models.AccountRecord) {
	cur, ok := a.session.Get()
	if !ok {
		return
	}
	same := cur.Contact == rec.Contact ||
		(cur.RemoteID != nil && rec.RemoteID != nil && *cur.RemoteID == *rec.RemoteID)
	if !same {
		return
	}
	id := rec.Identity()
	id.AccessToken = cur.AccessToken
	if id.Status == "" {
		id.Status = cur.Status
	}
	a.session.Set(id)
}

func (a *authService) IsDuplicateContact(ctx context.Context, rawContact string) (bool, error) {
	_, err := a.accounts.FindByContact(ctx, contact.Normalize(rawContact))
	return found(err, "find by contact")
}

func (a *authService) IsDuplicateName(ctx context.Context, first, middle, last string) (bool, error) {
	_, err := a.accounts.FindByName(ctx,
		strings.TrimSpace(first), strings.TrimSpace(middle), strings.TrimSpace(last))
	return found(err, "find by name")
}

func found(err error, op string) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorNotFound):
		return false, nil
	default:
		return false, &StoreError{Op: op, Err: err}
	}
}

// AllRegistrations returns resident rows newest first, followed by the
// cached staff accounts.
func (a *authService) AllRegistrations(ctx context.Context) ([]*models.AccountRecord, error) {
	list, err := a.accounts.List(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list accounts", Err: err}
	}
	for _, role := range models.StaffRoles {
		entries, err := a.blobs.ListPrefix(ctx, string(role)+"-")
		if err != nil {
			return nil, &StoreError{Op: "list staff", Err: err}
		}
		for _, raw := range entries {
			var b models.StaffBlob
			if err := json.Unmarshal(raw, &b); err != nil {
				continue
			}
			list = append(list, b.Record())
		}
	}
	return list, nil
}

// CurrentRecord loads the cached record of the signed-in user.
func (a *authService) CurrentRecord(ctx context.Context) (*models.AccountRecord, error) {
	id, ok := a.session.Get()
	if !ok {
		return nil, ErrNoLocalRecord
	}
	if id.Role.IsStaff() {
		blob, err := a.loadStaffBlob(ctx, id.Role.BlobKey(id.Contact))
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, ErrNoLocalRecord
			}
			return nil, &StoreError{Op: "load staff record", Err: err}
		}
		return blob.Record(), nil
	}

	rec, err := a.accounts.FindByContact(ctx, id.Contact)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrNoLocalRecord
		}
		return nil, &StoreError{Op: "load account", Err: err}
	}
	return rec, nil
}

func (a *authService) Current() (models.Identity, bool) {
	return a.session.Get()
}

// CurrentPhotoURI is the signed-in user's photo as a data URI, or "".
func (a *authService) CurrentPhotoURI() string {
	id, ok := a.session.Get()
	if !ok {
		return ""
	}
	return models.PhotoDataURI(id.Photo)
}

func (a *authService) Logout(ctx context.Context) {
	a.session.Clear()
	a.client.SetAccessToken("")
}

// ClearAll logs out and wipes every cached account. Other blob store keys,
// such as the sealing key, are left alone.
func (a *authService) ClearAll(ctx context.Context) error {
	a.Logout(ctx)

	if err := a.accounts.Clear(ctx); err != nil {
		return &StoreError{Op: "clear accounts", Err: err}
	}
	for _, role := range models.StaffRoles {
		entries, err := a.blobs.ListPrefix(ctx, string(role)+"-")
		if err != nil {
			return &StoreError{Op: "list staff", Err: err}
		}
		for key := range entries {
			if err := a.blobs.Delete(ctx, key); err != nil {
				return &StoreError{Op: "delete staff", Err: err}
			}
		}
	}
	return nil
}

func (a *authService) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return remoteError(err, "ping", "ping failed")
	}
	return nil
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

func (a *authService) loadStaffBlob(ctx context.Context, key string) (*models.StaffBlob, error) {
	raw, err := a.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var b models.StaffBlob
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode staff blob %s: %w", key, err)
	}
	return &b, nil
}

func (a *authService) saveStaffBlob(ctx context.Context, rec *models.AccountRecord) error {
	b := models.StaffBlob{
		RemoteID:     rec.RemoteID,
		Profile:      rec.Profile,
		Contact:      rec.Contact,
		PasswordHash: rec.PasswordHash,
		Photo:        rec.Photo,
		Role:         rec.Role,
		Status:       rec.Status,
		SavedAt:      a.now().UnixNano(),
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return a.blobs.Set(ctx, rec.Role.BlobKey(rec.Contact), raw)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
