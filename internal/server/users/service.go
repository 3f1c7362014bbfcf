// Package users implements the remote authority's account rules:
// registration, login, profile updates and staff review.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/contact"
	"github.com/dmitrijs2005/barangayconnect/internal/cryptox"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/dmitrijs2005/barangayconnect/internal/server/auth"
	"github.com/dmitrijs2005/barangayconnect/internal/server/config"
	"github.com/dmitrijs2005/barangayconnect/internal/server/metrics"
	"github.com/dmitrijs2005/barangayconnect/internal/server/models"
	"github.com/dmitrijs2005/barangayconnect/internal/server/photos"
	userrepo "github.com/dmitrijs2005/barangayconnect/internal/server/repositories/users"
)

// Input is the body of POST /users/ and PUT /users/{id}. Nil fields are
// absent; on update they keep the stored value.
type Input struct {
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
	Password    *string `json:"password"`
	Photo       *string `json:"photo"`
	Role        *string `json:"role"`
}

// LoginResult is a verified user plus, for staff, a signed access token.
type LoginResult struct {
	User        *models.User
	AccessToken string
}

type Service struct {
	repo                        userrepo.Repository
	photos                      photos.Store
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	metrics                     *metrics.Metrics
	logger                      logging.Logger
}

func NewService(repo userrepo.Repository, ps photos.Store, cfg *config.Config, m *metrics.Metrics, l logging.Logger) *Service {
	return &Service{
		repo:                        repo,
		photos:                      ps,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		metrics:                     m,
		logger:                      l.With("module", "users"),
	}
}

// normalizeContact accepts 0…, 63… and +63… numbers and returns the 0… form.
func normalizeContact(raw string) (string, error) {
	c := contact.Normalize(raw)
	if c == "" || c[0] != '0' {
		return "", newError(http.StatusBadRequest, DetailInvalidContact)
	}
	return c, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// rawPassword returns the password exactly as sent. Login verifies the
// untrimmed value, so it is never trimmed before hashing.
func rawPassword(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// dateOnly keeps the YYYY-MM-DD part of an ISO date or timestamp.
func dateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

// applyProfile copies the present profile fields of in onto u.
func applyProfile(u *models.User, in Input) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&u.FirstName, in.FirstName)
	set(&u.MiddleName, in.MiddleName)
	set(&u.LastName, in.LastName)
	set(&u.Gender, in.Gender)
	set(&u.CivilStatus, in.CivilStatus)
	set(&u.Purok, in.Purok)
	set(&u.Barangay, in.Barangay)
	set(&u.City, in.City)
	set(&u.Province, in.Province)
	set(&u.PostalCode, in.PostalCode)
	if in.DOB != nil {
		u.DOB = dateOnly(strings.TrimSpace(*in.DOB))
	}
}

func (s *Service) contactTaken(ctx context.Context, c string) (bool, error) {
	_, err := s.repo.GetByContact(ctx, c)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup contact: %w", err)
	}
}

func (s *Service) attachPhoto(ctx context.Context, u *models.User, payload string) error {
	if err := s.photos.Attach(ctx, u, payload); err != nil {
		if errors.Is(err, photos.ErrInvalidPhoto) {
			return newError(http.StatusBadRequest, DetailInvalidPhoto)
		}
		s.metrics.IncPhotoStoreFailure()
		return fmt.Errorf("store photo: %w", err)
	}
	return nil
}

// discardPhoto removes a stored photo whose row was never written or was
// replaced. Failures only cost storage, so they are logged.
func (s *Service) discardPhoto(ctx context.Context, u *models.User) {
	if err := s.photos.Remove(ctx, u); err != nil {
		s.metrics.IncPhotoStoreFailure()
		s.logger.Warn(ctx, "photo cleanup failed", "user_id", u.ID, "error", err)
	}
}

// Register validates in and creates a Pending account. Checks run in the
// order clients rely on: contact format, contact uniqueness, name
// uniqueness, photo.
func (s *Service) Register(ctx context.Context, in Input) (*models.User, error) {
	c, err := normalizeContact(str(in.Contact))
	if err != nil {
		return nil, err
	}
	taken, err := s.contactTaken(ctx, c)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, newError(http.StatusBadRequest, DetailContactTaken)
	}

	first, last := str(in.FirstName), str(in.LastName)
	if first == "" {
		return nil, errRequired("firstName")
	}
	if last == "" {
		return nil, errRequired("lastName")
	}
	dup, err := s.repo.ExistsByName(ctx, first, last)
	if err != nil {
		return nil, fmt.Errorf("lookup name: %w", err)
	}
	if dup {
		return nil, newError(http.StatusBadRequest, DetailNameTaken)
	}

	photo := photos.StripDataURI(str(in.Photo))
	if photo == "" {
		return nil, newError(http.StatusBadRequest, DetailPhotoRequired)
	}

	password := rawPassword(in.Password)
	if strings.TrimSpace(password) == "" {
		return nil, newError(http.StatusBadRequest, DetailPasswordRequired)
	}

	role := strings.ToLower(str(in.Role))
	if role == "" {
		role = models.RoleResident
	}
	if !models.IsValidRole(role) {
		return nil, newError(http.StatusBadRequest, DetailInvalidRole)
	}

	hash, err := cryptox.Hash([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{Contact: c, PasswordHash: hash, Role: role, Status: common.StatusPending}
	applyProfile(u, in)

	if err := s.attachPhoto(ctx, u, photo); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, u)
	if err != nil {
		s.discardPhoto(ctx, u)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, newError(http.StatusBadRequest, DetailContactTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	created.Photo = photo

	s.metrics.IncRegistrations()
	s.logger.Info(ctx, "user registered", "user_id", created.ID, "role", created.Role)
	return created, nil
}

// Login verifies the password. Residents must be Approved; staff get an
// access token for the review endpoints.
func (s *Service) Login(ctx context.Context, rawContact, password string) (*LoginResult, error) {
	c, err := normalizeContact(rawContact)
	if err != nil {
		s.metrics.IncLogin("invalid_contact")
		return nil, err
	}

	u, err := s.repo.GetByContact(ctx, c)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.IncLogin("not_found")
			return nil, newError(http.StatusNotFound, DetailUserNotFound)
		}
		return nil, fmt.Errorf("lookup contact: %w", err)
	}

	ok, err := cryptox.Verify(u.PasswordHash, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.metrics.IncLogin("bad_password")
		return nil, newError(http.StatusUnauthorized, DetailIncorrectPass)
	}

	if u.Role == models.RoleResident && u.Status != common.StatusApproved {
		s.metrics.IncLogin("not_approved")
		return nil, errNotApproved(u.Status)
	}

	if err := s.photos.Load(ctx, u); err != nil {
		s.metrics.IncPhotoStoreFailure()
		s.logger.Warn(ctx, "photo unavailable on login", "user_id", u.ID, "error", err)
	}

	res := &LoginResult{User: u}
	if u.IsStaff() {
		tok, err := auth.GenerateToken(u.ID, u.Role, s.jwtSecret, s.accessTokenValidityDuration)
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		res.AccessToken = tok
	}

	s.metrics.IncLogin("ok")
	return res, nil
}

func (s *Service) get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, newError(http.StatusNotFound, DetailUserNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.photos.Load(ctx, u); err != nil {
		s.metrics.IncPhotoStoreFailure()
		return nil, err
	}
	return u, nil
}

// List returns every account. A photo that cannot be loaded is left empty.
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, u := range all {
		if err := s.photos.Load(ctx, u); err != nil {
			s.metrics.IncPhotoStoreFailure()
			s.logger.Warn(ctx, "photo unavailable", "user_id", u.ID, "error", err)
		}
	}
	return all, nil
}

// Update applies the present fields of in to resident id. The password is
// re-hashed when a new one is given; role and status never change here.
// Staff rows are refused: the route is unauthenticated.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*models.User, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsStaff() {
		s.logger.Warn(ctx, "staff update refused", "user_id", id)
		return nil, newError(http.StatusForbidden, DetailStaffReadOnly)
	}

	if in.Contact != nil {
		c, err := normalizeContact(*in.Contact)
		if err != nil {
			return nil, err
		}
		if c != u.Contact {
			taken, err := s.contactTaken(ctx, c)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, newError(http.StatusBadRequest, DetailContactTaken)
			}
		}
		u.Contact = c
	}

	if in.FirstName != nil && str(in.FirstName) == "" {
		return nil, errRequired("firstName")
	}
	if in.LastName != nil && str(in.LastName) == "" {
		return nil, errRequired("lastName")
	}
	applyProfile(u, in)

	if pw := rawPassword(in.Password); strings.TrimSpace(pw) != "" {
		hash, err := cryptox.Hash([]byte(pw))
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	previous := *u
	newPhoto := photos.StripDataURI(str(in.Photo))
	if newPhoto != "" {
		if err := s.attachPhoto(ctx, u, newPhoto); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		if newPhoto != "" && u.PhotoKey != previous.PhotoKey {
			s.discardPhoto(ctx, u)
		}
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, newError(http.StatusBadRequest, DetailContactTaken)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if newPhoto != "" && previous.PhotoKey != "" && previous.PhotoKey != u.PhotoKey {
		s.discardPhoto(ctx, &previous)
	}

	if newPhoto != "" {
		updated.Photo = newPhoto
	} else if err := s.photos.Load(ctx, updated); err != nil {
		s.metrics.IncPhotoStoreFailure()
		s.logger.Warn(ctx, "photo unavailable", "user_id", updated.ID, "error", err)
	}

	s.metrics.IncProfileUpdates()
	s.logger.Info(ctx, "profile updated", "user_id", updated.ID)
	return updated, nil
}

// canonicalStatus maps any casing of a review status to its stored form.
func canonicalStatus(status string) (string, bool) {
	for _, s := range []string{common.StatusPending, common.StatusApproved, common.StatusRejected} {
		if strings.EqualFold(strings.TrimSpace(status), s) {
			return s, true
		}
	}
	return "", false
}

// SetStatus records a staff review decision.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*models.User, error) {
	st, ok := canonicalStatus(status)
	if !ok {
		return nil, newError(http.StatusBadRequest, DetailInvalidStatus)
	}

	u, err := s.repo.SetStatus(ctx, id, st)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, newError(http.StatusNotFound, DetailUserNotFound)
		}
		return nil, fmt.Errorf("set status: %w", err)
	}
	if err := s.photos.Load(ctx, u); err != nil {
		s.metrics.IncPhotoStoreFailure()
		s.logger.Warn(ctx, "photo unavailable", "user_id", u.ID, "error", err)
	}

	s.metrics.IncStatusChange(st)
	s.logger.Info(ctx, "status changed", "user_id", id, "status", st)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	u, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return newError(http.StatusNotFound, DetailUserNotFound)
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.discardPhoto(ctx, u)

	s.metrics.IncUsersDeleted()
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}
