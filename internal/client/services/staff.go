package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/barangayconnect/internal/client/client"
	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/client/session"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
)

// ErrNotStaff is returned when a review call is made without a secretary or
// captain session.
var ErrNotStaff = errors.New("staff login required")

// StaffService lets secretaries and captains review resident registrations.
// It needs an online staff session: the access token comes from Login.
type StaffService struct {
	client  client.Client
	session *session.Holder
	net     Connectivity
	logger  logging.Logger
}

func NewStaffService(c client.Client, s *session.Holder, n Connectivity, l logging.Logger) *StaffService {
	return &StaffService{client: c, session: s, net: n, logger: l.With("module", "staff")}
}

func (s *StaffService) guard(ctx context.Context) error {
	id, ok := s.session.Get()
	if !ok || !id.Role.IsStaff() || id.AccessToken == "" {
		return ErrNotStaff
	}
	if !s.net.Online(ctx) {
		return ErrOffline
	}
	return nil
}

func (s *StaffService) ListUsers(ctx context.Context) ([]*models.RemoteUser, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	users, err := s.client.ListUsers(ctx)
	if err != nil {
		return nil, s.translate(ctx, "list users", err)
	}
	return users, nil
}

func (s *StaffService) Approve(ctx context.Context, remoteID int64) (*models.RemoteUser, error) {
	return s.setStatus(ctx, remoteID, common.StatusApproved)
}

func (s *StaffService) Reject(ctx context.Context, remoteID int64) (*models.RemoteUser, error) {
	return s.setStatus(ctx, remoteID, common.StatusRejected)
}

func (s *StaffService) setStatus(ctx context.Context, remoteID int64, status string) (*models.RemoteUser, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	u, err := s.client.SetStatus(ctx, remoteID, status)
	if err != nil {
		return nil, s.translate(ctx, "set status", err)
	}
	s.logger.Info(ctx, "status changed", "remote_id", remoteID, "status", status)
	return u, nil
}

func (s *StaffService) Delete(ctx context.Context, remoteID int64) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if err := s.client.DeleteUser(ctx, remoteID); err != nil {
		return s.translate(ctx, "delete user", err)
	}
	s.logger.Info(ctx, "user deleted", "remote_id", remoteID)
	return nil
}

// translate maps a rejected token to ErrNotStaff so the CLI asks for a new
// login; everything else goes through remoteError.
func (s *StaffService) translate(ctx context.Context, op string, err error) error {
	s.logger.Warn(ctx, op+" failed", "error", err)
	if errors.Is(err, client.ErrUnauthorized) {
		return ErrNotStaff
	}
	return remoteError(err, op, op+" failed")
}
