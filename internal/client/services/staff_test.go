package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/barangayconnect/internal/client/client"
	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staffFixture(t *testing.T, role models.Role, token string) (*StaffService, *fixture) {
	t.Helper()
	f := newFixture(t, true)
	f.session.Set(models.Identity{Contact: "09180000000", Role: role, AccessToken: token})
	return NewStaffService(f.client, f.session, f.net, logging.NewNop()), f
}

func TestStaff_RequiresStaffSession(t *testing.T) {
	ctx := context.Background()

	s, _ := staffFixture(t, models.RoleResident, "")
	_, err := s.ListUsers(ctx)
	require.ErrorIs(t, err, ErrNotStaff)

	s, _ = staffFixture(t, models.RoleSecretary, "")
	_, err = s.Approve(ctx, 4)
	require.ErrorIs(t, err, ErrNotStaff, "offline staff login has no token")
}

func TestStaff_ApproveRejectDelete(t *testing.T) {
	ctx := context.Background()
	s, f := staffFixture(t, models.RoleCaptain, "tok")

	u, err := s.Approve(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, common.StatusApproved, *u.Status)
	assert.Equal(t, int64(4), f.client.LastStatusID)

	_, err = s.Reject(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, common.StatusRejected, f.client.LastStatus)

	require.NoError(t, s.Delete(ctx, 6))
	assert.Equal(t, int64(6), f.client.LastDeleteID)
}

func TestStaff_ErrorTranslation(t *testing.T) {
	ctx := context.Background()

	s, f := staffFixture(t, models.RoleSecretary, "tok")
	f.client.ListErr = &client.StatusError{Code: 401, Detail: "token expired"}
	_, err := s.ListUsers(ctx)
	require.ErrorIs(t, err, ErrNotStaff)

	f.client.StatusErr = &client.StatusError{Code: 404, Detail: "User not found"}
	_, err = s.Approve(ctx, 99)
	var rr *RemoteRejectedError
	require.ErrorAs(t, err, &rr)
	assert.Equal(t, "User not found", rr.Message)

	f.net.online.Store(false)
	_, err = s.ListUsers(ctx)
	require.ErrorIs(t, err, ErrOffline)
}
