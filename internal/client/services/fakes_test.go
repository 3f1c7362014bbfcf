package services

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/client/client"
	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/barangayconnect/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/barangayconnect/internal/client/session"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- fake client ----

// fakeClient implements client.Client. The *Fn hooks, when set, win over the
// plain Ret/Err fields.
type fakeClient struct {
	mu sync.Mutex

	RegisterFn  func(p models.RegistrationPayload) (*models.RemoteUser, error)
	RegisterRet *models.RemoteUser
	RegisterErr error

	LoginRet *models.RemoteUser
	LoginErr error

	UpdateFn  func(id int64, p models.RegistrationPayload) (*models.RemoteUser, error)
	UpdateRet *models.RemoteUser
	UpdateErr error

	PingErr error

	ListRet   []*models.RemoteUser
	ListErr   error
	StatusErr error
	DeleteErr error

	// argument capture
	RegisterCalls   int
	UpdateCalls     int
	LastRegister    models.RegistrationPayload
	LastUpdateID    int64
	LastUpdate      models.RegistrationPayload
	LastLoginUser   string
	LastLoginPass   string
	LastStatusID    int64
	LastStatus      string
	LastDeleteID    int64
	LastAccessToken string
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Register(ctx context.Context, p models.RegistrationPayload) (*models.RemoteUser, error) {
	f.mu.Lock()
	f.RegisterCalls++
	f.LastRegister = p
	fn, ret, err := f.RegisterFn, f.RegisterRet, f.RegisterErr
	f.mu.Unlock()

	if fn != nil {
		return fn(p)
	}
	return ret, err
}

func (f *fakeClient) Login(ctx context.Context, contact, password string) (*models.RemoteUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastLoginUser = contact
	f.LastLoginPass = password
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) UpdateProfile(ctx context.Context, remoteID int64, p models.RegistrationPayload) (*models.RemoteUser, error) {
	f.mu.Lock()
	f.UpdateCalls++
	f.LastUpdateID = remoteID
	f.LastUpdate = p
	fn, ret, err := f.UpdateFn, f.UpdateRet, f.UpdateErr
	f.mu.Unlock()

	if fn != nil {
		return fn(remoteID, p)
	}
	return ret, err
}

func (f *fakeClient) GetUser(ctx context.Context, remoteID int64) (*models.RemoteUser, error) {
	return nil, client.ErrUnavailable
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }

func (f *fakeClient) ListUsers(ctx context.Context) ([]*models.RemoteUser, error) {
	return f.ListRet, f.ListErr
}

func (f *fakeClient) SetStatus(ctx context.Context, remoteID int64, status string) (*models.RemoteUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastStatusID = remoteID
	f.LastStatus = status
	if f.StatusErr != nil {
		return nil, f.StatusErr
	}
	return &models.RemoteUser{ID: &remoteID, Status: &status}, nil
}

func (f *fakeClient) DeleteUser(ctx context.Context, remoteID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastDeleteID = remoteID
	return f.DeleteErr
}

func (f *fakeClient) SetAccessToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastAccessToken = token
}

func (f *fakeClient) Close() error { return nil }

// ---- fake connectivity ----

type fakeNet struct{ online atomic.Bool }

func newNet(online bool) *fakeNet {
	n := &fakeNet{}
	n.online.Store(online)
	return n
}

func (n *fakeNet) Online(ctx context.Context) bool { return n.online.Load() }

// ---- fixture ----

type fixture struct {
	client   *fakeClient
	net      *fakeNet
	accounts accounts.Repository
	blobs    metadata.Repository
	session  *session.Holder
	auth     AuthService
	sync     *SyncService
}

func newFixture(t *testing.T, online bool) *fixture {
	t.Helper()
	return buildFixture(t, online, accounts.NewMemoryRepository(), metadata.NewMemoryRepository())
}

// newDurableFixture runs on a migrated SQLite file with a sealer.
func newDurableFixture(t *testing.T, online bool) *fixture {
	t.Helper()
	ctx := context.Background()
	repos, err := client.OpenRepositories(ctx, filepath.Join(t.TempDir(), "client.db"), "", logging.NewNop())
	require.NoError(t, err)
	require.True(t, repos.Durable)
	t.Cleanup(func() { _ = repos.Close() })
	return buildFixture(t, online, repos.Accounts, repos.Metadata)
}

func buildFixture(t *testing.T, online bool, acc accounts.Repository, blobs metadata.Repository) *fixture {
	t.Helper()
	f := &fixture{
		client:   &fakeClient{},
		net:      newNet(online),
		accounts: acc,
		blobs:    blobs,
		session:  session.NewHolder(),
	}
	locks := NewLocker()
	f.auth = NewAuthService(f.client, acc, blobs, f.session, f.net, locks, logging.NewNop())
	f.sync = NewSyncService(f.client, acc, f.net, locks,
		SyncOptions{Concurrency: 4, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3},
		logging.NewNop())
	return f
}

func strptr(s string) *string { return &s }

func idptr(id int64) *int64 { return &id }

func remoteResident(id *int64, first, last, contact, status string) *models.RemoteUser {
	return &models.RemoteUser{
		ID:        id,
		FirstName: strptr(first),
		LastName:  strptr(last),
		Contact:   strptr(contact),
		Photo:     strptr("iVBORw0KGgo="),
		Role:      strptr("resident"),
		Status:    strptr(status),
	}
}
