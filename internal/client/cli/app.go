package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/barangayconnect/internal/client/client"
	"github.com/dmitrijs2005/barangayconnect/internal/client/config"
	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/client/services"
	"github.com/dmitrijs2005/barangayconnect/internal/client/session"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/dmitrijs2005/barangayconnect/internal/netx"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config       *config.Config
	authService  services.AuthService
	syncService  syncer
	staffService staffReviewer
	monitor      *netx.Monitor
	repos        *client.Repositories
	logger       logging.Logger

	reader *bufio.Reader
	out    io.Writer

	modeMu sync.RWMutex
	mode   Mode
}

// syncer and staffReviewer are the parts of the sync and staff services
// the commands use.
type syncer interface {
	Sync(ctx context.Context) (*services.SyncReport, error)
}

type staffReviewer interface {
	ListUsers(ctx context.Context) ([]*models.RemoteUser, error)
	Approve(ctx context.Context, remoteID int64) (*models.RemoteUser, error)
	Reject(ctx context.Context, remoteID int64) (*models.RemoteUser, error)
	Delete(ctx context.Context, remoteID int64) error
}

// NewApp opens the local store, picks the transport and wires the services.
// A local store that cannot be opened is not fatal: the app then keeps its
// data in memory for this run.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	repos, err := client.OpenRepositories(ctx, c.DatabasePath, c.VaultKeyHex, l)
	if err != nil {
		return nil, err
	}

	t, err := client.NewTransport(client.TransportHTTP, c.ServerBaseURL, c.RequestTimeout)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	api := client.NewHTTPClient(t)

	holder := session.NewHolder()
	monitor := netx.NewMonitor(api, c.OnlineCheckInterval, c.RequestTimeout, l)
	locks := services.NewLocker()

	as := services.NewAuthService(api, repos.Accounts, repos.Metadata, holder, monitor, locks, l)
	ss := services.NewSyncService(api, repos.Accounts, monitor, locks, services.SyncOptions{
		Concurrency: c.SyncConcurrency,
		BaseDelay:   c.RetryBaseDelay,
		MaxDelay:    c.RetryMaxDelay,
		MaxAttempts: c.RetryMaxAttempts,
	}, l)
	st := services.NewStaffService(api, holder, monitor, l)

	return &App{
		config:       c,
		authService:  as,
		syncService:  ss,
		staffService: st,
		monitor:      monitor,
		repos:        repos,
		logger:       l.With("module", "cli"),
		reader:       bufio.NewReader(os.Stdin),
		out:          os.Stdout,
		mode:         ModeOffline,
	}, nil
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(context.Background(), fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.authService.Close(ctx)
		if a.repos != nil {
			_ = a.repos.Close()
		}
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	_, ok := a.authService.Current()
	return ok
}

func (a *App) isStaff() bool {
	id, ok := a.authService.Current()
	return ok && id.Role.IsStaff()
}

// onConnectivityChange follows the monitor: it updates the mode and starts a
// sync pass on every offline to online edge.
func (a *App) onConnectivityChange(ctx context.Context, online bool) {
	if !online {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
	go a.backgroundSync(ctx)
}

func (a *App) backgroundSync(ctx context.Context) {
	report, err := a.syncService.Sync(ctx)
	if err != nil {
		a.logger.Error(ctx, "background sync failed", "error", err)
		return
	}
	if report.Ran && report.Pushed+report.Failed > 0 {
		a.logger.Info(ctx, "background sync", "pushed", report.Pushed, "failed", report.Failed)
	}
}

// StartOnlineStatusWatcher probes the remote authority every
// OnlineCheckInterval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context) {
	a.monitor.OnChange(a.onConnectivityChange)
	a.monitor.Run(ctx)
}
