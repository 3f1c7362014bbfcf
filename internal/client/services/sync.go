package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/client/client"
	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// SyncOptions bound a sync pass.
type SyncOptions struct {
	Concurrency int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func (o SyncOptions) withDefaults() SyncOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 500 * time.Millisecond
	}
	if o.MaxDelay < o.BaseDelay {
		o.MaxDelay = o.BaseDelay
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	return o
}

// SyncReport summarizes one pass. Ran is false when the pass was skipped
// because the device was offline or another pass was in progress.
type SyncReport struct {
	Ran     bool
	Pushed  int
	Failed  int
	Skipped int
}

type SyncService struct {
	client   client.Client
	accounts accounts.Repository
	net      Connectivity
	locks    *Locker
	opts     SyncOptions
	logger   logging.Logger

	running atomic.Bool
}

func NewSyncService(
	c client.Client,
	acc accounts.Repository,
	n Connectivity,
	locks *Locker,
	opts SyncOptions,
	l logging.Logger,
) *SyncService {
	return &SyncService{
		client:   c,
		accounts: acc,
		net:      n,
		locks:    locks,
		opts:     opts.withDefaults(),
		logger:   l.With("module", "sync"),
	}
}

type outcome int

const (
	pushed outcome = iota
	failed
	skipped
)

// Sync pushes every unsynced resident record to the remote authority.
// Records are pushed independently; a failed record stays unsynced for the
// next pass. The only error returned is a failure to read the local store.
func (s *SyncService) Sync(ctx context.Context) (*SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug(ctx, "sync pass already running")
		return &SyncReport{}, nil
	}
	defer s.running.Store(false)

	if !s.net.Online(ctx) {
		return &SyncReport{}, nil
	}

	pending, err := s.accounts.ListUnsynced(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list unsynced", Err: err}
	}

	var counts [3]atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for _, rec := range pending {
		g.Go(func() error {
			counts[s.push(ctx, rec.Contact)].Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := &SyncReport{
		Ran:     true,
		Pushed:  int(counts[pushed].Load()),
		Failed:  int(counts[failed].Load()),
		Skipped: int(counts[skipped].Load()),
	}
	if len(pending) > 0 {
		s.logger.Info(ctx, "sync pass finished",
			"pushed", report.Pushed, "failed", report.Failed, "skipped", report.Skipped)
	}
	return report, nil
}

// push holds the contact lock for the whole attempt and re-reads the row so
// an edit made while the pass was queued is what gets sent.
func (s *SyncService) push(ctx context.Context, contact string) outcome {
	unlock := s.locks.Lock(contact)
	defer unlock()

	rec, err := s.accounts.FindByContact(ctx, contact)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return skipped
		}
		s.logger.Warn(ctx, "sync: reload failed", "contact", contact, "error", err)
		return failed
	}
	if rec.IsSynced() || rec.Role.IsStaff() {
		return skipped
	}

	payload := models.PayloadFromRecord(rec, string(rec.PendingPlaintext))
	common.WipeByteArray(rec.PendingPlaintext)

	var resp *models.RemoteUser
	err = retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		if rec.HasRemote() {
			resp, err = s.client.UpdateProfile(ctx, *rec.RemoteID, payload)
		} else {
			resp, err = s.client.Register(ctx, payload)
		}
		if errors.Is(err, client.ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		s.logger.Warn(ctx, "sync: push failed", "contact", contact, "error", err)
		return failed
	}
	if resp == nil || resp.FirstName == nil || *resp.FirstName == "" {
		s.logger.Error(ctx, "sync: response without firstName", "contact", contact)
		return failed
	}

	remoteID, ok := s.remoteID(rec, resp)
	if !ok {
		s.logger.Error(ctx, "sync: response without id", "contact", contact)
		return failed
	}
	if err := s.accounts.MarkSynced(ctx, contact, remoteID); err != nil {
		s.logger.Warn(ctx, "sync: mark synced failed", "contact", contact, "error", err)
		return failed
	}
	s.logger.Debug(ctx, "sync: pushed", "contact", contact, "remote_id", remoteID)
	return pushed
}

// remoteID prefers the id the remote just returned and falls back to the
// one already stored.
func (s *SyncService) remoteID(rec *models.AccountRecord, resp *models.RemoteUser) (int64, bool) {
	if resp.ID != nil {
		return *resp.ID, true
	}
	if rec.RemoteID != nil {
		return *rec.RemoteID, true
	}
	return 0, false
}

func (s *SyncService) backoff() retry.Backoff {
	b := retry.NewExponential(s.opts.BaseDelay)
	b = retry.WithCappedDuration(s.opts.MaxDelay, b)
	return retry.WithMaxRetries(uint64(s.opts.MaxAttempts-1), b)
}
