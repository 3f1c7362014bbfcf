package accounts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
)

// MemoryRepository keeps records in process memory only. It is the fallback
// when the durable store cannot be opened, and it backs unit tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[string]*models.AccountRecord // by contact
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*models.AccountRecord)}
}

func clone(r *models.AccountRecord) *models.AccountRecord {
	c := *r
	if r.RemoteID != nil {
		id := *r.RemoteID
		c.RemoteID = &id
	}
	if r.PendingPlaintext != nil {
		c.PendingPlaintext = append([]byte(nil), r.PendingPlaintext...)
	}
	return &c
}

func (m *MemoryRepository) Upsert(ctx context.Context, rec *models.AccountRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.rows[rec.Contact]; ok {
		rec.LocalID = prev.LocalID
	} else {
		m.nextID++
		rec.LocalID = m.nextID
	}
	rec.UpdatedAt = time.Now().UTC()
	m.rows[rec.Contact] = clone(rec)
	return nil
}

func (m *MemoryRepository) find(match func(*models.AccountRecord) bool) (*models.AccountRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *models.AccountRecord
	for _, r := range m.rows {
		if match(r) && (best == nil || r.LocalID > best.LocalID) {
			best = r
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return clone(best), nil
}

func (m *MemoryRepository) FindByContact(ctx context.Context, contact string) (*models.AccountRecord, error) {
	return m.find(func(r *models.AccountRecord) bool { return r.Contact == contact })
}

func (m *MemoryRepository) FindByName(ctx context.Context, first, middle, last string) (*models.AccountRecord, error) {
	return m.find(func(r *models.AccountRecord) bool {
		return strings.EqualFold(r.FirstName, first) &&
			strings.EqualFold(r.MiddleName, middle) &&
			strings.EqualFold(r.LastName, last)
	})
}

func (m *MemoryRepository) FindByID(ctx context.Context, localID int64) (*models.AccountRecord, error) {
	return m.find(func(r *models.AccountRecord) bool { return r.LocalID == localID })
}

func (m *MemoryRepository) Latest(ctx context.Context) (*models.AccountRecord, error) {
	return m.find(func(*models.AccountRecord) bool { return true })
}

func (m *MemoryRepository) list(match func(*models.AccountRecord) bool, newestFirst bool) []*models.AccountRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.AccountRecord, 0, len(m.rows))
	for _, r := range m.rows {
		if match(r) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].LocalID > out[j].LocalID
		}
		return out[i].LocalID < out[j].LocalID
	})
	return out
}

func (m *MemoryRepository) List(ctx context.Context) ([]*models.AccountRecord, error) {
	return m.list(func(*models.AccountRecord) bool { return true }, true), nil
}

func (m *MemoryRepository) ListUnsynced(ctx context.Context) ([]*models.AccountRecord, error) {
	return m.list(func(r *models.AccountRecord) bool { return !r.IsSynced() }, false), nil
}

func (m *MemoryRepository) Update(ctx context.Context, rec *models.AccountRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		key  string
		prev *models.AccountRecord
	)
	for k, r := range m.rows {
		if rec.RemoteID != nil {
			if r.RemoteID != nil && *r.RemoteID == *rec.RemoteID {
				key, prev = k, r
				break
			}
		} else if r.LocalID == rec.LocalID {
			key, prev = k, r
			break
		}
	}
	if prev == nil {
		return common.ErrorNotFound
	}
	if rec.Contact != key {
		if _, taken := m.rows[rec.Contact]; taken {
			return common.ErrorAlreadyExists
		}
	}

	next := clone(prev)
	next.Profile = rec.Profile
	next.Contact = rec.Contact
	next.Photo = rec.Photo
	if len(rec.PendingPlaintext) > 0 {
		next.PasswordHash = rec.PasswordHash
		next.PendingPlaintext = append([]byte(nil), rec.PendingPlaintext...)
	}
	next.MarkDirty()
	next.UpdatedAt = time.Now().UTC()

	delete(m.rows, key)
	m.rows[next.Contact] = next

	rec.LocalID = next.LocalID
	rec.MarkDirty()
	return nil
}

func (m *MemoryRepository) MarkSynced(ctx context.Context, contact string, remoteID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[contact]
	if !ok {
		return common.ErrorNotFound
	}
	r.MarkSynced(remoteID)
	return nil
}

func (m *MemoryRepository) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[string]*models.AccountRecord)
	return nil
}
