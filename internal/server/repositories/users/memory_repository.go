package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/server/models"
)

// MemoryRepository keeps users in process memory. The server uses it when no
// DSN is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[int64]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *MemoryRepository) contactTaken(contact string, except int64) bool {
	for id, u := range m.rows {
		if id != except && u.Contact == contact {
			return true
		}
	}
	return false
}

func (m *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.contactTaken(user.Contact, 0) {
		return nil, common.ErrorAlreadyExists
	}

	m.nextID++
	now := time.Now().UTC()
	user.ID = m.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	m.rows[user.ID] = clone(user)
	return user, nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (m *MemoryRepository) GetByContact(ctx context.Context, contact string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.rows {
		if u.Contact == contact {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *MemoryRepository) ExistsByName(ctx context.Context, firstName, lastName string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.rows {
		if strings.EqualFold(u.FirstName, firstName) && strings.EqualFold(u.LastName, lastName) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.User, 0, len(m.rows))
	for _, u := range m.rows {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.rows[user.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if m.contactTaken(user.Contact, user.ID) {
		return nil, common.ErrorAlreadyExists
	}

	next := clone(user)
	next.Role = prev.Role
	next.Status = prev.Status
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	m.rows[user.ID] = next
	return clone(next), nil
}

func (m *MemoryRepository) SetStatus(ctx context.Context, id int64, status string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.rows, id)
	return nil
}
