// Package session holds the currently authenticated identity. A Holder is
// created at start-up, owned by the services that log users in and out, and
// safe for concurrent use.
package session

import (
	"sync"

	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
)

type Holder struct {
	mu      sync.RWMutex
	current *models.Identity
}

func NewHolder() *Holder {
	return &Holder{}
}

// Set replaces the current identity.
func (h *Holder) Set(id models.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := id
	h.current = &c
}

// Get returns a copy of the current identity.
func (h *Holder) Get() (models.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return models.Identity{}, false
	}
	return *h.current, true
}

func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = nil
}

// LoggedIn reports whether an identity is set.
func (h *Holder) LoggedIn() bool {
	_, ok := h.Get()
	return ok
}
