package sessions

import (
	"context"
	"sync"

	"github.com/jrsteele09/care-portal/apimodel"
)

//go:generate mockgen -source=persister.go -destination=mocks/mocks.go -package=mocks Persister

// StorageKey is the fixed namespace under which the identity is persisted.
const StorageKey = "care-portal/session/identity"

// Persister is the durable storage collaborator. It only ever sees the
// identity, never the access token.
type Persister interface {
	// Load returns the stored identity, or nil without error when none exists.
	Load(ctx context.Context) (*apimodel.Identity, error)
	Save(ctx context.Context, identity apimodel.Identity) error
	// Clear removes the stored identity. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

var _ Persister = (*MemoryPersister)(nil)

// MemoryPersister keeps the identity for the life of the process.
type MemoryPersister struct {
	identity *apimodel.Identity
	lock     sync.RWMutex
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(_ context.Context) (*apimodel.Identity, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.identity == nil {
		return nil, nil
	}
	c := m.identity.Clone()
	return &c, nil
}

func (m *MemoryPersister) Save(_ context.Context, identity apimodel.Identity) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	c := identity.Clone()
	m.identity = &c
	return nil
}

func (m *MemoryPersister) Clear(_ context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.identity = nil
	return nil
}
