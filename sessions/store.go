package sessions

import (
	"context"
	"sync"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Session is the identity and access token pair as observed at one instant.
type Session struct {
	Identity *apimodel.Identity
	Token    *oauth2.Token
}

// Authenticated reports whether both halves of the session are present.
func (s Session) Authenticated() bool {
	return s.Identity != nil && s.Token != nil
}

// Store is the single source of truth for the client session.
//
// The identity and the access token are replaced together under one lock so a
// reader never sees a mixed pair. Only the identity is handed to the Persister.
// The token lives in memory and is lost when the process exits; a restarted
// process restores the identity with Hydrate and obtains a new token through
// the refresh cookie.
//
// Every operation is total. Persistence failures are logged and swallowed.
type Store struct {
	mu       sync.RWMutex
	identity *apimodel.Identity
	token    *oauth2.Token
	// generation changes on every SetSession and ClearSession.
	generation uint64

	// persistMu orders durable writes to match the order of memory mutations
	// without holding mu during I/O.
	persistMu sync.Mutex
	persister Persister
	logger    zerolog.Logger
}

type StoreOption func(*Store)

// WithPersister sets the durable layer for the identity.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) {
		s.persister = p
	}
}

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty, unauthenticated store. Without WithPersister the
// identity is kept in a process-local MemoryPersister.
func NewStore(options ...StoreOption) *Store {
	s := &Store{
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.persister == nil {
		s.persister = NewMemoryPersister()
	}
	return s
}

// SetSession replaces identity and token in one step and persists the identity.
func (s *Store) SetSession(ctx context.Context, identity apimodel.Identity, token *oauth2.Token) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.set(ctx, identity, token)
}

// SetSessionIf behaves like SetSession but only while the session is still the
// one identified by generation. It reports whether the session was replaced.
func (s *Store) SetSessionIf(ctx context.Context, generation uint64, identity apimodel.Identity, token *oauth2.Token) bool {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.Generation() != generation {
		s.logger.Debug().Uint64("generation", generation).Msg("sessions: stale session write dropped")
		return false
	}
	s.set(ctx, identity, token)
	return true
}

// ClearSession removes identity and token and deletes the persisted identity.
// Calling it on an empty store is a no-op apart from the durable delete.
func (s *Store) ClearSession(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.clear(ctx)
}

// ClearSessionIf clears the session only while it is still the one identified
// by generation.
func (s *Store) ClearSessionIf(ctx context.Context, generation uint64) bool {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.Generation() != generation {
		return false
	}
	s.clear(ctx)
	return true
}

// Generation identifies the current session. Two reads return the same value
// only if no session was set or cleared in between.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// set and clear must be called with persistMu held.
func (s *Store) set(ctx context.Context, identity apimodel.Identity, token *oauth2.Token) {
	stored := identity.Clone()
	s.mu.Lock()
	s.identity = &stored
	s.token = cloneToken(token)
	s.generation++
	s.mu.Unlock()

	if err := s.persister.Save(ctx, stored.Clone()); err != nil {
		s.logger.Error().Err(err).Str("user_id", stored.ID).Msg("sessions: persisting identity failed")
	}
}

func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	s.identity = nil
	s.token = nil
	s.generation++
	s.mu.Unlock()

	if err := s.persister.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Msg("sessions: clearing persisted identity failed")
	}
}

// UpdateIdentity merges the non-nil fields of update into the current identity.
// Without a current identity nothing happens.
func (s *Store) UpdateIdentity(ctx context.Context, update apimodel.IdentityUpdate) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		s.logger.Debug().Msg("sessions: identity update ignored, no session")
		return
	}
	merged := s.identity.Apply(update)
	s.identity = &merged
	s.mu.Unlock()

	if err := s.persister.Save(ctx, merged.Clone()); err != nil {
		s.logger.Error().Err(err).Str("user_id", merged.ID).Msg("sessions: persisting identity update failed")
	}
}

// Hydrate loads a previously persisted identity into memory. The token stays
// empty, so the store reports unauthenticated until a refresh or login
// completes. A live in-memory identity is never overwritten.
func (s *Store) Hydrate(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	identity, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("sessions: loading persisted identity failed")
		return
	}
	if identity == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		restored := identity.Clone()
		s.identity = &restored
	}
}

// CurrentToken returns a copy of the access token, or nil.
func (s *Store) CurrentToken() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneToken(s.token)
}

// AccessToken returns the raw bearer string, or "".
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// CurrentIdentity returns a copy of the identity, or nil.
func (s *Store) CurrentIdentity() *apimodel.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	c := s.identity.Clone()
	return &c
}

// Snapshot returns identity and token read under a single lock.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Session{Token: cloneToken(s.token)}
	if s.identity != nil {
		c := s.identity.Clone()
		out.Identity = &c
	}
	return out
}

// IsAuthenticated is true when both identity and token are held in memory.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil && s.token != nil
}

func (s *Store) Role() apimodel.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Role
}

func (s *Store) IsAdmin() bool {
	return s.Role() == apimodel.RoleAdmin
}

func (s *Store) IsPatient() bool {
	return s.Role() == apimodel.RolePatient
}

func cloneToken(t *oauth2.Token) *oauth2.Token {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
