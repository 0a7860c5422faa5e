package apiclient

import (
	"context"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/sessions"
	"golang.org/x/oauth2"
)

//go:generate mockgen -source=collaborators.go -destination=mocks/mocks.go -package=mocks SessionStore,Renewer,SessionListener

// SessionStore is the part of sessions.Store the client depends on.
type SessionStore interface {
	SetSession(ctx context.Context, identity apimodel.Identity, token *oauth2.Token)
	ClearSession(ctx context.Context)
	UpdateIdentity(ctx context.Context, update apimodel.IdentityUpdate)
	Hydrate(ctx context.Context)
	CurrentToken() *oauth2.Token
	CurrentIdentity() *apimodel.Identity
	IsAuthenticated() bool

	// Generation, SetSessionIf and ClearSessionIf let a renewal settle only
	// against the session it started from.
	Generation() uint64
	SetSessionIf(ctx context.Context, generation uint64, identity apimodel.Identity, token *oauth2.Token) bool
	ClearSessionIf(ctx context.Context, generation uint64) bool
}

var _ SessionStore = (*sessions.Store)(nil)

// Renewer exchanges the ambient refresh credential for a new access token.
// Implementations must honour ctx; the coordinator abandons a renewal once
// its deadline passes either way.
type Renewer interface {
	Renew(ctx context.Context) (*apimodel.SessionResponse, error)
}

type RenewerFunc func(ctx context.Context) (*apimodel.SessionResponse, error)

func (f RenewerFunc) Renew(ctx context.Context) (*apimodel.SessionResponse, error) {
	return f(ctx)
}

// SessionListener is told when a refresh fails and the session is gone.
// Navigation back to a login entry point is the listener's job.
type SessionListener interface {
	SessionEnded(reason error)
}

type SessionListenerFunc func(reason error)

func (f SessionListenerFunc) SessionEnded(reason error) {
	f(reason)
}
