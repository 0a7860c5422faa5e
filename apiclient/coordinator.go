package apiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/sessions"
	"github.com/rs/zerolog"
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

func (s refreshState) String() string {
	if s == stateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// refreshCoordinator guarantees at most one renewal in flight. Requests that
// hit a 401 while a renewal runs queue as waiters and are released in arrival
// order with the renewal's outcome.
type refreshCoordinator struct {
	mu      sync.Mutex
	state   refreshState
	waiters []chan error

	store    SessionStore
	renewer  Renewer
	timeout  time.Duration
	listener SessionListener
	logger   zerolog.Logger
	metrics  *Metrics
}

type renewResult struct {
	resp *apimodel.SessionResponse
	err  error
}

// errSessionReplaced means the session was cleared or replaced by a login or
// logout while a renewal was in flight. The renewal result is discarded.
var errSessionReplaced = errors.New("session changed while refreshing")

// await blocks until the session holds a token newer than staleToken.
//
// When idle and the store already holds a different token, a refresh finished
// after the rejected request was sent, so the caller can resend at once.
// Otherwise the caller joins the waiter queue, starting a renewal if none runs.
func (rc *refreshCoordinator) await(ctx context.Context, staleToken string) error {
	done, err := rc.enqueue(staleToken)
	if done == nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrAuthorizationExpired, ctx.Err())
	}
}

// enqueue appends a waiter, starting a renewal when idle. A nil channel means
// the caller does not need to wait and gets the returned error at once.
func (rc *refreshCoordinator) enqueue(staleToken string) (chan error, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.state == stateIdle {
		current := ""
		if token := rc.store.CurrentToken(); token != nil {
			current = token.AccessToken
		}
		if current != "" && current != staleToken {
			return nil, nil
		}
		// The session ended while this request was in flight.
		if current == "" && rc.store.CurrentIdentity() == nil {
			return nil, ErrUnauthenticated
		}
	}

	done := make(chan error, 1)
	rc.waiters = append(rc.waiters, done)
	if rc.state == stateIdle {
		rc.state = stateRefreshing
		go rc.run(rc.store.Generation())
	}
	return done, nil
}

// run performs one renewal for the session identified by generation and
// releases every waiter, in the order they queued, with its outcome.
func (rc *refreshCoordinator) run(generation uint64) {
	started := time.Now()
	rc.logger.Info().Msg("apiclient: refreshing session")

	err := rc.renew(generation)

	// The store is updated before the state returns to idle, so a 401 that
	// arrives after this point sees the new token.
	rc.mu.Lock()
	waiters := rc.waiters
	rc.waiters = nil
	rc.state = stateIdle
	rc.mu.Unlock()

	var outcome error
	switch {
	case err == nil:
	case errors.Is(err, errSessionReplaced):
		outcome = fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	default:
		outcome = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	for _, w := range waiters {
		w <- outcome
	}

	elapsed := time.Since(started)
	rc.metrics.observeRefresh(err == nil, elapsed, len(waiters))
	switch {
	case err == nil:
		rc.logger.Info().Int("waiters", len(waiters)).Dur("elapsed", elapsed).Msg("apiclient: session refreshed")
	case errors.Is(err, errSessionReplaced):
		rc.logger.Info().Err(err).Int("waiters", len(waiters)).Msg("apiclient: renewal discarded, session changed")
	default:
		rc.logger.Warn().Err(err).Int("waiters", len(waiters)).Dur("elapsed", elapsed).Msg("apiclient: session refresh failed, session ended")
		if rc.listener != nil {
			rc.listener.SessionEnded(outcome)
		}
	}
}

// renew runs one renewal bounded by the coordinator timeout and applies the
// result to the store: the new session on success, a cleared one on failure.
// Neither happens if the session moved on from generation in the meantime.
func (rc *refreshCoordinator) renew(generation uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), rc.timeout)
	defer cancel()

	results := make(chan renewResult, 1)
	go func() {
		resp, err := rc.renewer.Renew(ctx)
		results <- renewResult{resp: resp, err: err}
	}()

	var err error
	select {
	case r := <-results:
		err = r.err
		if err == nil {
			err = rc.apply(ctx, generation, r.resp)
		}
	case <-ctx.Done():
		err = fmt.Errorf("renewal did not settle within %s: %w", rc.timeout, ctx.Err())
	}

	if err != nil && !errors.Is(err, errSessionReplaced) {
		if !rc.store.ClearSessionIf(context.WithoutCancel(ctx), generation) {
			return fmt.Errorf("%w: %w", errSessionReplaced, err)
		}
	}
	return err
}

func (rc *refreshCoordinator) apply(ctx context.Context, generation uint64, resp *apimodel.SessionResponse) error {
	if resp == nil || strings.TrimSpace(resp.AccessToken) == "" {
		return fmt.Errorf("%w: renewal returned no access token", ErrMalformedResponse)
	}
	identity := resp.User
	if identity == nil {
		identity = rc.store.CurrentIdentity()
	}
	if identity == nil {
		return errors.New("renewal returned no identity and none is held")
	}
	if !rc.store.SetSessionIf(context.WithoutCancel(ctx), generation, *identity, sessions.NewAccessToken(resp.AccessToken)) {
		return errSessionReplaced
	}
	return nil
}

func (rc *refreshCoordinator) currentState() (refreshState, int) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.state, len(rc.waiters)
}
