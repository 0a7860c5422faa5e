package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/care-portal/apiclient"
	"github.com/jrsteele09/care-portal/apiclient/mocks"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/sessions"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRefresh_FailureEndsSessionOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	listener := mocks.NewMockSessionListener(ctrl)
	ended := make(chan error, 1)
	listener.EXPECT().SessionEnded(gomock.Any()).Times(1).Do(func(reason error) {
		ended <- reason
	})

	persister := sessions.NewMemoryPersister()
	f := setupTestFixture(t)
	store := sessions.NewStore(sessions.WithPersister(persister))
	store.SetSession(context.Background(), testIdentity(), sessions.NewAccessToken(firstToken))
	client, err := apiclient.New(f.backend.server.URL, store,
		apiclient.WithHTTPClient(&http.Client{Jar: f.jar}),
		apiclient.WithSessionListener(listener),
	)
	require.NoError(t, err)

	f.expireToken()
	gate := make(chan struct{})
	f.backend.set(func(b *fakeBackend) {
		b.refreshGate = gate
		b.refreshStatus = http.StatusUnauthorized
	})

	const n = 5
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Do(context.Background(), &apiclient.Request{Path: "/api/evaluations"})
			errs <- err
		}()
	}
	require.Eventually(t, func() bool {
		_, waiters := client.RefreshState()
		return waiters == n
	}, 5*time.Second, 5*time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
		require.True(t, apiclient.SessionEnded(err))
	}

	select {
	case reason := <-ended:
		require.ErrorIs(t, reason, apiclient.ErrRefreshFailed)
		require.True(t, apiclient.IsUnauthorized(reason))
	case <-time.After(5 * time.Second):
		t.Fatal("session listener was not notified")
	}

	require.Equal(t, int32(1), f.backend.refreshCalls.Load())
	require.False(t, store.IsAuthenticated())
	require.Nil(t, store.CurrentIdentity())
	stored, err := persister.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, stored)

	// Later requests fail fast without another refresh or notification.
	_, err = client.Do(context.Background(), &apiclient.Request{Path: "/api/evaluations"})
	require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	require.Equal(t, int32(1), f.backend.refreshCalls.Load())
}

func TestRefresh_TimeoutWithUnresponsiveRenewer(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	renewer := apiclient.RenewerFunc(func(context.Context) (*apimodel.SessionResponse, error) {
		<-release
		return &apimodel.SessionResponse{AccessToken: renewedToken}, nil
	})
	f := setupTestFixture(t, apiclient.WithRenewer(renewer), apiclient.WithRefreshTimeout(50*time.Millisecond))
	f.expireToken()

	start := time.Now()
	_, err := f.get(context.Background(), "/api/patients")
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
	require.False(t, f.store.IsAuthenticated())

	state, waiters := f.client.RefreshState()
	require.Equal(t, "idle", state)
	require.Zero(t, waiters)
}

func TestRefresh_CancelledWaiterLeavesRefreshRunning(t *testing.T) {
	release := make(chan struct{})
	renewer := apiclient.RenewerFunc(func(context.Context) (*apimodel.SessionResponse, error) {
		<-release
		return &apimodel.SessionResponse{AccessToken: renewedToken}, nil
	})
	f := setupTestFixture(t, apiclient.WithRenewer(renewer))
	f.expireToken()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := f.get(ctx, "/api/patients")
		errCh <- err
	}()
	require.Eventually(t, func() bool {
		_, waiters := f.client.RefreshState()
		return waiters == 1
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	err := <-errCh
	require.ErrorIs(t, err, apiclient.ErrAuthorizationExpired)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		return f.store.AccessToken() == renewedToken
	}, 5*time.Second, 5*time.Millisecond)
	require.Equal(t, testIdentity(), *f.store.CurrentIdentity())
}

func TestRefresh_CustomRenewer(t *testing.T) {
	tests := []struct {
		name          string
		identity      *apimodel.Identity
		resp          *apimodel.SessionResponse
		renewErr      error
		expectedErr   error
		expectedToken string
	}{
		{
			name:          "token only keeps held identity",
			identity:      identityPtr(testIdentity()),
			resp:          &apimodel.SessionResponse{AccessToken: renewedToken},
			expectedToken: renewedToken,
		},
		{
			name:        "empty token is malformed",
			identity:    identityPtr(testIdentity()),
			resp:        &apimodel.SessionResponse{},
			expectedErr: apiclient.ErrMalformedResponse,
		},
		{
			name:        "renewer error",
			identity:    identityPtr(testIdentity()),
			renewErr:    errors.New("refresh cookie revoked"),
			expectedErr: apiclient.ErrRefreshFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			renewer := mocks.NewMockRenewer(ctrl)
			renewer.EXPECT().Renew(gomock.Any()).Return(tt.resp, tt.renewErr).Times(1)

			f := setupTestFixture(t, apiclient.WithRenewer(renewer))
			f.expireToken()
			if tt.expectedToken != "" {
				f.backend.set(func(b *fakeBackend) { b.validToken = tt.expectedToken })
			}

			_, err := f.get(context.Background(), "/api/patients")
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
				require.False(t, f.store.IsAuthenticated())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedToken, f.store.AccessToken())
			require.Equal(t, *tt.identity, *f.store.CurrentIdentity())
			require.Equal(t, int32(0), f.backend.refreshCalls.Load())
		})
	}
}

func TestRefresh_WithMockStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	renewer := mocks.NewMockRenewer(ctrl)

	f := setupTestFixture(t)
	f.expireToken()
	client, err := apiclient.New(f.backend.server.URL, store,
		apiclient.WithHTTPClient(&http.Client{Jar: f.jar}),
		apiclient.WithRenewer(renewer),
	)
	require.NoError(t, err)

	identity := testIdentity()
	stale := sessions.NewAccessToken(firstToken)
	fresh := sessions.NewAccessToken(renewedToken)

	gomock.InOrder(
		// Do: session check, then the first send.
		store.EXPECT().CurrentToken().Return(stale),
		store.EXPECT().CurrentToken().Return(stale),
		// Coordinator shortcut check finds the same stale token, then the
		// renewal is pinned to the session it started from.
		store.EXPECT().CurrentToken().Return(stale),
		store.EXPECT().Generation().Return(uint64(7)),
		renewer.EXPECT().Renew(gomock.Any()).DoAndReturn(func(context.Context) (*apimodel.SessionResponse, error) {
			f.backend.set(func(b *fakeBackend) { b.validToken = renewedToken })
			return &apimodel.SessionResponse{AccessToken: renewedToken, User: &identity}, nil
		}),
		store.EXPECT().SetSessionIf(gomock.Any(), uint64(7), identity, gomock.Any()).Return(true),
		// The resend reads the renewed token.
		store.EXPECT().CurrentToken().Return(fresh),
	)

	_, err = client.Do(context.Background(), &apiclient.Request{Path: "/api/patients"})
	require.NoError(t, err)

	calls := f.backend.calls()
	require.Len(t, calls, 2)
	require.Equal(t, "Bearer "+renewedToken, calls[1].Authorization)
}

func TestRefresh_LogoutDuringRefreshIsNotUndone(t *testing.T) {
	ctrl := gomock.NewController(t)
	// A logout is not a failed refresh; the listener stays quiet.
	listener := mocks.NewMockSessionListener(ctrl)
	f := setupTestFixture(t, apiclient.WithSessionListener(listener))
	ctx := context.Background()

	f.expireToken()
	gate := make(chan struct{})
	f.backend.set(func(b *fakeBackend) { b.refreshGate = gate })

	errCh := make(chan error, 1)
	go func() {
		_, err := f.get(ctx, "/api/patients")
		errCh <- err
	}()
	require.Eventually(t, func() bool {
		return f.backend.refreshCalls.Load() == 1
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, f.client.Logout(ctx))
	require.False(t, f.store.IsAuthenticated())

	close(gate)
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
		require.NotErrorIs(t, err, apiclient.ErrRefreshFailed)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting request was not released")
	}
	require.Eventually(t, func() bool {
		state, waiters := f.client.RefreshState()
		return state == "idle" && waiters == 0
	}, 5*time.Second, 5*time.Millisecond)

	require.False(t, f.store.IsAuthenticated())
	require.Nil(t, f.store.CurrentIdentity())
	require.Empty(t, f.store.AccessToken())

	_, err := f.get(ctx, "/api/patients")
	require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	require.Equal(t, int32(1), f.backend.refreshCalls.Load())
}

func TestRefresh_LoginDuringRefreshKeepsNewSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.expireToken()
	gate := make(chan struct{})
	f.backend.set(func(b *fakeBackend) { b.refreshGate = gate })

	errCh := make(chan error, 1)
	go func() {
		_, err := f.get(ctx, "/api/patients")
		errCh <- err
	}()
	require.Eventually(t, func() bool {
		return f.backend.refreshCalls.Load() == 1
	}, 5*time.Second, 5*time.Millisecond)

	const loginToken = "tok-login"
	f.backend.set(func(b *fakeBackend) { b.validToken = loginToken })
	_, err := f.client.Login(ctx, testUserEmail, testPassword)
	require.NoError(t, err)

	close(gate)
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting request was not released")
	}
	require.Eventually(t, func() bool {
		state, _ := f.client.RefreshState()
		return state == "idle"
	}, 5*time.Second, 5*time.Millisecond)

	require.True(t, f.store.IsAuthenticated())
	require.Equal(t, loginToken, f.store.AccessToken())
}

func TestRefresh_FailureAfterLogoutDoesNotNotify(t *testing.T) {
	ctrl := gomock.NewController(t)
	listener := mocks.NewMockSessionListener(ctrl)
	f := setupTestFixture(t, apiclient.WithSessionListener(listener))
	ctx := context.Background()

	f.expireToken()
	gate := make(chan struct{})
	f.backend.set(func(b *fakeBackend) {
		b.refreshGate = gate
		b.refreshStatus = http.StatusUnauthorized
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := f.get(ctx, "/api/patients")
		errCh <- err
	}()
	require.Eventually(t, func() bool {
		return f.backend.refreshCalls.Load() == 1
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, f.client.Logout(ctx))
	close(gate)

	err := <-errCh
	require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	require.Eventually(t, func() bool {
		state, _ := f.client.RefreshState()
		return state == "idle"
	}, 5*time.Second, 5*time.Millisecond)
	require.False(t, f.store.IsAuthenticated())
}

func identityPtr(i apimodel.Identity) *apimodel.Identity {
	return &i
}
