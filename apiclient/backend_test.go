package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/care-portal/apiclient"
	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/internal/utils"
	"github.com/jrsteele09/care-portal/sessions"
	"github.com/stretchr/testify/require"
)

const (
	refreshCookieName = "care_refresh"
	testUserID        = "user-1"
	testUserEmail     = "jane.doe@clinic.test"
	testPassword      = "Sup3rSecret"
	firstToken        = "tok1"
	renewedToken      = "tok2"
)

func testIdentity() apimodel.Identity {
	return apimodel.Identity{
		ID:        testUserID,
		Email:     testUserEmail,
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      apimodel.RolePatient,
		PatientID: utils.Ptr("patient-1"),
	}
}

// apiCall is one request seen by the fake backend on /api.
type apiCall struct {
	Path          string
	Authorization string
	RequestID     string
}

// fakeBackend mimics the care portal API closely enough to drive the client:
// /api accepts exactly one bearer token at a time and /auth/refresh swaps it.
type fakeBackend struct {
	server *httptest.Server

	mu            sync.Mutex
	validToken    string
	nextToken     string
	refreshUser   *apimodel.Identity
	refreshStatus int
	rejectAll     bool
	refreshGate   chan struct{}
	slowGate      chan struct{}
	apiCalls      []apiCall

	refreshCalls atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		validToken: firstToken,
		nextToken:  renewedToken,
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.serveHTTP))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) serveHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == apiclient.RefreshPath && r.Method == http.MethodPost:
		b.handleRefresh(w, r)
	case r.URL.Path == apiclient.LoginPath && r.Method == http.MethodPost:
		b.handleLogin(w, r)
	case r.URL.Path == apiclient.LogoutPath:
		http.SetCookie(w, &http.Cookie{Name: refreshCookieName, Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == apiclient.MePath && r.Method == http.MethodPatch:
		b.handleProfile(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/"):
		b.handleAPI(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	if r.Header.Get("Authorization") != "" {
		writeTestError(w, http.StatusBadRequest, "refresh must not carry a bearer token")
		return
	}
	if _, err := r.Cookie(refreshCookieName); err != nil {
		writeTestError(w, http.StatusUnauthorized, "missing refresh cookie")
		return
	}

	b.mu.Lock()
	gate := b.refreshGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refreshStatus != 0 {
		writeTestError(w, b.refreshStatus, "refresh rejected")
		return
	}
	b.validToken = b.nextToken
	writeTestJSON(w, http.StatusOK, apimodel.Envelope[apimodel.SessionResponse]{
		Data: apimodel.SessionResponse{AccessToken: b.nextToken, User: b.refreshUser},
	})
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req apimodel.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != testPassword {
		writeTestError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: refreshCookieName, Value: "rt-login", Path: "/", HttpOnly: true})
	identity := testIdentity()
	b.mu.Lock()
	token := b.validToken
	b.mu.Unlock()
	writeTestJSON(w, http.StatusOK, apimodel.Envelope[apimodel.SessionResponse]{
		Data: apimodel.SessionResponse{AccessToken: token, User: &identity},
	})
}

func (b *fakeBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	var update apimodel.IdentityUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeTestError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeTestJSON(w, http.StatusOK, apimodel.Envelope[apimodel.Identity]{Data: testIdentity().Apply(update)})
}

func (b *fakeBackend) handleAPI(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")

	b.mu.Lock()
	b.apiCalls = append(b.apiCalls, apiCall{Path: r.URL.Path, Authorization: auth, RequestID: r.Header.Get(apiclient.HeaderRequestID)})
	accepted := !b.rejectAll && auth == "Bearer "+b.validToken
	slow := b.slowGate
	b.mu.Unlock()

	if r.URL.Path == "/api/boom" {
		writeTestError(w, http.StatusInternalServerError, "boom")
		return
	}
	if !accepted {
		if r.URL.Path == "/api/slow" && slow != nil {
			<-slow
		}
		writeTestError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeTestJSON(w, http.StatusOK, apimodel.Envelope[map[string]string]{
		Data: map[string]string{"path": r.URL.Path, "auth": auth},
	})
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) calls() []apiCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]apiCall(nil), b.apiCalls...)
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeTestError(w http.ResponseWriter, status int, desc string) {
	writeTestJSON(w, status, apimodel.ErrorResponse{
		Error:            strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		ErrorDescription: desc,
	})
}

// testFixture is a client wired to a fake backend, with a refresh cookie in
// its jar and an established session holding firstToken.
type testFixture struct {
	backend *fakeBackend
	store   *sessions.Store
	client  *apiclient.Client
	jar     http.CookieJar
}

func setupTestFixture(t *testing.T, options ...apiclient.Option) *testFixture {
	t.Helper()

	backend := newFakeBackend(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(backend.server.URL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: refreshCookieName, Value: "rt-1", Path: "/"}})

	store := sessions.NewStore()
	opts := append([]apiclient.Option{apiclient.WithHTTPClient(&http.Client{Jar: jar})}, options...)
	client, err := apiclient.New(backend.server.URL, store, opts...)
	require.NoError(t, err)

	store.SetSession(context.Background(), testIdentity(), sessions.NewAccessToken(firstToken))
	return &testFixture{backend: backend, store: store, client: client, jar: jar}
}

// expireToken makes the backend reject the current token until a refresh.
func (f *testFixture) expireToken() {
	f.backend.set(func(b *fakeBackend) { b.validToken = "" })
}

func (f *testFixture) get(ctx context.Context, path string) (*apiclient.Response, error) {
	return f.client.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: path})
}
