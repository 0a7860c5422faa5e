package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/care-portal/apimodel"
	"github.com/jrsteele09/care-portal/internal/config"
	"github.com/jrsteele09/care-portal/internal/utils"
	"github.com/jrsteele09/care-portal/records"
	fakerecordrepo "github.com/jrsteele09/care-portal/records/repofake"
	"github.com/jrsteele09/care-portal/server"
	"github.com/jrsteele09/care-portal/token"
	refreshrepofake "github.com/jrsteele09/care-portal/token/refresh/repofake"
	"github.com/jrsteele09/care-portal/users"
	fakeuserrepo "github.com/jrsteele09/care-portal/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testPassword     = "Sup3rSecret"
	adminEmail       = "admin@clinic.test"
	patientEmail     = "jane.doe@clinic.test"
	otherEmail       = "john.roe@clinic.test"
	accessTokenTTL   = time.Minute
	refreshCookieKey = "care_refresh"
)

// testClock is a settable clock shared by the token manager and the tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	clock      *testClock
	config     config.Config
	userRepo   users.UserRepo
	recordRepo records.Repo
	tokens     *token.Manager
	registry   *prometheus.Registry
	srv        *server.Server
	ts         *httptest.Server

	admin       *users.User
	patient     *users.User
	other       *users.User
	patientFile *apimodel.Record
	otherFile   *apimodel.Record
}

type fixtureOption func(*testFixture, *[]server.Option)

func withServerOption(opt server.Option) fixtureOption {
	return func(_ *testFixture, opts *[]server.Option) {
		*opts = append(*opts, opt)
	}
}

// setupTestFixture starts a server over in-memory repos holding an admin and
// two patients, each patient linked to their own patient file.
func setupTestFixture(t *testing.T, options ...fixtureOption) *testFixture {
	t.Helper()

	f := &testFixture{
		clock:      &testClock{now: time.Now().Truncate(time.Second)},
		config:     config.New(),
		userRepo:   fakeuserrepo.NewFakeUserRepo(),
		recordRepo: fakerecordrepo.NewFakeRecordRepo(),
		registry:   prometheus.NewRegistry(),
	}

	var err error
	f.patientFile, err = f.recordRepo.Create(records.KindPatients, map[string]any{"firstName": "Jane"}, "")
	require.NoError(t, err)
	f.otherFile, err = f.recordRepo.Create(records.KindPatients, map[string]any{"firstName": "John"}, "")
	require.NoError(t, err)

	f.admin = f.createUser(t, "admin-1", adminEmail, apimodel.RoleAdmin, nil)
	f.patient = f.createUser(t, "patient-user-1", patientEmail, apimodel.RolePatient, utils.Ptr(f.patientFile.ID))
	f.other = f.createUser(t, "patient-user-2", otherEmail, apimodel.RolePatient, utils.Ptr(f.otherFile.ID))

	signer, _, err := token.NewSigner("server-test", "")
	require.NoError(t, err)
	f.tokens = token.New(signer,
		token.WithIssuer(f.config.GetIssuer()),
		token.WithAudience(f.config.GetAudience()),
		token.WithAccessTokenExpiry(accessTokenTTL),
		token.WithNowFunc(f.clock.Now),
	)

	serverOpts := []server.Option{
		server.WithRegistry(f.registry),
		server.WithLogger(zerolog.Nop()),
	}
	for _, opt := range options {
		opt(f, &serverOpts)
	}

	f.srv, err = server.New(f.config, server.Repos{
		Users:         f.userRepo,
		Records:       f.recordRepo,
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, f.tokens, serverOpts...)
	require.NoError(t, err)

	f.ts = httptest.NewServer(f.srv)
	t.Cleanup(f.ts.Close)
	return f
}

func (f *testFixture) createUser(t *testing.T, id, email string, role apimodel.Role, patientID *string) *users.User {
	t.Helper()

	hash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	user := &users.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "Test",
		Role:         role,
		PatientID:    patientID,
	}
	require.NoError(t, f.userRepo.Upsert(user))
	return user
}

// tokenFor issues an access token directly, skipping the login round trip.
func (f *testFixture) tokenFor(t *testing.T, user *users.User) string {
	t.Helper()

	raw, err := f.tokens.CreateAccessToken(user)
	require.NoError(t, err)
	return raw
}

type testRequest struct {
	method  string
	path    string
	token   string
	body    any
	header  map[string]string
	cookies []*http.Cookie
}

func (f *testFixture) do(t *testing.T, req testRequest) *http.Response {
	t.Helper()

	var body io.Reader
	if req.body != nil {
		raw, ok := req.body.(string)
		if !ok {
			b, err := json.Marshal(req.body)
			require.NoError(t, err)
			raw = string(b)
		}
		body = bytes.NewBufferString(raw)
	}

	httpReq, err := http.NewRequestWithContext(context.Background(), req.method, f.ts.URL+req.path, body)
	require.NoError(t, err)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	for k, v := range req.header {
		httpReq.Header.Set(k, v)
	}
	for _, c := range req.cookies {
		httpReq.AddCookie(c)
	}

	resp, err := f.ts.Client().Do(httpReq)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// decodeData reads an enveloped response body into T.
func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var env apimodel.Envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}

func decodeError(t *testing.T, resp *http.Response) apimodel.ErrorResponse {
	t.Helper()

	var out apimodel.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == refreshCookieKey {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", refreshCookieKey)
	return nil
}

func TestNew_RequiresRepos(t *testing.T) {
	signer, _, err := token.NewSigner("", "")
	require.NoError(t, err)

	_, err = server.New(config.New(), server.Repos{Users: fakeuserrepo.NewFakeUserRepo()}, token.New(signer))
	require.Error(t, err)
}

func TestRequestID(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, testRequest{method: http.MethodGet, path: server.RouteHealth, header: map[string]string{server.HeaderRequestID: "req-123"}})
	require.Equal(t, "req-123", resp.Header.Get(server.HeaderRequestID))

	resp = f.do(t, testRequest{method: http.MethodGet, path: server.RouteHealth})
	require.Len(t, resp.Header.Get(server.HeaderRequestID), 26)
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		resp := f.do(t, testRequest{method: http.MethodOptions, path: server.RouteAuthRefresh, header: map[string]string{
			"Origin":                        "http://localhost:3000",
			"Access-Control-Request-Method": http.MethodPost,
		}})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
		require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		resp := f.do(t, testRequest{method: http.MethodOptions, path: server.RouteAuthRefresh, header: map[string]string{
			"Origin":                        "https://evil.test",
			"Access-Control-Request-Method": http.MethodPost,
		}})
		require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("actual request exposes request id", func(t *testing.T) {
		resp := f.do(t, testRequest{method: http.MethodGet, path: server.RouteHealth, header: map[string]string{"Origin": "http://localhost:5173"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), server.HeaderRequestID)
	})
}

func TestNotFoundIsJSON(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, testRequest{method: http.MethodGet, path: "/nowhere"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", decodeError(t, resp).Error)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		f := setupTestFixture(t, withServerOption(server.WithHealthCheck("redis", func(context.Context) error { return nil })))
		resp := f.do(t, testRequest{method: http.MethodGet, path: server.RouteHealth})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeData[map[string]any](t, resp)
		require.Equal(t, "ok", body["status"])
	})

	t.Run("failing dependency", func(t *testing.T) {
		f := setupTestFixture(t, withServerOption(server.WithHealthCheck("redis", func(context.Context) error {
			return io.ErrUnexpectedEOF
		})))
		resp := f.do(t, testRequest{method: http.MethodGet, path: server.RouteHealth})
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestJWKS(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, testRequest{method: http.MethodGet, path: server.RouteWellKnownJWKS})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jwks token.JWKS
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jwks))
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "server-test", jwks.Keys[0].Kid)
	require.Equal(t, "RS256", jwks.Keys[0].Alg)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setupTestFixture(t)

	f.do(t, testRequest{method: http.MethodGet, path: "/api/patients/" + f.patientFile.ID, token: f.tokenFor(t, f.admin)})
	resp := f.do(t, testRequest{method: http.MethodGet, path: server.RouteMetrics})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `careportal_http_requests_total{code="200",method="GET",route="/api/{kind}/{id}"} 1`)
}
