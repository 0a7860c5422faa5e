package cookiestore_test

import (
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/jrsteele09/care-portal/internal/cookiestore"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{Name: "care_refresh", Value: value, Path: "/auth", MaxAge: maxAge, HttpOnly: true}
}

func TestJar_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	login := mustURL(t, "http://localhost:8080/auth/login")
	refresh := mustURL(t, "http://localhost:8080/auth/refresh")

	jar, err := cookiestore.Open(dir)
	require.NoError(t, err)
	jar.SetCookies(login, []*http.Cookie{refreshCookie("first", 3600)})
	require.Equal(t, 1, jar.Len())

	info, err := os.Stat(jar.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := cookiestore.Open(dir)
	require.NoError(t, err)
	cookies := reopened.Cookies(refresh)
	require.Len(t, cookies, 1)
	require.Equal(t, "first", cookies[0].Value)

	// The cookie is scoped to /auth.
	require.Empty(t, reopened.Cookies(mustURL(t, "http://localhost:8080/api/patients")))
}

func TestJar_RotationAndDeletion(t *testing.T) {
	dir := t.TempDir()
	u := mustURL(t, "http://localhost:8080/auth/refresh")

	jar, err := cookiestore.Open(dir)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{refreshCookie("first", 3600)})
	jar.SetCookies(u, []*http.Cookie{refreshCookie("second", 3600)})
	require.Equal(t, 1, jar.Len())
	require.Equal(t, "second", jar.Cookies(u)[0].Value)

	jar.SetCookies(u, []*http.Cookie{refreshCookie("", -1)})
	require.Zero(t, jar.Len())
	require.Empty(t, jar.Cookies(u))

	reopened, err := cookiestore.Open(dir)
	require.NoError(t, err)
	require.Empty(t, reopened.Cookies(u))
}

func TestJar_ExpiredCookiesAreNotReplayed(t *testing.T) {
	dir := t.TempDir()
	u := mustURL(t, "http://localhost:8080/auth/refresh")
	now := time.Now()

	jar, err := cookiestore.Open(dir, cookiestore.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{refreshCookie("short", 60)})
	require.Equal(t, 1, jar.Len())

	later, err := cookiestore.Open(dir, cookiestore.WithNowFunc(func() time.Time { return now.Add(2 * time.Minute) }))
	require.NoError(t, err)
	require.Zero(t, later.Len())
}

func TestJar_Clear(t *testing.T) {
	dir := t.TempDir()
	u := mustURL(t, "http://localhost:8080/auth/refresh")

	jar, err := cookiestore.Open(dir)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{refreshCookie("value", 3600)})

	require.NoError(t, jar.Clear())
	require.Empty(t, jar.Cookies(u))
	_, err = os.Stat(jar.Path())
	require.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	require.NoError(t, jar.Clear())
}

func TestOpen_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	jar, err := cookiestore.Open(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jar.Path(), []byte("{not json"), 0o600))

	_, err = cookiestore.Open(dir)
	require.Error(t, err)
}
