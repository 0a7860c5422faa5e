// Package cookiestore is an http.CookieJar that survives process restarts.
// The command line client keeps its refresh cookie here between invocations.
package cookiestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const FileName = "cookies.json"

var _ http.CookieJar = (*Jar)(nil)

type savedCookie struct {
	URL      string        `json:"url"`
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Expires  time.Time     `json:"expires,omitzero"`
	Secure   bool          `json:"secure,omitempty"`
	HttpOnly bool          `json:"httpOnly,omitempty"`
	SameSite http.SameSite `json:"sameSite,omitempty"`
}

// Jar delegates cookie matching to net/http/cookiejar and mirrors every cookie
// it accepts into a JSON file, which is replayed into the jar on Open.
type Jar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	path    string
	entries map[string]savedCookie
	now     func() time.Time
	logger  zerolog.Logger
}

type Option func(*Jar)

func WithLogger(logger zerolog.Logger) Option {
	return func(j *Jar) {
		j.logger = logger
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(j *Jar) {
		j.now = now
	}
}

// Open loads the jar stored in stateDir. A missing file gives an empty jar.
func Open(stateDir string, options ...Option) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookiestore: %w", err)
	}
	j := &Jar{
		jar:     inner,
		path:    filepath.Join(stateDir, FileName),
		entries: make(map[string]savedCookie),
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(j)
	}

	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cookiestore: read %s: %w", j.path, err)
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("cookiestore: decode %s: %w", j.path, err)
	}

	now := j.now()
	for _, sc := range saved {
		if !sc.Expires.IsZero() && !sc.Expires.After(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			j.logger.Warn().Err(err).Str("url", sc.URL).Msg("cookiestore: skipping cookie with bad url")
			continue
		}
		j.jar.SetCookies(u, []*http.Cookie{sc.cookie()})
		j.entries[entryKey(u, sc.Path, sc.Name)] = sc
	}
	return j, nil
}

// Path is the file the jar is written to.
func (j *Jar) Path() string {
	return j.path
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// SetCookies stores cookies for u and rewrites the file. A failed write is
// logged; the in-memory jar is still updated.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	now := j.now()
	origin := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	for _, c := range cookies {
		key := entryKey(u, c.Path, c.Name)
		expires := c.Expires
		switch {
		case c.MaxAge < 0:
			delete(j.entries, key)
			continue
		case c.MaxAge > 0:
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if !expires.IsZero() && !expires.After(now) {
			delete(j.entries, key)
			continue
		}
		j.entries[key] = savedCookie{
			URL:      origin.String(),
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		}
	}

	if err := j.save(); err != nil {
		j.logger.Warn().Err(err).Str("path", j.path).Msg("cookiestore: failed to persist cookies")
	}
}

// Clear forgets every cookie, on disk and in memory.
func (j *Jar) Clear() error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("cookiestore: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar = inner
	j.entries = make(map[string]savedCookie)
	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cookiestore: remove %s: %w", j.path, err)
	}
	return nil
}

// Len is the number of cookies that would be written to disk.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Jar) save() error {
	saved := make([]savedCookie, 0, len(j.entries))
	for _, sc := range j.entries {
		saved = append(saved, sc)
	}
	sort.Slice(saved, func(a, b int) bool {
		if saved[a].URL != saved[b].URL {
			return saved[a].URL < saved[b].URL
		}
		return saved[a].Name < saved[b].Name
	})

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, j.path)
}

func (sc savedCookie) cookie() *http.Cookie {
	return &http.Cookie{
		Name:     sc.Name,
		Value:    sc.Value,
		Path:     sc.Path,
		Domain:   sc.Domain,
		Expires:  sc.Expires,
		Secure:   sc.Secure,
		HttpOnly: sc.HttpOnly,
		SameSite: sc.SameSite,
	}
}

func entryKey(u *url.URL, path, name string) string {
	return u.Scheme + "://" + u.Host + "|" + path + "|" + name
}
