package store

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"stocksearch/internal/security"
)

// PersistentJar is an http.CookieJar whose contents are written through to
// a CookieStore, keyed by the API host.
type PersistentJar struct {
	jar    *cookiejar.Jar
	store  CookieStore
	host   string
	now    func() time.Time
	logger zerolog.Logger
}

// NewPersistentJar builds a jar for baseURL and replays the cookies already
// stored for its host.
func NewPersistentJar(ctx context.Context, store CookieStore, baseURL *url.URL, logger zerolog.Logger) (*PersistentJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	pj := &PersistentJar{
		jar:    jar,
		store:  store,
		host:   baseURL.Host,
		now:    time.Now,
		logger: logger.With().Str("component", "cookiejar").Logger(),
	}

	cookies, err := store.LoadCookies(ctx, pj.host)
	if err != nil {
		return nil, err
	}
	if len(cookies) > 0 {
		jar.SetCookies(baseURL, cookies)
		pj.logger.Debug().Strs("cookies", security.CookieNames(cookies)).Msg("Restored session cookies")
	}

	return pj, nil
}

// SetCookies records cookies from a response. Only cookies set by the API
// host are persisted; cookies that are already expired, or carry a
// negative Max-Age, delete the stored copy.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if u.Host != j.host {
		j.logger.Debug().Str("host", u.Host).Strs("cookies", security.CookieNames(cookies)).Msg("Not persisting cookies for foreign host")
		return
	}

	ctx := context.Background()
	for _, c := range cookies {
		var err error
		if j.expired(c) {
			err = j.store.DeleteCookie(ctx, j.host, c.Name, c.Path)
		} else {
			err = j.store.SaveCookie(ctx, j.host, c)
		}
		if err != nil {
			j.logger.Warn().Err(err).Str("name", c.Name).Msg("Failed to persist cookie")
		}
	}
}

// Cookies returns the cookies to send in a request for u.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Host is the API host this jar persists cookies for.
func (j *PersistentJar) Host() string {
	return j.host
}

func (j *PersistentJar) expired(c *http.Cookie) bool {
	if c.MaxAge < 0 {
		return true
	}
	return !c.Expires.IsZero() && !c.Expires.After(j.now())
}
