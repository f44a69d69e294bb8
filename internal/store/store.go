// Package store provides session persistence for the API client.
package store

import (
	"context"
	"net/http"
)

// CookieStore persists cookies per API host so a login survives between runs.
type CookieStore interface {
	SaveCookie(ctx context.Context, host string, cookie *http.Cookie) error
	DeleteCookie(ctx context.Context, host, name, path string) error
	LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error)
	ClearCookies(ctx context.Context, host string) error
	SessionInfo(ctx context.Context, host string) (*SessionInfo, error)

	// Lifecycle
	Close() error
}

// SessionInfo summarises what is stored for a host. Cookie values are never exposed.
type SessionInfo struct {
	Host        string
	CookieNames []string
	HasSession  bool
}

// SessionCookieName is the cookie the backend uses for its session.
const SessionCookieName = "sessionid"
