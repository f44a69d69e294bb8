package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "stocksearch/internal/errors"
)

// SQLiteStore implements CookieStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite-based cookie store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:  db,
		now: time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cookies (
		host TEXT NOT NULL,
		name TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		value TEXT NOT NULL,
		domain TEXT,
		expires INTEGER,
		secure INTEGER DEFAULT 0,
		http_only INTEGER DEFAULT 0,
		same_site INTEGER DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (host, name, path)
	);

	CREATE INDEX IF NOT EXISTS idx_cookies_host ON cookies(host);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveCookie inserts or replaces a cookie for host. A positive MaxAge is
// converted into an absolute expiry.
func (s *SQLiteStore) SaveCookie(ctx context.Context, host string, cookie *http.Cookie) error {
	path := cookie.Path
	if path == "" {
		path = "/"
	}

	var expires sql.NullInt64
	switch {
	case cookie.MaxAge > 0:
		expires = sql.NullInt64{Int64: s.now().Add(time.Duration(cookie.MaxAge) * time.Second).Unix(), Valid: true}
	case !cookie.Expires.IsZero():
		expires = sql.NullInt64{Int64: cookie.Expires.Unix(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cookies (host, name, path, value, domain, expires, secure, http_only, same_site, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		host, cookie.Name, path, cookie.Value, cookie.Domain, expires,
		boolToInt(cookie.Secure), boolToInt(cookie.HttpOnly), int(cookie.SameSite), s.now(),
	)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrDatabaseError, "save cookie %s: %v", cookie.Name, err)
	}
	return nil
}

// DeleteCookie removes one cookie.
func (s *SQLiteStore) DeleteCookie(ctx context.Context, host, name, path string) error {
	if path == "" {
		path = "/"
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE host = ? AND name = ? AND path = ?`, host, name, path)
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrDatabaseError, "delete cookie %s: %v", name, err)
	}
	return nil
}

// LoadCookies returns the unexpired cookies stored for host. Expired rows are pruned.
func (s *SQLiteStore) LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error) {
	now := s.now().Unix()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE host = ? AND expires IS NOT NULL AND expires <= ?`, host, now); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDatabaseError, "prune cookies: %v", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, path, value, domain, expires, secure, http_only, same_site
		FROM cookies WHERE host = ? ORDER BY name, path`, host)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDatabaseError, "load cookies: %v", err)
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		var (
			c                http.Cookie
			domain           sql.NullString
			expires          sql.NullInt64
			secure, httpOnly int
			sameSite         int
		)
		if err := rows.Scan(&c.Name, &c.Path, &c.Value, &domain, &expires, &secure, &httpOnly, &sameSite); err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrDatabaseError, "scan cookie: %v", err)
		}
		c.Domain = domain.String
		if expires.Valid {
			c.Expires = time.Unix(expires.Int64, 0)
		}
		c.Secure = secure == 1
		c.HttpOnly = httpOnly == 1
		c.SameSite = http.SameSite(sameSite)
		cookies = append(cookies, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDatabaseError, "iterate cookies: %v", err)
	}
	return cookies, nil
}

// ClearCookies removes every cookie stored for host.
func (s *SQLiteStore) ClearCookies(ctx context.Context, host string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE host = ?`, host); err != nil {
		return apperrors.Wrapf(apperrors.ErrDatabaseError, "clear cookies: %v", err)
	}
	return nil
}

// SessionInfo reports which cookies are held for host.
func (s *SQLiteStore) SessionInfo(ctx context.Context, host string) (*SessionInfo, error) {
	cookies, err := s.LoadCookies(ctx, host)
	if err != nil {
		return nil, err
	}
	info := &SessionInfo{Host: host}
	for _, c := range cookies {
		info.CookieNames = append(info.CookieNames, c.Name)
		if c.Name == SessionCookieName {
			info.HasSession = true
		}
	}
	return info, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
