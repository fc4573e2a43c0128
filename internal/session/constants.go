// Package session keeps one form controller per browser session.
package session

import "time"

const (
	// CookieName is the name of the cookie that stores the session id.
	CookieName = "churnform_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// DefaultIdleTimeout is how long an untouched session is kept.
	DefaultIdleTimeout = 30 * time.Minute
)
