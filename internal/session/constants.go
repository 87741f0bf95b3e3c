// Package session holds the session cookie constants shared by the handler
// and middleware packages.
package session

const (
	// CookieName is the name of the cookie that stores the session token.
	CookieName = "lettersmith_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// CookieMaxAge is the cookie lifetime in seconds. It matches
	// SessionDuration in the user service, 7 days.
	CookieMaxAge = 7 * 24 * 60 * 60
)
