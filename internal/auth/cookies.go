package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// CookieWriter sets the session cookie pair on responses. Cookies are
// the only place tokens live; there is no server-side session table.
type CookieWriter struct {
	// Secure marks cookies secure; enabled in production only so local
	// development over plain HTTP keeps working.
	Secure bool

	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// SetSession writes both token cookies: httpOnly, SameSite=Strict,
// path "/". Max-age matches the token lifetime so the browser drops
// the cookie when the token inside it is already dead.
func (w CookieWriter) SetSession(c *gin.Context, pair TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookie, pair.AccessToken, int(w.AccessMaxAge.Seconds()), "/", "", w.Secure, true)
	c.SetCookie(RefreshCookie, pair.RefreshToken, int(w.RefreshMaxAge.Seconds()), "/", "", w.Secure, true)
}

// ClearSession expires both token cookies.
func (w CookieWriter) ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookie, "", -1, "/", "", w.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", "", w.Secure, true)
}
