package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komiwalnut/haroval/internal/auth"
	"github.com/komiwalnut/haroval/internal/googleauth"
)

// stateCookie holds the CSRF state between the redirect to Google and
// the callback. Ten minutes covers the consent screen comfortably.
const (
	stateCookie       = "oauth_state"
	stateCookieMaxAge = 600
)

// GoogleHandlers drives the browser through the Google consent flow.
// Errors redirect back to the login page with a flag rather than
// returning JSON, because the callback is navigated to, not fetched.
type GoogleHandlers struct {
	Client  *googleauth.Client
	Auth    *auth.Service
	Cookies auth.CookieWriter
	BaseURL string
}

func (g *GoogleHandlers) Begin(c *gin.Context) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	state := hex.EncodeToString(buf)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, stateCookieMaxAge, "/", "", g.Cookies.Secure, true)
	c.Redirect(http.StatusTemporaryRedirect, g.Client.AuthURL(state))
}

func (g *GoogleHandlers) Callback(c *gin.Context) {
	defer func() {
		c.SetCookie(stateCookie, "", -1, "/", "", g.Cookies.Secure, true)
	}()

	want, err := c.Cookie(stateCookie)
	if err != nil || want == "" || c.Query("state") != want {
		g.fail(c, "state_mismatch")
		return
	}
	code := c.Query("code")
	if code == "" {
		g.fail(c, "access_denied")
		return
	}

	info, err := g.Client.Exchange(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, googleauth.ErrUnverifiedEmail) {
			g.fail(c, "unverified_email")
			return
		}
		g.fail(c, "exchange_failed")
		return
	}

	_, pair, err := g.Auth.LoginWithExternal(c.Request.Context(), auth.ExternalIdentity{
		Subject: info.Subject,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	})
	if err != nil {
		g.fail(c, "login_failed")
		return
	}
	g.Cookies.SetSession(c, pair)
	c.Redirect(http.StatusTemporaryRedirect, g.BaseURL+"/dashboard")
}

func (g *GoogleHandlers) fail(c *gin.Context, reason string) {
	c.Redirect(http.StatusTemporaryRedirect, g.BaseURL+"/login?error="+reason)
}
