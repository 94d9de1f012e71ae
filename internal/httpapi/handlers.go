// Package httpapi holds the gin handlers. Handlers stay thin: parse and
// bind input, call a service, map the error, write JSON. Session cookies
// are the only transport for tokens; response bodies never carry them.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/komiwalnut/haroval/internal/apperror"
	"github.com/komiwalnut/haroval/internal/auth"
	"github.com/komiwalnut/haroval/internal/decks"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Auth    *auth.Service
	Decks   *decks.Service
	Google  *GoogleHandlers
	Cookies auth.CookieWriter
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperror.SafeCode(err), gin.H{"error": apperror.SafeMessage(err)})
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, pair, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.Cookies.SetSession(c, pair)
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, pair, err := h.Auth.Register(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		abortWithError(c, err)
		return
	}
	h.Cookies.SetSession(c, pair)
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// Refresh rotates the session from the refresh cookie. It is public:
// the access token may already be expired when it is called.
func (h Handlers) Refresh(c *gin.Context) {
	envelope, err := c.Cookie(auth.RefreshCookie)
	if err != nil || envelope == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	pair, err := h.Auth.Refresh(c.Request.Context(), envelope)
	if err != nil {
		h.Cookies.ClearSession(c)
		abortWithError(c, err)
		return
	}
	h.Cookies.SetSession(c, pair)
	c.Status(http.StatusNoContent)
}

func (h Handlers) Logout(c *gin.Context) {
	h.Cookies.ClearSession(c)
	c.Status(http.StatusNoContent)
}

func (h Handlers) Me(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	u, err := h.Auth.Me(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type profileRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h Handlers) UpdateProfile(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Auth.UpdateProfile(c.Request.Context(), userID, auth.ProfileUpdate{
		Username:        req.Username,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	// A username change invalidates the access token's username claim,
	// so reissue the session.
	pair, err := h.Auth.Tokens().IssuePair(time.Now(), u.ID, u.Username)
	if err != nil {
		abortWithError(c, apperror.Internal(err))
		return
	}
	h.Cookies.SetSession(c, pair)
	c.JSON(http.StatusOK, gin.H{"user": u})
}
