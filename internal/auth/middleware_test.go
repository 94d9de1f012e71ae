package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func gateRouter(t *testing.T, tokens *TokenService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireSession(tokens), func(c *gin.Context) {
		uid, err := UserID(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "identity missing"})
			return
		}
		name, _ := Username(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": uid, "username": name})
	})
	return r
}

func TestRequireSession_MissingCookie(t *testing.T) {
	r := gateRouter(t, testTokenService(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireSession_GarbageCookie(t *testing.T) {
	r := gateRouter(t, testTokenService(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "not-an-envelope"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireSession_RefreshCookieRejected(t *testing.T) {
	tokens := testTokenService(t)
	r := gateRouter(t, tokens)

	refresh, err := tokens.IssueRefresh(time.Now(), "42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: url.QueryEscape(refresh)})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token must not pass the gate, got %d", w.Code)
	}
}

func TestRequireSession_ValidCookieInjectsIdentity(t *testing.T) {
	tokens := testTokenService(t)
	r := gateRouter(t, tokens)

	access, err := tokens.IssueAccess(time.Now(), "42", "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	// Cookie values pass through a URL-encoding layer, like a browser
	// round-trip of the colon-separated envelope.
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: url.QueryEscape(access)})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"user_id":"42"`) || !strings.Contains(body, `"username":"alice"`) {
		t.Fatalf("identity not injected: %s", body)
	}
}
