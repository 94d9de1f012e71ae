// Package googleauth wraps the OAuth2 authorization-code flow against
// Google. It exchanges a callback code for the user's basic profile;
// account linking and session issuance live in the auth service.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrUnverifiedEmail = errors.New("google account email is not verified")

// UserInfo is the subset of the Google userinfo response we act on.
type UserInfo struct {
	Subject       string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type Client struct {
	conf *oauth2.Config
}

func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL builds the consent-screen URL. state is echoed back on the
// callback and must be verified by the caller.
func (c *Client) AuthURL(state string) string {
	return c.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the user's profile. Accounts
// with unverified email addresses are rejected so an attacker cannot
// claim someone else's address before they confirm it.
func (c *Client) Exchange(ctx context.Context, code string) (UserInfo, error) {
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return UserInfo{}, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := c.conf.Client(ctx, token).Get(userInfoURL)
	if err != nil {
		return UserInfo{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return UserInfo{}, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, body)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return UserInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Subject == "" || info.Email == "" {
		return UserInfo{}, errors.New("userinfo response missing id or email")
	}
	if !info.VerifiedEmail {
		return UserInfo{}, ErrUnverifiedEmail
	}
	return info, nil
}
