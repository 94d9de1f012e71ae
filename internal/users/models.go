package users

import "time"

// Provider identifies how an account authenticates.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// User is the credential record: the association between a username and
// a verifiable secret or an external identity.
//
// Invariants:
// - PasswordHash is never serialized or logged (json:"-").
// - PasswordHash is empty when AuthProvider is google and the account
//   was never given a local secret.
// - ID is the durable identity; Username is a mutable attribute and
//   must never be the sole key inside long-lived tokens.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	AuthProvider Provider  `json:"-"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasLocalSecret reports whether the account can log in with a password.
func (u User) HasLocalSecret() bool {
	return u.PasswordHash != ""
}
