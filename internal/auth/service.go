package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/komiwalnut/haroval/internal/apperror"
	"github.com/komiwalnut/haroval/internal/cache"
	"github.com/komiwalnut/haroval/internal/users"
)

// loginFailedMessage is deliberately identical for "no such user" and
// "wrong password" so login responses cannot be used to enumerate
// usernames.
const loginFailedMessage = "invalid username or password"

// ExternalIdentity is the verified triple an identity provider yields.
// The OAuth exchange itself lives outside this package; the flow only
// consumes its result.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Service orchestrates login, registration, OAuth link/create, refresh,
// and profile changes. It holds no mutable state across requests; every
// operation is a function of its inputs, the immutable secrets inside
// TokenService, and the persistence collaborator.
type Service struct {
	users  users.Repository
	tokens *TokenService
	cache  cache.Cache

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo users.Repository, tokens *TokenService, c cache.Cache) *Service {
	return &Service{users: repo, tokens: tokens, cache: c, clock: time.Now}
}

// Tokens exposes the underlying token service for the gate middleware.
func (s *Service) Tokens() *TokenService { return s.tokens }

// Login verifies a local credential and mints a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (users.User, TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return users.User{}, TokenPair{}, apperror.InvalidInput("username and password are required")
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, TokenPair{}, apperror.Unauthorized(loginFailedMessage)
		}
		return users.User{}, TokenPair{}, apperror.Internal(fmt.Errorf("looking up user: %w", err))
	}

	// A google-only account has no local secret; it fails the same way
	// a wrong password does.
	if !u.HasLocalSecret() || !CheckPassword(password, u.PasswordHash) {
		return users.User{}, TokenPair{}, apperror.Unauthorized(loginFailedMessage)
	}

	pair, err := s.tokens.IssuePair(s.clock(), u.ID, u.Username)
	if err != nil {
		return users.User{}, TokenPair{}, apperror.Internal(fmt.Errorf("issuing tokens: %w", err))
	}
	return u, pair, nil
}

// Register creates a local credential record and mints a token pair.
func (s *Service) Register(ctx context.Context, username, password, confirmPassword string) (users.User, TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || confirmPassword == "" {
		return users.User{}, TokenPair{}, apperror.InvalidInput("username, password, and confirm password are required")
	}
	if password != confirmPassword {
		return users.User{}, TokenPair{}, apperror.InvalidInput("passwords do not match")
	}
	if len(password) < MinPasswordLength {
		return users.User{}, TokenPair{}, apperror.InvalidInput(fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}

	// Check uniqueness before the expensive hash.
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return users.User{}, TokenPair{}, apperror.Conflict("username already exists")
	} else if !errors.Is(err, users.ErrNotFound) {
		return users.User{}, TokenPair{}, apperror.Internal(fmt.Errorf("checking username: %w", err))
	}

	hash, err := HashPassword(password)
	if err != nil {
		return users.User{}, TokenPair{}, apperror.Internal(fmt.Errorf("hashing password: %w", err))
	}

	u := users.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		AuthProvider: users.ProviderLocal,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return users.User{}, TokenPair{}, apperror.Conflict("username already exists")
		}
		return users.User{}, TokenPair{}, apperror.Internal(fmt.Errorf("creating user: %w", err))
	}

	pair, err := s.tokens.IssuePair(s.clock(), u.ID, u.Username)
	if err != nil {
		return users.User{}, TokenPair{}, apperror.Internal(fmt.Errorf("issuing tokens: %w", err))
	}
	return u, pair, nil
}

// Refresh redeems a refresh envelope and rotates both tokens. The
// username is re-fetched because refresh claims do not carry it.
//
// Refresh tokens are multi-use: there is no server-side tracking, so
// two concurrent refreshes both succeed with independent pairs.
func (s *Service) Refresh(ctx context.Context, refreshEnvelope string) (TokenPair, error) {
	identity, err := s.tokens.RedeemRefresh(refreshEnvelope, s.clock())
	if err != nil {
		return TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}

	u, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return TokenPair{}, apperror.Unauthorized("invalid refresh token")
		}
		return TokenPair{}, apperror.Internal(fmt.Errorf("looking up user: %w", err))
	}

	pair, err := s.tokens.IssuePair(s.clock(), u.ID, u.Username)
	if err != nil {
		return TokenPair{}, apperror.Internal(fmt.Errorf("issuing tokens: %w", err))
	}
	return pair, nil
}

// LoginWithExternal runs the OAuth link/create path for a verified
// external identity: match by subject id first, then by email (identity
// linking), otherwise create a record with no local secret. Nothing is
// issued unless the record saved.
func (s *Service) LoginWithExternal(ctx context.Context, ext ExternalIdentity) (users.User, TokenPair, error) {
	if ext.Subject == "" || ext.Email == "" {
		return users.User{}, TokenPair{}, apperror.InvalidInput("external identity is incomplete")
	}

	u, err := s.users.GetByGoogleID(ctx, ext.Subject)
	switch {
	case err == nil:
		// Known account.
	case errors.Is(err, users.ErrNotFound):
		u, err = s.linkOrCreateByEmail(ctx, ext)
		if err != nil {
			return users.User{}, TokenPair{}, err
		}
	default:
		return users.User{}, TokenPair{}, apperror.Internal(fmt.Errorf("looking up external id: %w", err))
	}

	pair, err := s.tokens.IssuePair(s.clock(), u.ID, u.Username)
	if err != nil {
		return users.User{}, TokenPair{}, apperror.Internal(fmt.Errorf("issuing tokens: %w", err))
	}
	return u, pair, nil
}

func (s *Service) linkOrCreateByEmail(ctx context.Context, ext ExternalIdentity) (users.User, error) {
	existing, err := s.users.GetByEmail(ctx, ext.Email)
	if err == nil {
		// Attach the external id to the existing account.
		existing.GoogleID = ext.Subject
		existing.AuthProvider = users.ProviderGoogle
		existing.AvatarURL = ext.Picture
		if err := s.users.Update(ctx, existing); err != nil {
			return users.User{}, apperror.Internal(fmt.Errorf("linking external account: %w", err))
		}
		s.invalidateUser(ctx, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return users.User{}, apperror.Internal(fmt.Errorf("looking up email: %w", err))
	}

	username := strings.TrimSpace(ext.Name)
	if username == "" {
		username = strings.SplitN(ext.Email, "@", 2)[0]
	}

	u := users.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        ext.Email,
		GoogleID:     ext.Subject,
		AuthProvider: users.ProviderGoogle,
		AvatarURL:    ext.Picture,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return users.User{}, apperror.Internal(fmt.Errorf("creating external user: %w", err))
	}
	return u, nil
}

// Me returns the account behind a verified identity, memoized through
// the cache for a few minutes.
func (s *Service) Me(ctx context.Context, userID string) (users.User, error) {
	key := cache.UserKey(userID)
	if s.cache != nil {
		var cached users.User
		if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, apperror.NotFound("user not found")
		}
		return users.User{}, apperror.Internal(fmt.Errorf("looking up user: %w", err))
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, u, cache.DefaultTTL)
	}
	return u, nil
}

// ProfileUpdate is the validated profile-change request.
type ProfileUpdate struct {
	Username        string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile changes username and/or password. The current secret is
// re-verified before any change is applied.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (users.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.CurrentPassword == "" {
		return users.User{}, apperror.InvalidInput("username and current password are required")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, apperror.NotFound("user not found")
		}
		return users.User{}, apperror.Internal(fmt.Errorf("looking up user: %w", err))
	}

	if !u.HasLocalSecret() || !CheckPassword(in.CurrentPassword, u.PasswordHash) {
		return users.User{}, apperror.InvalidInput("current password is incorrect")
	}

	if in.Username != u.Username {
		taken, err := s.users.UsernameTaken(ctx, in.Username, u.ID)
		if err != nil {
			return users.User{}, apperror.Internal(fmt.Errorf("checking username: %w", err))
		}
		if taken {
			return users.User{}, apperror.InvalidInput("username already exists")
		}
		u.Username = in.Username
	}

	if in.NewPassword != "" {
		if len(in.NewPassword) < MinPasswordLength {
			return users.User{}, apperror.InvalidInput(fmt.Sprintf("new password must be at least %d characters long", MinPasswordLength))
		}
		hash, err := HashPassword(in.NewPassword)
		if err != nil {
			return users.User{}, apperror.Internal(fmt.Errorf("hashing password: %w", err))
		}
		u.PasswordHash = hash
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return users.User{}, apperror.InvalidInput("username already exists")
		}
		return users.User{}, apperror.Internal(fmt.Errorf("updating user: %w", err))
	}

	s.invalidateUser(ctx, u.ID)
	return u, nil
}

func (s *Service) invalidateUser(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, cache.UserKey(userID))
}
