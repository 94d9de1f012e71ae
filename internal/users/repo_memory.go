package users

import (
	"context"
	"sync"
)

// MemoryRepo is a simple in-memory user repository for tests and early
// development. It enforces the same uniqueness rules as the database:
// username, email, and google_id.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]User{}}
}

func (r *MemoryRepo) Create(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range r.byID {
		if existing.Username == u.Username {
			return ErrDuplicate
		}
		if u.Email != "" && existing.Email == u.Email {
			return ErrDuplicate
		}
		if u.GoogleID != "" && existing.GoogleID == u.GoogleID {
			return ErrDuplicate
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByUsername(_ context.Context, username string) (User, error) {
	return r.find(func(u User) bool { return u.Username == username })
}

func (r *MemoryRepo) GetByEmail(_ context.Context, email string) (User, error) {
	if email == "" {
		return User{}, ErrNotFound
	}
	return r.find(func(u User) bool { return u.Email == email })
}

func (r *MemoryRepo) GetByGoogleID(_ context.Context, googleID string) (User, error) {
	if googleID == "" {
		return User{}, ErrNotFound
	}
	return r.find(func(u User) bool { return u.GoogleID == googleID })
}

func (r *MemoryRepo) Update(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.byID {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *MemoryRepo) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.byID {
		if id != excludeID && u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) find(match func(User) bool) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
