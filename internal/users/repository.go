package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// NOTE: This repository assumes the following table exists:
//
// CREATE TABLE users (
//   id            uuid PRIMARY KEY,
//   username      text NOT NULL UNIQUE,
//   email         text UNIQUE,
//   password_hash text,
//   google_id     text UNIQUE,
//   auth_provider text NOT NULL DEFAULT 'local',
//   avatar_url    text,
//   created_at    timestamptz NOT NULL
// );

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("duplicate user")
)

// Repository is the persistence contract the auth flows depend on.
// The production implementation is PostgresRepo; tests use MemoryRepo.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByGoogleID(ctx context.Context, googleID string) (User, error)
	Update(ctx context.Context, u User) error
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const userColumns = `id, username, email, password_hash, google_id, auth_provider, avatar_url, created_at`

func (r *PostgresRepo) Create(ctx context.Context, u User) error {
	const q = `
INSERT INTO users (id, username, email, password_hash, google_id, auth_provider, avatar_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		u.ID,
		u.Username,
		nullable(u.Email),
		nullable(u.PasswordHash),
		nullable(u.GoogleID),
		string(u.AuthProvider),
		nullable(u.AvatarURL),
		u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, username))
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *PostgresRepo) GetByGoogleID(ctx context.Context, googleID string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, googleID))
}

func (r *PostgresRepo) Update(ctx context.Context, u User) error {
	const q = `
UPDATE users
SET username = $2, email = $3, password_hash = $4, google_id = $5, auth_provider = $6, avatar_url = $7
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		u.ID,
		u.Username,
		nullable(u.Email),
		nullable(u.PasswordHash),
		nullable(u.GoogleID),
		string(u.AuthProvider),
		nullable(u.AvatarURL),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`
	var taken bool
	if err := r.db.QueryRowContext(ctx, q, username, excludeID).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var email, passwordHash, googleID, avatarURL sql.NullString
	var provider string
	err := row.Scan(
		&u.ID,
		&u.Username,
		&email,
		&passwordHash,
		&googleID,
		&provider,
		&avatarURL,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.Email = email.String
	u.PasswordHash = passwordHash.String
	u.GoogleID = googleID.String
	u.AuthProvider = Provider(provider)
	u.AvatarURL = avatarURL.String
	return u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
