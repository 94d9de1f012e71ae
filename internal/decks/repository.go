package decks

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/komiwalnut/haroval/pkg/utils"
)

// NOTE: This repository assumes the following tables exist:
// - decks (id, owner_id, title, description, visibility, share_id, created_at, updated_at)
// - flashcards (id, deck_id, front, back, position, created_at)
// - saved_decks (user_id, deck_id, saved_at) UNIQUE (user_id, deck_id)
// - deck_duplications (user_id, original_deck_id, duplicated_deck_id, created_at)
//
// flashcards.deck_id and saved_decks.deck_id cascade on deck delete.

var (
	ErrNotFound     = errors.New("deck not found")
	ErrAlreadySaved = errors.New("deck already saved")
)

// Repository is the persistence contract for decks and cards. The
// production implementation is PostgresRepo; tests use MemoryRepo.
type Repository interface {
	CreateDeck(ctx context.Context, d Deck) error
	GetDeck(ctx context.Context, id string) (Deck, error)
	GetDeckByShareID(ctx context.Context, shareID string) (Deck, error)
	ListDecksByOwner(ctx context.Context, ownerID string) ([]Deck, error)
	ListSummariesByOwner(ctx context.Context, ownerID string) ([]DeckSummary, error)
	UpdateDeck(ctx context.Context, d Deck) error
	DeleteDeck(ctx context.Context, id string) error

	ListCards(ctx context.Context, deckID string) ([]Card, error)
	CreateCard(ctx context.Context, c Card) error
	ReplaceCards(ctx context.Context, deckID string, cards []Card) error

	// DuplicateDeck inserts the copy, its cards, and the duplication
	// record atomically.
	DuplicateDeck(ctx context.Context, copy Deck, cards []Card, originalDeckID string) error

	SaveDeck(ctx context.Context, userID, deckID string, at time.Time) error
	UnsaveDeck(ctx context.Context, userID, deckID string) error
	ListSavedDecks(ctx context.Context, userID string) ([]Deck, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const deckColumns = `id, owner_id, title, description, visibility, share_id, created_at, updated_at`

func (r *PostgresRepo) CreateDeck(ctx context.Context, d Deck) error {
	const q = `
INSERT INTO decks (id, owner_id, title, description, visibility, share_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.OwnerID, d.Title, d.Description, string(d.Visibility), nullable(d.ShareID), d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) GetDeck(ctx context.Context, id string) (Deck, error) {
	const q = `SELECT ` + deckColumns + ` FROM decks WHERE id = $1`
	return scanDeck(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRepo) GetDeckByShareID(ctx context.Context, shareID string) (Deck, error) {
	const q = `SELECT ` + deckColumns + ` FROM decks WHERE share_id = $1`
	return scanDeck(r.db.QueryRowContext(ctx, q, shareID))
}

func (r *PostgresRepo) ListDecksByOwner(ctx context.Context, ownerID string) ([]Deck, error) {
	const q = `SELECT ` + deckColumns + ` FROM decks WHERE owner_id = $1 ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDecks(rows)
}

func (r *PostgresRepo) ListSummariesByOwner(ctx context.Context, ownerID string) ([]DeckSummary, error) {
	const q = `
SELECT d.id, d.owner_id, d.title, d.description, d.visibility, d.share_id, d.created_at, d.updated_at,
       COUNT(f.id) AS card_count
FROM decks d
LEFT JOIN flashcards f ON f.deck_id = d.id
WHERE d.owner_id = $1
GROUP BY d.id
ORDER BY d.updated_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DeckSummary, 0)
	for rows.Next() {
		var s DeckSummary
		var shareID sql.NullString
		var visibility string
		if err := rows.Scan(
			&s.ID, &s.OwnerID, &s.Title, &s.Description, &visibility, &shareID,
			&s.CreatedAt, &s.UpdatedAt, &s.CardCount,
		); err != nil {
			return nil, err
		}
		s.Visibility = Visibility(visibility)
		s.ShareID = shareID.String
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateDeck(ctx context.Context, d Deck) error {
	const q = `
UPDATE decks
SET title = $2, description = $3, visibility = $4, share_id = $5, updated_at = $6
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q,
		d.ID, d.Title, d.Description, string(d.Visibility), nullable(d.ShareID), d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteDeck(ctx context.Context, id string) error {
	const q = `DELETE FROM decks WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListCards(ctx context.Context, deckID string) ([]Card, error) {
	const q = `SELECT id, deck_id, front, back, position, created_at FROM flashcards WHERE deck_id = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, q, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Card, 0)
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Position, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CreateCard(ctx context.Context, c Card) error {
	const q = `
INSERT INTO flashcards (id, deck_id, front, back, position, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.DeckID, c.Front, c.Back, c.Position, c.CreatedAt)
	return err
}

func (r *PostgresRepo) ReplaceCards(ctx context.Context, deckID string, cards []Card) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM flashcards WHERE deck_id = $1`, deckID); err != nil {
			return err
		}
		return insertCards(ctx, tx, cards)
	})
}

func (r *PostgresRepo) DuplicateDeck(ctx context.Context, copy Deck, cards []Card, originalDeckID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const insertDeck = `
INSERT INTO decks (id, owner_id, title, description, visibility, share_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
		if _, err := tx.ExecContext(ctx, insertDeck,
			copy.ID, copy.OwnerID, copy.Title, copy.Description, string(copy.Visibility), nullable(copy.ShareID), copy.CreatedAt, copy.UpdatedAt,
		); err != nil {
			return err
		}
		if err := insertCards(ctx, tx, cards); err != nil {
			return err
		}
		const record = `
INSERT INTO deck_duplications (user_id, original_deck_id, duplicated_deck_id, created_at)
VALUES ($1,$2,$3,$4)
`
		_, err := tx.ExecContext(ctx, record, copy.OwnerID, originalDeckID, copy.ID, copy.CreatedAt)
		return err
	})
}

func (r *PostgresRepo) SaveDeck(ctx context.Context, userID, deckID string, at time.Time) error {
	const q = `INSERT INTO saved_decks (user_id, deck_id, saved_at) VALUES ($1,$2,$3)`
	_, err := r.db.ExecContext(ctx, q, userID, deckID, at)
	if isUniqueViolation(err) {
		return ErrAlreadySaved
	}
	return err
}

func (r *PostgresRepo) UnsaveDeck(ctx context.Context, userID, deckID string) error {
	const q = `DELETE FROM saved_decks WHERE user_id = $1 AND deck_id = $2`
	res, err := r.db.ExecContext(ctx, q, userID, deckID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListSavedDecks(ctx context.Context, userID string) ([]Deck, error) {
	const q = `
SELECT d.id, d.owner_id, d.title, d.description, d.visibility, d.share_id, d.created_at, d.updated_at
FROM saved_decks s
JOIN decks d ON d.id = s.deck_id
WHERE s.user_id = $1
ORDER BY s.saved_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDecks(rows)
}

func insertCards(ctx context.Context, tx *sql.Tx, cards []Card) error {
	const q = `
INSERT INTO flashcards (id, deck_id, front, back, position, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`
	for _, c := range cards {
		if _, err := tx.ExecContext(ctx, q, c.ID, c.DeckID, c.Front, c.Back, c.Position, c.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (Deck, error) {
	var d Deck
	var shareID sql.NullString
	var visibility string
	err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &d.Description, &visibility, &shareID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Deck{}, ErrNotFound
		}
		return Deck{}, err
	}
	d.Visibility = Visibility(visibility)
	d.ShareID = shareID.String
	return d, nil
}

func collectDecks(rows *sql.Rows) ([]Deck, error) {
	out := make([]Deck, 0)
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
