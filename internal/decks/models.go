package decks

import "time"

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
)

// Field limits enforced at the service boundary, matching the client's
// form constraints.
const (
	TitleMaxLen       = 50
	DescriptionMaxLen = 150
	CardSideMaxLen    = 150
)

// Deck is owned by exactly one user. ShareID is a public, hash-derived
// identifier set when the deck is shared; it is independent of the
// primary id so the owner can rotate it without breaking ownership.
type Deck struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Visibility  Visibility `json:"visibility"`
	ShareID     string     `json:"share_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Card is one flashcard. Position orders cards inside a deck and is
// reassigned contiguously on bulk replace.
type Card struct {
	ID        string    `json:"id"`
	DeckID    string    `json:"deck_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// DeckSummary is a deck plus its card count, for the dashboard view.
type DeckSummary struct {
	Deck
	CardCount int `json:"card_count"`
}

// CardInput is one card in a bulk replace request.
type CardInput struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}
