package decks

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository used by tests.
type MemoryRepo struct {
	mu           sync.Mutex
	decks        map[string]Deck
	cards        map[string][]Card // deckID -> ordered cards
	saved        map[string]map[string]time.Time
	duplications []duplication
}

type duplication struct {
	UserID           string
	OriginalDeckID   string
	DuplicatedDeckID string
	CreatedAt        time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		decks: make(map[string]Deck),
		cards: make(map[string][]Card),
		saved: make(map[string]map[string]time.Time),
	}
}

func (r *MemoryRepo) CreateDeck(_ context.Context, d Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks[d.ID] = d
	return nil
}

func (r *MemoryRepo) GetDeck(_ context.Context, id string) (Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.decks[id]
	if !ok {
		return Deck{}, ErrNotFound
	}
	return d, nil
}

func (r *MemoryRepo) GetDeckByShareID(_ context.Context, shareID string) (Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.decks {
		if d.ShareID != "" && d.ShareID == shareID {
			return d, nil
		}
	}
	return Deck{}, ErrNotFound
}

func (r *MemoryRepo) ListDecksByOwner(_ context.Context, ownerID string) ([]Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Deck, 0)
	for _, d := range r.decks {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *MemoryRepo) ListSummariesByOwner(ctx context.Context, ownerID string) ([]DeckSummary, error) {
	decks, err := r.ListDecksByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DeckSummary, 0, len(decks))
	for _, d := range decks {
		out = append(out, DeckSummary{Deck: d, CardCount: len(r.cards[d.ID])})
	}
	return out, nil
}

func (r *MemoryRepo) UpdateDeck(_ context.Context, d Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.decks[d.ID]; !ok {
		return ErrNotFound
	}
	r.decks[d.ID] = d
	return nil
}

func (r *MemoryRepo) DeleteDeck(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.decks[id]; !ok {
		return ErrNotFound
	}
	delete(r.decks, id)
	delete(r.cards, id)
	for _, byDeck := range r.saved {
		delete(byDeck, id)
	}
	return nil
}

func (r *MemoryRepo) ListCards(_ context.Context, deckID string) ([]Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Card, len(r.cards[deckID]))
	copy(out, r.cards[deckID])
	return out, nil
}

func (r *MemoryRepo) CreateCard(_ context.Context, c Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[c.DeckID] = append(r.cards[c.DeckID], c)
	return nil
}

func (r *MemoryRepo) ReplaceCards(_ context.Context, deckID string, cards []Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]Card, len(cards))
	copy(next, cards)
	r.cards[deckID] = next
	return nil
}

func (r *MemoryRepo) DuplicateDeck(_ context.Context, copyDeck Deck, cards []Card, originalDeckID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks[copyDeck.ID] = copyDeck
	next := make([]Card, len(cards))
	copy(next, cards)
	r.cards[copyDeck.ID] = next
	r.duplications = append(r.duplications, duplication{
		UserID:           copyDeck.OwnerID,
		OriginalDeckID:   originalDeckID,
		DuplicatedDeckID: copyDeck.ID,
		CreatedAt:        copyDeck.CreatedAt,
	})
	return nil
}

func (r *MemoryRepo) SaveDeck(_ context.Context, userID, deckID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDeck := r.saved[userID]
	if byDeck == nil {
		byDeck = make(map[string]time.Time)
		r.saved[userID] = byDeck
	}
	if _, ok := byDeck[deckID]; ok {
		return ErrAlreadySaved
	}
	byDeck[deckID] = at
	return nil
}

func (r *MemoryRepo) UnsaveDeck(_ context.Context, userID, deckID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.saved[userID][deckID]; !ok {
		return ErrNotFound
	}
	delete(r.saved[userID], deckID)
	return nil
}

func (r *MemoryRepo) ListSavedDecks(_ context.Context, userID string) ([]Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type entry struct {
		deck Deck
		at   time.Time
	}
	entries := make([]entry, 0)
	for deckID, at := range r.saved[userID] {
		if d, ok := r.decks[deckID]; ok {
			entries = append(entries, entry{deck: d, at: at})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })
	out := make([]Deck, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.deck)
	}
	return out, nil
}

// Duplications returns recorded duplication events, for tests.
func (r *MemoryRepo) Duplications() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.duplications)
}
