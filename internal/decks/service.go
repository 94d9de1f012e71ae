package decks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/komiwalnut/haroval/internal/apperror"
	"github.com/komiwalnut/haroval/internal/cache"
)

// shareIDLen is the length of the public share identifier in hex chars.
const shareIDLen = 16

// Service implements deck and card operations. Every mutating operation
// takes the acting user's id and enforces ownership before touching the
// repository.
type Service struct {
	repo  Repository
	cache cache.Cache
	clock func() time.Time
}

func NewService(repo Repository, c cache.Cache) *Service {
	return &Service{repo: repo, cache: c, clock: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

// DeckInput carries the user-editable deck fields.
type DeckInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (in DeckInput) validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperror.InvalidInput("title is required")
	}
	if len(title) > TitleMaxLen {
		return apperror.InvalidInput("title must be at most " + strconv.Itoa(TitleMaxLen) + " characters")
	}
	if len(in.Description) > DescriptionMaxLen {
		return apperror.InvalidInput("description must be at most " + strconv.Itoa(DescriptionMaxLen) + " characters")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID string, in DeckInput) (Deck, error) {
	if err := in.validate(); err != nil {
		return Deck{}, err
	}
	now := s.clock().UTC()
	d := Deck{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Visibility:  VisibilityPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateDeck(ctx, d); err != nil {
		return Deck{}, apperror.Internal(err)
	}
	s.invalidateOwner(ctx, userID)
	return d, nil
}

func (s *Service) Get(ctx context.Context, userID, deckID string) (Deck, error) {
	var d Deck
	if ok, _ := s.cache.Get(ctx, cache.DeckKey(deckID), &d); ok && d.OwnerID == userID {
		return d, nil
	}
	d, err := s.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return Deck{}, err
	}
	_ = s.cache.Set(ctx, cache.DeckKey(deckID), d, cache.DefaultTTL)
	return d, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Deck, error) {
	var out []Deck
	if ok, _ := s.cache.Get(ctx, cache.UserDecksKey(userID), &out); ok {
		return out, nil
	}
	out, err := s.repo.ListDecksByOwner(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	_ = s.cache.Set(ctx, cache.UserDecksKey(userID), out, cache.DefaultTTL)
	return out, nil
}

// Dashboard returns the user's decks annotated with card counts.
func (s *Service) Dashboard(ctx context.Context, userID string) ([]DeckSummary, error) {
	var out []DeckSummary
	if ok, _ := s.cache.Get(ctx, cache.DashboardKey(userID), &out); ok {
		return out, nil
	}
	out, err := s.repo.ListSummariesByOwner(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	_ = s.cache.Set(ctx, cache.DashboardKey(userID), out, cache.DefaultTTL)
	return out, nil
}

func (s *Service) Update(ctx context.Context, userID, deckID string, in DeckInput) (Deck, error) {
	if err := in.validate(); err != nil {
		return Deck{}, err
	}
	d, err := s.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return Deck{}, err
	}
	d.Title = strings.TrimSpace(in.Title)
	d.Description = in.Description
	d.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdateDeck(ctx, d); err != nil {
		return Deck{}, apperror.Internal(err)
	}
	s.invalidateDeck(ctx, d)
	s.invalidateOwner(ctx, userID)
	return d, nil
}

func (s *Service) Delete(ctx context.Context, userID, deckID string) error {
	d, err := s.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDeck(ctx, deckID); err != nil {
		return apperror.Internal(err)
	}
	s.invalidateDeck(ctx, d)
	s.invalidateOwner(ctx, userID)
	return nil
}

// Share flips a deck to shared visibility, minting a share id on first
// use. Sharing is idempotent: an already-shared deck keeps its id.
func (s *Service) Share(ctx context.Context, userID, deckID string) (Deck, error) {
	d, err := s.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return Deck{}, err
	}
	if d.Visibility == VisibilityShared && d.ShareID != "" {
		return d, nil
	}
	d.Visibility = VisibilityShared
	if d.ShareID == "" {
		d.ShareID = newShareID(d.ID, s.clock())
	}
	d.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdateDeck(ctx, d); err != nil {
		return Deck{}, apperror.Internal(err)
	}
	s.invalidateDeck(ctx, d)
	s.invalidateOwner(ctx, userID)
	return d, nil
}

// Unshare reverts a deck to private. The share id is cleared so a later
// re-share mints a fresh link.
func (s *Service) Unshare(ctx context.Context, userID, deckID string) (Deck, error) {
	d, err := s.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return Deck{}, err
	}
	oldShareID := d.ShareID
	d.Visibility = VisibilityPrivate
	d.ShareID = ""
	d.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdateDeck(ctx, d); err != nil {
		return Deck{}, apperror.Internal(err)
	}
	if oldShareID != "" {
		_ = s.cache.Delete(ctx, cache.SharedDeckKey(oldShareID))
	}
	s.invalidateDeck(ctx, d)
	s.invalidateOwner(ctx, userID)
	return d, nil
}

// SharedDeck is a publicly visible deck with its cards.
type SharedDeck struct {
	Deck  Deck   `json:"deck"`
	Cards []Card `json:"cards"`
}

// GetShared resolves a share id to a deck and its cards. It is the only
// read that requires no authentication, so it never leaks private decks:
// a deck whose visibility has been reverted is reported as missing even
// if a stale share id is presented.
func (s *Service) GetShared(ctx context.Context, shareID string) (SharedDeck, error) {
	var out SharedDeck
	if ok, _ := s.cache.Get(ctx, cache.SharedDeckKey(shareID), &out); ok {
		return out, nil
	}
	d, err := s.repo.GetDeckByShareID(ctx, shareID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return SharedDeck{}, apperror.NotFound("shared deck not found")
		}
		return SharedDeck{}, apperror.Internal(err)
	}
	if d.Visibility != VisibilityShared {
		return SharedDeck{}, apperror.NotFound("shared deck not found")
	}
	cards, err := s.repo.ListCards(ctx, d.ID)
	if err != nil {
		return SharedDeck{}, apperror.Internal(err)
	}
	out = SharedDeck{Deck: d, Cards: cards}
	_ = s.cache.Set(ctx, cache.SharedDeckKey(shareID), out, cache.DefaultTTL)
	return out, nil
}

func (s *Service) Cards(ctx context.Context, userID, deckID string) ([]Card, error) {
	if _, err := s.ownedDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	var out []Card
	if ok, _ := s.cache.Get(ctx, cache.DeckCardsKey(deckID), &out); ok {
		return out, nil
	}
	out, err := s.repo.ListCards(ctx, deckID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	_ = s.cache.Set(ctx, cache.DeckCardsKey(deckID), out, cache.DefaultTTL)
	return out, nil
}

// AddCard appends one card after the deck's current last position.
func (s *Service) AddCard(ctx context.Context, userID, deckID string, in CardInput) (Card, error) {
	d, err := s.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return Card{}, err
	}
	if err := validateCardInput(in); err != nil {
		return Card{}, err
	}
	existing, err := s.repo.ListCards(ctx, deckID)
	if err != nil {
		return Card{}, apperror.Internal(err)
	}
	c := Card{
		ID:        uuid.NewString(),
		DeckID:    deckID,
		Front:     in.Front,
		Back:      in.Back,
		Position:  len(existing),
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.CreateCard(ctx, c); err != nil {
		return Card{}, apperror.Internal(err)
	}
	s.invalidateDeck(ctx, d)
	s.invalidateOwner(ctx, userID)
	return c, nil
}

// ReplaceCards swaps a deck's entire card set for the given inputs,
// assigning positions by input order.
func (s *Service) ReplaceCards(ctx context.Context, userID, deckID string, inputs []CardInput) ([]Card, error) {
	d, err := s.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if err := validateCardInput(in); err != nil {
			return nil, err
		}
	}
	now := s.clock().UTC()
	cards := make([]Card, 0, len(inputs))
	for i, in := range inputs {
		cards = append(cards, Card{
			ID:        uuid.NewString(),
			DeckID:    deckID,
			Front:     in.Front,
			Back:      in.Back,
			Position:  i,
			CreatedAt: now,
		})
	}
	if err := s.repo.ReplaceCards(ctx, deckID, cards); err != nil {
		return nil, apperror.Internal(err)
	}
	s.invalidateDeck(ctx, d)
	s.invalidateOwner(ctx, userID)
	return cards, nil
}

// Duplicate copies a shared deck, cards included, into the acting
// user's collection. The copy starts private with no share id.
func (s *Service) Duplicate(ctx context.Context, userID, shareID string) (Deck, error) {
	shared, err := s.GetShared(ctx, shareID)
	if err != nil {
		return Deck{}, err
	}
	now := s.clock().UTC()
	copyDeck := Deck{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Title:       shared.Deck.Title,
		Description: shared.Deck.Description,
		Visibility:  VisibilityPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	cards := make([]Card, 0, len(shared.Cards))
	for i, c := range shared.Cards {
		cards = append(cards, Card{
			ID:        uuid.NewString(),
			DeckID:    copyDeck.ID,
			Front:     c.Front,
			Back:      c.Back,
			Position:  i,
			CreatedAt: now,
		})
	}
	if err := s.repo.DuplicateDeck(ctx, copyDeck, cards, shared.Deck.ID); err != nil {
		return Deck{}, apperror.Internal(err)
	}
	s.invalidateOwner(ctx, userID)
	return copyDeck, nil
}

// SaveShared bookmarks another user's shared deck. Saving your own deck
// is rejected; bookmarking does not copy anything.
func (s *Service) SaveShared(ctx context.Context, userID, shareID string) error {
	shared, err := s.GetShared(ctx, shareID)
	if err != nil {
		return err
	}
	if shared.Deck.OwnerID == userID {
		return apperror.InvalidInput("cannot save your own deck")
	}
	if err := s.repo.SaveDeck(ctx, userID, shared.Deck.ID, s.clock().UTC()); err != nil {
		if errors.Is(err, ErrAlreadySaved) {
			return apperror.Conflict("deck already saved")
		}
		return apperror.Internal(err)
	}
	s.invalidateOwner(ctx, userID)
	return nil
}

func (s *Service) UnsaveShared(ctx context.Context, userID, deckID string) error {
	if err := s.repo.UnsaveDeck(ctx, userID, deckID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperror.NotFound("saved deck not found")
		}
		return apperror.Internal(err)
	}
	s.invalidateOwner(ctx, userID)
	return nil
}

func (s *Service) ListSaved(ctx context.Context, userID string) ([]Deck, error) {
	out, err := s.repo.ListSavedDecks(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}

// ownedDeck loads a deck and verifies the caller owns it. A deck that
// exists but belongs to someone else yields Forbidden, not NotFound;
// deck ids are opaque UUIDs, so their existence is not sensitive.
func (s *Service) ownedDeck(ctx context.Context, userID, deckID string) (Deck, error) {
	d, err := s.repo.GetDeck(ctx, deckID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Deck{}, apperror.NotFound("deck not found")
		}
		return Deck{}, apperror.Internal(err)
	}
	if d.OwnerID != userID {
		return Deck{}, apperror.Forbidden("you do not own this deck")
	}
	return d, nil
}

func (s *Service) invalidateDeck(ctx context.Context, d Deck) {
	_ = s.cache.Delete(ctx, cache.DeckKey(d.ID))
	_ = s.cache.Delete(ctx, cache.DeckCardsKey(d.ID))
	if d.ShareID != "" {
		_ = s.cache.Delete(ctx, cache.SharedDeckKey(d.ShareID))
	}
}

func (s *Service) invalidateOwner(ctx context.Context, userID string) {
	_ = s.cache.Delete(ctx, cache.UserDecksKey(userID))
	_ = s.cache.Delete(ctx, cache.DashboardKey(userID))
}

func validateCardInput(in CardInput) error {
	if strings.TrimSpace(in.Front) == "" || strings.TrimSpace(in.Back) == "" {
		return apperror.InvalidInput("card front and back are required")
	}
	if len(in.Front) > CardSideMaxLen || len(in.Back) > CardSideMaxLen {
		return apperror.InvalidInput("card text must be at most " + strconv.Itoa(CardSideMaxLen) + " characters")
	}
	return nil
}

// newShareID derives the public identifier from the deck id and the
// share timestamp, truncated to a short url-friendly token.
func newShareID(deckID string, at time.Time) string {
	sum := sha256.Sum256([]byte(deckID + strconv.FormatInt(at.UnixMilli(), 10)))
	return hex.EncodeToString(sum[:])[:shareIDLen]
}
