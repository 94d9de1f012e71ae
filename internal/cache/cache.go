// Package cache provides a TTL key-value cache used to memoize user
// lookups and deck reads. Values are stored as JSON. Invalidation is
// key- or pattern-based; a write to a deck clears every key derived
// from it.
package cache

import (
	"context"
	"time"
)

// DefaultTTL matches the response-cache lifetime used by the handlers.
const DefaultTTL = 5 * time.Minute

// Cache is the minimal contract the services depend on. The production
// implementation is Redis; tests use Memory.
type Cache interface {
	// Get unmarshals the cached value into dest and reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching a glob pattern,
	// e.g. "deck_*".
	DeletePattern(ctx context.Context, pattern string) error
}

// Key builders. Keeping these in one place prevents formatting drift
// between the code that sets and the code that invalidates.

func UserKey(userID string) string        { return "user_" + userID }
func UserDecksKey(userID string) string   { return "user_decks_" + userID }
func DashboardKey(userID string) string   { return "user_dashboard_" + userID }
func DeckKey(deckID string) string        { return "deck_" + deckID }
func DeckCardsKey(deckID string) string   { return "deck_cards_" + deckID }
func SharedDeckKey(shareID string) string { return "shared_deck_" + shareID }
