package decks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/komiwalnut/haroval/internal/apperror"
	"github.com/komiwalnut/haroval/internal/cache"
)

var testNow = time.Unix(1700000000, 0).UTC()

func newTestService() (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := NewService(repo, cache.NewMemory())
	svc.SetClock(func() time.Time { return testNow })
	return svc, repo
}

func mustCreate(t *testing.T, svc *Service, userID, title string) Deck {
	t.Helper()
	d, err := svc.Create(context.Background(), userID, DeckInput{Title: title})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}
	return d
}

func TestCreateDeckValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", DeckInput{Title: "   "}); err == nil {
		t.Fatal("expected error for blank title")
	}
	if _, err := svc.Create(ctx, "u1", DeckInput{Title: strings.Repeat("x", TitleMaxLen+1)}); err == nil {
		t.Fatal("expected error for overlong title")
	}
	if _, err := svc.Create(ctx, "u1", DeckInput{
		Title:       "ok",
		Description: strings.Repeat("x", DescriptionMaxLen+1),
	}); err == nil {
		t.Fatal("expected error for overlong description")
	}

	d := mustCreate(t, svc, "u1", "  Spanish Verbs  ")
	if d.Title != "Spanish Verbs" {
		t.Fatalf("title not trimmed: %q", d.Title)
	}
	if d.Visibility != VisibilityPrivate {
		t.Fatalf("new deck should be private, got %q", d.Visibility)
	}
	if d.ShareID != "" {
		t.Fatalf("new deck should have no share id, got %q", d.ShareID)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d := mustCreate(t, svc, "owner", "Mine")

	if _, err := svc.Get(ctx, "intruder", d.ID); apperror.SafeCode(err) != 403 {
		t.Fatalf("expected 403 for non-owner get, got %v", err)
	}
	if _, err := svc.Update(ctx, "intruder", d.ID, DeckInput{Title: "Stolen"}); apperror.SafeCode(err) != 403 {
		t.Fatalf("expected 403 for non-owner update, got %v", err)
	}
	if err := svc.Delete(ctx, "intruder", d.ID); apperror.SafeCode(err) != 403 {
		t.Fatalf("expected 403 for non-owner delete, got %v", err)
	}
	if _, err := svc.Get(ctx, "owner", "no-such-deck"); apperror.SafeCode(err) != 404 {
		t.Fatalf("expected 404 for missing deck, got %v", err)
	}
}

func TestShareAndUnshare(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d := mustCreate(t, svc, "u1", "Shareable")

	shared, err := svc.Share(ctx, "u1", d.ID)
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if shared.Visibility != VisibilityShared {
		t.Fatalf("visibility = %q, want shared", shared.Visibility)
	}
	if len(shared.ShareID) != shareIDLen {
		t.Fatalf("share id %q, want %d hex chars", shared.ShareID, shareIDLen)
	}

	// Sharing again keeps the same id.
	again, err := svc.Share(ctx, "u1", d.ID)
	if err != nil {
		t.Fatalf("re-share: %v", err)
	}
	if again.ShareID != shared.ShareID {
		t.Fatalf("share id changed on re-share: %q -> %q", shared.ShareID, again.ShareID)
	}

	if _, err := svc.GetShared(ctx, shared.ShareID); err != nil {
		t.Fatalf("get shared: %v", err)
	}

	if _, err := svc.Unshare(ctx, "u1", d.ID); err != nil {
		t.Fatalf("unshare: %v", err)
	}
	if _, err := svc.GetShared(ctx, shared.ShareID); apperror.SafeCode(err) != 404 {
		t.Fatalf("stale share id should 404 after unshare, got %v", err)
	}
}

func TestReplaceCards(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d := mustCreate(t, svc, "u1", "Vocab")

	cards, err := svc.ReplaceCards(ctx, "u1", d.ID, []CardInput{
		{Front: "gato", Back: "cat"},
		{Front: "perro", Back: "dog"},
	})
	if err != nil {
		t.Fatalf("replace cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}
	for i, c := range cards {
		if c.Position != i {
			t.Fatalf("card %d position = %d", i, c.Position)
		}
	}

	// Replacement is total: the old set disappears.
	cards, err = svc.ReplaceCards(ctx, "u1", d.ID, []CardInput{{Front: "pez", Back: "fish"}})
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	got, err := svc.Cards(ctx, "u1", d.ID)
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}
	if len(got) != 1 || got[0].Front != "pez" {
		t.Fatalf("unexpected cards after replace: %+v", got)
	}

	if _, err := svc.ReplaceCards(ctx, "u1", d.ID, []CardInput{{Front: "", Back: "x"}}); apperror.SafeCode(err) != 400 {
		t.Fatalf("expected 400 for blank front, got %v", err)
	}
	if _, err := svc.ReplaceCards(ctx, "u1", d.ID, []CardInput{
		{Front: strings.Repeat("x", CardSideMaxLen+1), Back: "ok"},
	}); apperror.SafeCode(err) != 400 {
		t.Fatalf("expected 400 for overlong front, got %v", err)
	}
}

func TestDuplicateSharedDeck(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	d := mustCreate(t, svc, "owner", "Original")
	if _, err := svc.ReplaceCards(ctx, "owner", d.ID, []CardInput{
		{Front: "a", Back: "1"},
		{Front: "b", Back: "2"},
	}); err != nil {
		t.Fatalf("seed cards: %v", err)
	}
	shared, err := svc.Share(ctx, "owner", d.ID)
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	dup, err := svc.Duplicate(ctx, "copier", shared.ShareID)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if dup.OwnerID != "copier" {
		t.Fatalf("copy owner = %q, want copier", dup.OwnerID)
	}
	if dup.ID == d.ID {
		t.Fatal("copy must get a fresh id")
	}
	if dup.Visibility != VisibilityPrivate || dup.ShareID != "" {
		t.Fatalf("copy should start private with no share id: %+v", dup)
	}
	cards, err := svc.Cards(ctx, "copier", dup.ID)
	if err != nil {
		t.Fatalf("copy cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d copied cards, want 2", len(cards))
	}
	if repo.Duplications() != 1 {
		t.Fatalf("duplication records = %d, want 1", repo.Duplications())
	}
}

func TestSaveSharedDeck(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d := mustCreate(t, svc, "owner", "Saveable")
	shared, err := svc.Share(ctx, "owner", d.ID)
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	if err := svc.SaveShared(ctx, "owner", shared.ShareID); apperror.SafeCode(err) != 400 {
		t.Fatalf("saving own deck should be 400, got %v", err)
	}

	if err := svc.SaveShared(ctx, "fan", shared.ShareID); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.SaveShared(ctx, "fan", shared.ShareID); apperror.SafeCode(err) != 409 {
		t.Fatalf("double save should be 409, got %v", err)
	}

	saved, err := svc.ListSaved(ctx, "fan")
	if err != nil {
		t.Fatalf("list saved: %v", err)
	}
	if len(saved) != 1 || saved[0].ID != d.ID {
		t.Fatalf("unexpected saved list: %+v", saved)
	}

	if err := svc.UnsaveShared(ctx, "fan", d.ID); err != nil {
		t.Fatalf("unsave: %v", err)
	}
	if err := svc.UnsaveShared(ctx, "fan", d.ID); apperror.SafeCode(err) != 404 {
		t.Fatalf("unsaving twice should be 404, got %v", err)
	}
}

func TestDashboardCounts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a := mustCreate(t, svc, "u1", "A")
	mustCreate(t, svc, "u1", "B")
	if _, err := svc.ReplaceCards(ctx, "u1", a.ID, []CardInput{
		{Front: "x", Back: "y"},
		{Front: "p", Back: "q"},
		{Front: "m", Back: "n"},
	}); err != nil {
		t.Fatalf("seed cards: %v", err)
	}

	summaries, err := svc.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	counts := map[string]int{}
	for _, s := range summaries {
		counts[s.Title] = s.CardCount
	}
	if counts["A"] != 3 || counts["B"] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestWritesInvalidateCachedReads(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d := mustCreate(t, svc, "u1", "Before")

	// Prime the caches.
	if _, err := svc.Get(ctx, "u1", d.ID); err != nil {
		t.Fatalf("prime get: %v", err)
	}
	if _, err := svc.List(ctx, "u1"); err != nil {
		t.Fatalf("prime list: %v", err)
	}

	if _, err := svc.Update(ctx, "u1", d.ID, DeckInput{Title: "After"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := svc.Get(ctx, "u1", d.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Title != "After" {
		t.Fatalf("stale title served from cache: %q", got.Title)
	}
	list, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list after update: %v", err)
	}
	if len(list) != 1 || list[0].Title != "After" {
		t.Fatalf("stale list served from cache: %+v", list)
	}
}

func TestAddCardAppends(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d := mustCreate(t, svc, "u1", "Appender")

	first, err := svc.AddCard(ctx, "u1", d.ID, CardInput{Front: "uno", Back: "one"})
	if err != nil {
		t.Fatalf("add first card: %v", err)
	}
	second, err := svc.AddCard(ctx, "u1", d.ID, CardInput{Front: "dos", Back: "two"})
	if err != nil {
		t.Fatalf("add second card: %v", err)
	}
	if first.Position != 0 || second.Position != 1 {
		t.Fatalf("positions = %d,%d, want 0,1", first.Position, second.Position)
	}
	if _, err := svc.AddCard(ctx, "intruder", d.ID, CardInput{Front: "x", Back: "y"}); apperror.SafeCode(err) != 403 {
		t.Fatalf("expected 403 for non-owner add, got %v", err)
	}
}

func TestSharedDeckCached(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	d := mustCreate(t, svc, "owner", "Cached")
	shared, err := svc.Share(ctx, "owner", d.ID)
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	if _, err := svc.GetShared(ctx, shared.ShareID); err != nil {
		t.Fatalf("first read: %v", err)
	}
	// Mutate behind the cache; the stale copy should still serve.
	if err := repo.DeleteDeck(ctx, d.ID); err != nil {
		t.Fatalf("delete behind cache: %v", err)
	}
	if _, err := svc.GetShared(ctx, shared.ShareID); err != nil {
		t.Fatalf("cached read after delete: %v", err)
	}
}
