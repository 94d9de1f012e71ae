package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komiwalnut/haroval/internal/auth"
	"github.com/komiwalnut/haroval/internal/decks"
)

// sessionUserID reads the authenticated user id placed on the request
// context by the session middleware.
func sessionUserID(c *gin.Context) (string, bool) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	return userID, true
}

func (h Handlers) CreateDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	var in decks.DeckInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	d, err := h.Decks.Create(c.Request.Context(), userID, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deck": d})
}

func (h Handlers) ListDecks(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	out, err := h.Decks.List(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decks": out})
}

func (h Handlers) Dashboard(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	out, err := h.Decks.Dashboard(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decks": out})
}

func (h Handlers) GetDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	d, err := h.Decks.Get(c.Request.Context(), userID, c.Param("deck_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": d})
}

func (h Handlers) UpdateDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	var in decks.DeckInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	d, err := h.Decks.Update(c.Request.Context(), userID, c.Param("deck_id"), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": d})
}

func (h Handlers) DeleteDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	if err := h.Decks.Delete(c.Request.Context(), userID, c.Param("deck_id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ShareDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	d, err := h.Decks.Share(c.Request.Context(), userID, c.Param("deck_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": d})
}

func (h Handlers) UnshareDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	d, err := h.Decks.Unshare(c.Request.Context(), userID, c.Param("deck_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": d})
}

func (h Handlers) ListCards(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	cards, err := h.Decks.Cards(c.Request.Context(), userID, c.Param("deck_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (h Handlers) AddCard(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	var in decks.CardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	card, err := h.Decks.AddCard(c.Request.Context(), userID, c.Param("deck_id"), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"card": card})
}

type replaceCardsRequest struct {
	Cards []decks.CardInput `json:"cards"`
}

// ReplaceCards swaps the deck's whole card set in one request, the way
// the editor submits it.
func (h Handlers) ReplaceCards(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	var req replaceCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cards, err := h.Decks.ReplaceCards(c.Request.Context(), userID, c.Param("deck_id"), req.Cards)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// GetSharedDeck is public: anyone holding the share link can read the
// deck and its cards.
func (h Handlers) GetSharedDeck(c *gin.Context) {
	out, err := h.Decks.GetShared(c.Request.Context(), c.Param("share_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DuplicateSharedDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	d, err := h.Decks.Duplicate(c.Request.Context(), userID, c.Param("share_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deck": d})
}

func (h Handlers) SaveSharedDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	if err := h.Decks.SaveShared(c.Request.Context(), userID, c.Param("share_id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) UnsaveDeck(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	if err := h.Decks.UnsaveShared(c.Request.Context(), userID, c.Param("deck_id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ListSavedDecks(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	out, err := h.Decks.ListSaved(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"decks": out})
}
