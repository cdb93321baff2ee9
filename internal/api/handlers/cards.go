package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rcharbonnier/allscans/internal/api/response"
	"github.com/rcharbonnier/allscans/internal/storage"
	"github.com/rcharbonnier/allscans/internal/storage/models"
	"github.com/rcharbonnier/allscans/internal/storage/repository"
)

// CardsHandler serves the shared card cache endpoints.
type CardsHandler struct {
	storage *storage.Service
}

// NewCardsHandler creates a new CardsHandler.
func NewCardsHandler(store *storage.Service) *CardsHandler {
	return &CardsHandler{storage: store}
}

// ownedCard is a cached card annotated with whether the requesting user
// owns it. The count itself rides on the card's owned_count field.
type ownedCard struct {
	*models.Card
	Owned bool `json:"owned"`
}

// GetCard returns a cached card with the caller's owned count.
func (h *CardsHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID := chi.URLParam(r, "cardID")

	card, err := h.storage.Cards().Get(r.Context(), cardID)
	if err != nil {
		mapStorageError(w, err)
		return
	}

	result := ownedCard{Card: card}
	entry, err := h.storage.UserCards().Get(r.Context(), userID, cardID)
	switch {
	case err == nil:
		result.Card.OwnedCount = entry.Count
		result.Owned = true
	case !errors.Is(err, repository.ErrNotFound):
		response.InternalError(w, err)
		return
	}

	response.Success(w, result)
}

// BatchCards returns cached cards for a list of ids, preserving request
// order, deduplicated, with unknown ids skipped.
func (h *CardsHandler) BatchCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		CardIDs []string `json:"card_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}

	result := []ownedCard{}
	if len(req.CardIDs) > 0 {
		cards, err := h.storage.Cards().GetMany(r.Context(), req.CardIDs)
		if err != nil {
			response.InternalError(w, err)
			return
		}
		counts, err := h.storage.UserCards().CountsFor(r.Context(), userID, req.CardIDs)
		if err != nil {
			response.InternalError(w, err)
			return
		}

		seen := make(map[string]bool, len(req.CardIDs))
		for _, id := range req.CardIDs {
			card, found := cards[id]
			if !found || seen[id] {
				continue
			}
			seen[id] = true
			card.OwnedCount = counts[id]
			result = append(result, ownedCard{Card: card, Owned: counts[id] > 0})
		}
	}

	response.Success(w, map[string]interface{}{"cards": result})
}

// DeleteCard removes the card from the caller's inventory and drops them
// from the card's owner set. The cached card itself is never deleted.
func (h *CardsHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	cardID := chi.URLParam(r, "cardID")

	if err := h.storage.UserCards().Delete(r.Context(), userID, cardID); err != nil {
		mapStorageError(w, err)
		return
	}
	if err := h.storage.Cards().RemoveOwner(r.Context(), cardID, userID); err != nil {
		response.InternalError(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "deleted"})
}
